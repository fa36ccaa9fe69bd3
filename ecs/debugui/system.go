package debugui

import "github.com/plus3/entalloc/ecs"

// DebugUISystem renders every debug panel spawned by SpawnDebugUI. It must
// run inside an ImGui frame. The slot browser selection feeds the component
// inspector, and a store picked in the store viewer becomes the browser's
// search text.
type DebugUISystem struct {
	Browsers   ecs.Query[struct{ *SlotBrowserComponent }]
	Inspectors ecs.Query[struct{ *ComponentInspectorComponent }]
	Stores     ecs.Query[struct{ *ComponentStoreViewerComponent }]
	Stats      ecs.Query[struct{ *PerformanceStatsComponent }]
	Queries    ecs.Query[struct{ *QueryDebuggerComponent }]

	// Scheduler, when set, adds per-system timings to the stats panel.
	Scheduler *ecs.Scheduler
}

func (d *DebugUISystem) Execute(frame *ecs.UpdateFrame) {
	storage := frame.Storage

	var selected ecs.Entity
	var hasSelection bool
	for item := range d.Browsers.Iter() {
		item.SlotBrowserComponent.Render(storage)
		if e, ok := item.SlotBrowserComponent.Selected(); ok {
			selected, hasSelection = e, true
		}
	}

	for item := range d.Inspectors.Iter() {
		item.ComponentInspectorComponent.Render(storage, selected, hasSelection)
	}

	for item := range d.Stores.Iter() {
		if typeName, ok := item.ComponentStoreViewerComponent.Render(storage); ok {
			for browser := range d.Browsers.Iter() {
				browser.SlotBrowserComponent.filterText = typeName
				browser.SlotBrowserComponent.currentPage = 0
			}
		}
	}

	for item := range d.Stats.Iter() {
		item.PerformanceStatsComponent.Render(storage, d.Scheduler, float32(frame.DeltaTime))
	}

	for item := range d.Queries.Iter() {
		item.QueryDebuggerComponent.Render(storage)
	}
}
