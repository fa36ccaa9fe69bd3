package debugui

import "github.com/plus3/entalloc/ecs"

// SpawnDebugUI spawns one entity per debug panel. Register a DebugUISystem
// with the scheduler to render them.
func SpawnDebugUI(storage *ecs.Storage) {
	storage.Spawn(NewSlotBrowserComponent(100))
	storage.Spawn(NewComponentInspectorComponent())
	storage.Spawn(NewComponentStoreViewerComponent())
	storage.Spawn(NewPerformanceStatsComponent(120))
	storage.Spawn(NewQueryDebuggerComponent(50))
}

func RegisterDebugUIComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[SlotBrowserComponent](registry)
	ecs.RegisterComponent[ComponentInspectorComponent](registry)
	ecs.RegisterComponent[ComponentStoreViewerComponent](registry)
	ecs.RegisterComponent[PerformanceStatsComponent](registry)
	ecs.RegisterComponent[QueryDebuggerComponent](registry)
}
