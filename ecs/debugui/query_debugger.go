package debugui

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/entalloc/ecs"
)

func NewQueryDebuggerComponent(maxListed int) QueryDebuggerComponent {
	return QueryDebuggerComponent{
		selectedComponentTypes: make(map[string]bool),
		maxListed:              maxListed,
	}
}

// Render lets the user tick component types and shows the live entities
// that hold all of them.
func (qd *QueryDebuggerComponent) Render(storage *ecs.Storage) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Text("Select Component Types:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		qd.selectedComponentTypes = make(map[string]bool)
	}

	typeMap := make(map[string]reflect.Type)
	for _, t := range storage.ComponentTypes() {
		typeMap[t.String()] = t
		selected := qd.selectedComponentTypes[t.String()]
		if imgui.Checkbox(t.String(), &selected) {
			if selected {
				qd.selectedComponentTypes[t.String()] = true
			} else {
				delete(qd.selectedComponentTypes, t.String())
			}
		}
	}

	imgui.Separator()

	selectedTypes := make([]reflect.Type, 0, len(qd.selectedComponentTypes))
	for typeName := range qd.selectedComponentTypes {
		if t, ok := typeMap[typeName]; ok {
			selectedTypes = append(selectedTypes, t)
		}
	}

	if len(selectedTypes) == 0 {
		imgui.Text("No component types selected")
		imgui.End()
		return
	}

	matching := matchingEntities(storage, selectedTypes)
	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(matching)))

	if imgui.TreeNodeStr("Entities") {
		for i, entity := range matching {
			if qd.maxListed > 0 && i >= qd.maxListed {
				imgui.Text(fmt.Sprintf("... and %d more", len(matching)-qd.maxListed))
				break
			}
			imgui.BulletText(entity.String())
		}
		imgui.TreePop()
	}

	imgui.End()
}

// matchingEntities returns the live entities that have every type in
// required, in index order.
func matchingEntities(storage *ecs.Storage, required []reflect.Type) []ecs.Entity {
	sort.Slice(required, func(i, j int) bool { return required[i].String() < required[j].String() })

	var matching []ecs.Entity
	for entity := range storage.Entities() {
		if entityHasAllTypes(storage, entity, required) {
			matching = append(matching, entity)
		}
	}
	return matching
}

func entityHasAllTypes(storage *ecs.Storage, entity ecs.Entity, required []reflect.Type) bool {
	for _, t := range required {
		if !storage.HasComponent(entity, t) {
			return false
		}
	}
	return true
}
