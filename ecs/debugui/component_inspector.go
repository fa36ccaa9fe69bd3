package debugui

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/entalloc/ecs"
)

var entityType = reflect.TypeFor[ecs.Entity]()

func NewComponentInspectorComponent() ComponentInspectorComponent {
	return ComponentInspectorComponent{}
}

// Render shows the components of the selected entity. The panel is
// read-only; a selection whose entity has been despawned shows as not alive.
func (ci *ComponentInspectorComponent) Render(storage *ecs.Storage, selected ecs.Entity, hasSelection bool) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ci.selected, ci.hasSelection = selected, hasSelection

	if !ci.hasSelection {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Entity: %s", ci.selected))
	if !storage.IsAlive(ci.selected) {
		imgui.Text("not alive")
		imgui.End()
		return
	}
	imgui.Separator()

	for _, component := range storage.Components(ci.selected) {
		name := componentTypeNames([]any{component})[0]
		if imgui.TreeNodeStr(name) {
			for _, line := range describeComponent(component) {
				indent := strings.Repeat("  ", line.Depth)
				if line.Value == "" {
					imgui.Text(indent + line.Name + ":")
					continue
				}
				imgui.Text(fmt.Sprintf("%s%s: %s", indent, line.Name, line.Value))
			}
			imgui.TreePop()
		}
	}

	imgui.End()
}
