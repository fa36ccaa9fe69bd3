package debugui

import (
	"fmt"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/entalloc/ecs"
)

func NewComponentStoreViewerComponent() ComponentStoreViewerComponent {
	return ComponentStoreViewerComponent{
		sortColumn:    1,
		sortAscending: false,
	}
}

// Render draws one row per component store. Clicking a row selects the type
// and returns its name so the slot browser can filter on it.
func (sv *ComponentStoreViewerComponent) Render(storage *ecs.Storage) (string, bool) {
	if !imgui.BeginV("Component Stores", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return "", false
	}

	rows := storage.CollectStats().ComponentBreakdown
	sortStoreRows(rows, sv.sortColumn, sv.sortAscending)

	maxCount := 0
	for _, row := range rows {
		if row.Count > maxCount {
			maxCount = row.Count
		}
	}

	var clicked string
	var wasClicked bool

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("StoreTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Component")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			sv.sortColumn = int(spec.ColumnIndex())
			sv.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortStoreRows(rows, sv.sortColumn, sv.sortAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		for _, row := range rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(row.Type, sv.selectedType == row.Type, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				sv.selectedType = row.Type
				clicked, wasClicked = row.Type, true
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Count))

			if maxCount > 0 {
				barWidth := float32(row.Count) / float32(maxCount) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}
		}

		imgui.EndTable()
	}

	imgui.End()
	return clicked, wasClicked
}

func sortStoreRows(rows []ecs.ComponentStats, column int, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !ascending {
			a, b = b, a
		}
		if column == 1 {
			return a.Count < b.Count
		}
		return a.Type < b.Type
	})
}
