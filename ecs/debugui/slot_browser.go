package debugui

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/entalloc/ecs"
)

// SlotInfo describes one generator slot at its current generation.
type SlotInfo struct {
	Entity         ecs.Entity
	Status         ecs.SlotStatus
	ComponentTypes []string
}

type slotBrowserCache struct {
	slots         []SlotInfo
	sortColumn    int
	sortAscending bool
}

func NewSlotBrowserComponent(maxSlotsPerPage int) SlotBrowserComponent {
	return SlotBrowserComponent{
		cache: &slotBrowserCache{
			sortColumn:    0,
			sortAscending: true,
		},
		showAlive:       true,
		showDead:        true,
		showTombstones:  true,
		maxSlotsPerPage: maxSlotsPerPage,
	}
}

func (sb *SlotBrowserComponent) Render(storage *ecs.Storage) {
	if !imgui.BeginV("Slot Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	sb.rebuildCache(storage)

	imgui.InputTextWithHint("##search", "Search...", &sb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		sb.filterText = ""
		sb.showAlive, sb.showDead, sb.showTombstones = true, true, true
	}
	imgui.Checkbox("Alive", &sb.showAlive)
	imgui.SameLine()
	imgui.Checkbox("Dead", &sb.showDead)
	imgui.SameLine()
	imgui.Checkbox("Tombstone", &sb.showTombstones)

	filtered := filterSlots(sb.cache.slots, sb.filterText, sb.showAlive, sb.showDead, sb.showTombstones)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("SlotTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Index")
		imgui.TableSetupColumn("Generation")
		imgui.TableSetupColumn("Status")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			sb.cache.sortColumn = int(spec.ColumnIndex())
			sb.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortSlots(sb.cache.slots, sb.cache.sortColumn, sb.cache.sortAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		start, end := pageBounds(len(filtered), sb.currentPage, sb.maxSlotsPerPage)
		for _, slot := range filtered[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := sb.hasSelection && sb.selected == slot.Entity
			label := strconv.FormatUint(uint64(slot.Entity.Index()), 10)
			if imgui.SelectableBoolV(label, isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				sb.selected = slot.Entity
				sb.hasSelection = true
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", slot.Entity.Generation()))

			imgui.TableNextColumn()
			imgui.Text(slot.Status.String())

			imgui.TableNextColumn()
			imgui.Text(strings.Join(slot.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(slot.ComponentTypes)))
		}

		imgui.EndTable()
	}

	if len(filtered) > sb.maxSlotsPerPage {
		totalPages := (len(filtered) + sb.maxSlotsPerPage - 1) / sb.maxSlotsPerPage
		imgui.Text(fmt.Sprintf("Page %d / %d (%d slots)", sb.currentPage+1, totalPages, len(filtered)))
		imgui.SameLine()
		if imgui.Button("Prev") && sb.currentPage > 0 {
			sb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && sb.currentPage < totalPages-1 {
			sb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d slots", len(filtered)))
	}

	imgui.End()
}

// Selected returns the handle picked in the table, if any. The handle is
// captured at selection time and goes stale if that entity is despawned.
func (sb *SlotBrowserComponent) Selected() (ecs.Entity, bool) {
	return sb.selected, sb.hasSelection
}

// rebuildCache snapshots the slots every frame. Generator and component
// counts stay the same when a slot is freed and reused within one frame, so
// they cannot tell a stale snapshot from a fresh one.
func (sb *SlotBrowserComponent) rebuildCache(storage *ecs.Storage) {
	sb.cache.slots = collectSlots(storage)
	sortSlots(sb.cache.slots, sb.cache.sortColumn, sb.cache.sortAscending)

	if sb.maxSlotsPerPage > 0 && sb.currentPage*sb.maxSlotsPerPage >= len(sb.cache.slots) {
		sb.currentPage = 0
	}
}

// collectSlots snapshots every generator slot along with the component
// types held by live entities.
func collectSlots(storage *ecs.Storage) []SlotInfo {
	slots := make([]SlotInfo, 0, storage.Generator().Len())
	for entity, status := range storage.Generator().Slots() {
		info := SlotInfo{Entity: entity, Status: status}
		if status == ecs.SlotAlive {
			info.ComponentTypes = componentTypeNames(storage.Components(entity))
		}
		slots = append(slots, info)
	}
	return slots
}

func componentTypeNames(components []any) []string {
	names := make([]string, len(components))
	for i, comp := range components {
		t := reflect.TypeOf(comp)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		names[i] = t.String()
	}
	return names
}

func sortSlots(slots []SlotInfo, column int, ascending bool) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if !ascending {
			a, b = b, a
		}

		switch column {
		case 1:
			return a.Entity.Generation() < b.Entity.Generation()
		case 2:
			return a.Status < b.Status
		case 3:
			return strings.Join(a.ComponentTypes, ",") < strings.Join(b.ComponentTypes, ",")
		case 4:
			return len(a.ComponentTypes) < len(b.ComponentTypes)
		default:
			return a.Entity.Index() < b.Entity.Index()
		}
	})
}

// filterSlots keeps the slots whose status is shown and whose index,
// handle or component types contain text (case-insensitive).
func filterSlots(slots []SlotInfo, text string, alive, dead, tombstones bool) []SlotInfo {
	if text == "" && alive && dead && tombstones {
		return slots
	}

	filtered := make([]SlotInfo, 0, len(slots))
	filterLower := strings.ToLower(text)

	for _, slot := range slots {
		switch slot.Status {
		case ecs.SlotAlive:
			if !alive {
				continue
			}
		case ecs.SlotDead:
			if !dead {
				continue
			}
		case ecs.SlotTombstone:
			if !tombstones {
				continue
			}
		}

		if text != "" {
			idStr := strconv.FormatUint(uint64(slot.Entity.Index()), 10)
			handleStr := strings.ToLower(slot.Entity.String())
			componentsStr := strings.ToLower(strings.Join(slot.ComponentTypes, " "))

			if !strings.Contains(idStr, filterLower) &&
				!strings.Contains(handleStr, filterLower) &&
				!strings.Contains(componentsStr, filterLower) {
				continue
			}
		}

		filtered = append(filtered, slot)
	}

	return filtered
}

func pageBounds(total, page, perPage int) (int, int) {
	if perPage <= 0 {
		return 0, total
	}
	start := page * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return start, end
}
