package debugui

import (
	"github.com/plus3/entalloc/ecs"
)

type SlotBrowserComponent struct {
	cache           *slotBrowserCache
	selected        ecs.Entity
	hasSelection    bool
	filterText      string
	showAlive       bool
	showDead        bool
	showTombstones  bool
	maxSlotsPerPage int
	currentPage     int
}

type ComponentInspectorComponent struct {
	selected     ecs.Entity
	hasSelection bool
}

type ComponentStoreViewerComponent struct {
	sortColumn    int
	sortAscending bool
	selectedType  string
}

type PerformanceStatsComponent struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

type QueryDebuggerComponent struct {
	selectedComponentTypes map[string]bool
	maxListed              int
}
