package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/entalloc/ecs"
	"gopkg.in/yaml.v3"
)

type Report struct {
	// Configuration
	Duration    time.Duration
	Entities    int
	Churn       float64
	StaleSample int
	Seed        int64

	// Results
	TotalUpdates   int64
	TotalTime      time.Duration
	UpdateTime     Stats
	Allocator      ecs.GeneratorStats
	Flushed        ecs.FlushResult
	StaleChecks    int64
	Violations     int64
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

// Write renders the report as markdown or yaml.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "yaml":
		return r.writeYAML(w)
	case "markdown", "":
		return r.Generate(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Entity Allocator Stress Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Churn Per Frame:** {{pct .Churn}}
- **Stale Handle Sample:** {{.StaleSample}}
- **Seed:** {{.Seed}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}

## Allocator
- **Slots:** {{.Allocator.Slots}}
- **Alive:** {{.Allocator.Alive}}
- **Dead (free list):** {{.Allocator.Dead}}
- **Tombstones:** {{.Allocator.Tombstones}}
- **Spawned / Despawned:** {{.Flushed.Spawned}} / {{.Flushed.Despawned}}
- **Skipped Commands:** {{.Flushed.Skipped}}

## Stale Handles
- **Checks:** {{.StaleChecks}}
- **Violations:** {{.Violations}}{{if .Violations}} (FAILED){{end}}

## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}`

	fm := template.FuncMap{
		"pct": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v*100)
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}

type yamlReport struct {
	Config struct {
		Duration    string  `yaml:"duration"`
		Entities    int     `yaml:"entities"`
		Churn       float64 `yaml:"churn"`
		StaleSample int     `yaml:"stale_sample"`
		Seed        int64   `yaml:"seed"`
	} `yaml:"config"`
	Performance struct {
		TotalUpdates int64  `yaml:"total_updates"`
		TotalTime    string `yaml:"total_time"`
		UpdateAvg    string `yaml:"update_avg"`
		UpdateMin    string `yaml:"update_min"`
		UpdateMax    string `yaml:"update_max"`
	} `yaml:"performance"`
	Allocator struct {
		Slots      int `yaml:"slots"`
		Alive      int `yaml:"alive"`
		Dead       int `yaml:"dead"`
		Tombstones int `yaml:"tombstones"`
		Spawned    int `yaml:"spawned"`
		Despawned  int `yaml:"despawned"`
		Skipped    int `yaml:"skipped"`
	} `yaml:"allocator"`
	StaleHandles struct {
		Checks     int64 `yaml:"checks"`
		Violations int64 `yaml:"violations"`
	} `yaml:"stale_handles"`
	Memory struct {
		HeapAllocDelta  int64  `yaml:"heap_alloc_delta"`
		TotalAllocDelta int64  `yaml:"total_alloc_delta"`
		NumGC           uint32 `yaml:"num_gc"`
		GCPauseTotal    string `yaml:"gc_pause_total,omitempty"`
	} `yaml:"memory"`
}

func (r *Report) writeYAML(w io.Writer) error {
	var out yamlReport
	out.Config.Duration = r.Duration.String()
	out.Config.Entities = r.Entities
	out.Config.Churn = r.Churn
	out.Config.StaleSample = r.StaleSample
	out.Config.Seed = r.Seed

	out.Performance.TotalUpdates = r.TotalUpdates
	out.Performance.TotalTime = r.TotalTime.String()
	out.Performance.UpdateAvg = r.UpdateTime.Avg.String()
	out.Performance.UpdateMin = r.UpdateTime.Min.String()
	out.Performance.UpdateMax = r.UpdateTime.Max.String()

	out.Allocator.Slots = r.Allocator.Slots
	out.Allocator.Alive = r.Allocator.Alive
	out.Allocator.Dead = r.Allocator.Dead
	out.Allocator.Tombstones = r.Allocator.Tombstones
	out.Allocator.Spawned = r.Flushed.Spawned
	out.Allocator.Despawned = r.Flushed.Despawned
	out.Allocator.Skipped = r.Flushed.Skipped

	out.StaleHandles.Checks = r.StaleChecks
	out.StaleHandles.Violations = r.Violations

	out.Memory.HeapAllocDelta = int64(r.MemStatsEnd.HeapAlloc) - int64(r.MemStatsStart.HeapAlloc)
	out.Memory.TotalAllocDelta = int64(r.MemStatsEnd.TotalAlloc) - int64(r.MemStatsStart.TotalAlloc)
	out.Memory.NumGC = r.MemStatsEnd.NumGC - r.MemStatsStart.NumGC
	if r.GCPauseMetrics {
		out.Memory.GCPauseTotal = time.Duration(r.MemStatsEnd.PauseTotalNs).String()
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}
