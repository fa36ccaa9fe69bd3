package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/plus3/entalloc/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	r := &Report{
		Duration:     time.Second,
		Entities:     100,
		Churn:        0.05,
		StaleSample:  64,
		Seed:         7,
		TotalUpdates: 3,
		TotalTime:    time.Second,
		UpdateTime: Stats{
			Samples: []time.Duration{3 * time.Millisecond, time.Millisecond, 2 * time.Millisecond},
		},
		Allocator:   ecs.GeneratorStats{Slots: 110, Alive: 100, Dead: 10},
		Flushed:     ecs.FlushResult{Spawned: 15, Despawned: 15},
		StaleChecks: 42,
	}
	r.UpdateTime.Finalize()
	return r
}

func TestStatsFinalize(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, time.Millisecond, r.UpdateTime.Min)
	assert.Equal(t, 3*time.Millisecond, r.UpdateTime.Max)
	assert.Equal(t, 2*time.Millisecond, r.UpdateTime.Avg)

	var empty Stats
	empty.Finalize()
	assert.Zero(t, empty.Avg)
}

func TestReportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Write(&buf, "markdown"))

	out := buf.String()
	assert.Contains(t, out, "# Entity Allocator Stress Report")
	assert.Contains(t, out, "- **Churn Per Frame:** 5.0%")
	assert.Contains(t, out, "- **Slots:** 110")
	assert.Contains(t, out, "- **Violations:** 0\n")
	assert.NotContains(t, out, "FAILED")
	assert.NotContains(t, out, "GC Pause")
}

func TestReportMarkdownFlagsViolations(t *testing.T) {
	r := sampleReport()
	r.Violations = 2
	r.GCPauseMetrics = true

	var buf bytes.Buffer
	require.NoError(t, r.Generate(&buf))
	assert.Contains(t, buf.String(), "- **Violations:** 2 (FAILED)")
	assert.Contains(t, buf.String(), "## GC Pause Durations")
}

func TestReportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Write(&buf, "yaml"))

	var decoded yamlReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "1s", decoded.Config.Duration)
	assert.Equal(t, 100, decoded.Allocator.Alive)
	assert.Equal(t, 10, decoded.Allocator.Dead)
	assert.Equal(t, 15, decoded.Allocator.Despawned)
	assert.Equal(t, int64(42), decoded.StaleHandles.Checks)
	assert.Equal(t, "2ms", decoded.Performance.UpdateAvg)
	assert.Empty(t, decoded.Memory.GCPauseTotal)
}

func TestReportUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, sampleReport().Write(&buf, "xml"))
}
