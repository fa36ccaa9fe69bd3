// entity-stress churns entities through the allocator for a fixed duration
// and checks that despawned handles never come back to life.
//
// Usage:
//
//	go run ./cmd/entity-stress -duration 30s -churn 0.1 -format yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var errViolations = errors.New("stale handle violations recorded")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := parseConfig(args, os.Stderr)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if p := startProfile(cfg.Run.Profile); p != nil {
		defer p.Stop()
	}

	logger.Info("starting entity stress test",
		zap.Duration("duration", cfg.Run.Duration),
		zap.Int("entities", cfg.Run.Entities),
		zap.Float64("churn", cfg.Run.Churn),
	)

	report := &Report{
		Duration:       cfg.Run.Duration,
		Entities:       cfg.Run.Entities,
		Churn:          cfg.Run.Churn,
		StaleSample:    cfg.Run.StaleSample,
		Seed:           cfg.Run.Seed,
		GCPauseMetrics: cfg.Run.GCPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	sim := newSimulation(cfg.Run, logger)
	logger.Info("population complete", zap.Int("alive", sim.storage.Generator().Alive()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Run.Duration)
	defer cancel()
	simulate(ctx, sim, report)

	runtime.ReadMemStats(&report.MemStatsEnd)
	logger.Info("simulation finished",
		zap.Int64("updates", report.TotalUpdates),
		zap.Int64("violations", report.Violations),
	)

	if err := writeReport(report, cfg.Report); err != nil {
		return err
	}

	if report.Violations > 0 {
		return fmt.Errorf("%w: %d", errViolations, report.Violations)
	}
	return nil
}

// simulate steps sim until ctx is done and fills in the results of report.
func simulate(ctx context.Context, sim *simulation, report *Report) {
	startTime := time.Now()
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			sim.step(deltaTime.Seconds())
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			report.TotalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.Allocator = sim.storage.Generator().Stats()
	report.Flushed = sim.flushed
	report.StaleChecks = sim.tracker.checks
	report.Violations = sim.tracker.violations
}

func writeReport(report *Report, cfg ReportConfig) error {
	var w io.Writer = os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := report.Write(w, cfg.Format); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func startProfile(mode string) interface{ Stop() } {
	switch mode {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		return nil
	}
}

func newLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
