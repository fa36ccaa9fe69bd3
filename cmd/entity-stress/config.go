package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Run     RunConfig     `toml:"run"`
	Report  ReportConfig  `toml:"report"`
	Logging LoggingConfig `toml:"logging"`
}

type RunConfig struct {
	Duration       time.Duration `toml:"duration"`
	Entities       int           `toml:"entities"`
	Churn          float64       `toml:"churn"`        // fraction of live entities despawned per frame (0.0-1.0)
	StaleSample    int           `toml:"stale_sample"` // stale handles kept for re-checking
	Seed           int64         `toml:"seed"`
	GCPauseMetrics bool          `toml:"gc_pause_metrics"`
	Profile        string        `toml:"profile"` // "", "cpu" or "mem"
}

type ReportConfig struct {
	Format string `toml:"format"` // "markdown" or "yaml"
	Output string `toml:"output"` // empty writes to stdout
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func defaults() *Config {
	return &Config{
		Run: RunConfig{
			Duration:    10 * time.Second,
			Entities:    10000,
			Churn:       0.05,
			StaleSample: 4096,
			Seed:        1,
		},
		Report: ReportConfig{
			Format: "markdown",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a TOML config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// parseConfig builds the run configuration from command line args. Flags
// given explicitly override values from the -config file.
func parseConfig(args []string, stderr io.Writer) (*Config, error) {
	def := defaults()

	fs := flag.NewFlagSet("entity-stress", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to a TOML config file.")
	duration := fs.Duration("duration", def.Run.Duration, "The total duration the test should run for.")
	entities := fs.Int("entities", def.Run.Entities, "The initial number of entities to create.")
	churn := fs.Float64("churn", def.Run.Churn, "Fraction of live entities despawned and replaced every frame.")
	staleSample := fs.Int("stale-sample", def.Run.StaleSample, "Number of despawned handles kept and re-checked every frame.")
	seed := fs.Int64("seed", def.Run.Seed, "Random seed.")
	gcPauseMetrics := fs.Bool("gc-pause-metrics", def.Run.GCPauseMetrics, "Enable detailed GC pause metrics in the report.")
	profileMode := fs.String("profile", def.Run.Profile, "Write a profile to the working directory: cpu or mem.")
	format := fs.String("format", def.Report.Format, "Report format: markdown or yaml.")
	output := fs.String("output", def.Report.Output, "Report file; stdout when empty.")
	logLevel := fs.String("log-level", def.Logging.Level, "Log level.")
	logFormat := fs.String("log-format", def.Logging.Format, "Log format: json or console.")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := def
	if *configPath != "" {
		loaded, err := Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Run.Duration = *duration
		case "entities":
			cfg.Run.Entities = *entities
		case "churn":
			cfg.Run.Churn = *churn
		case "stale-sample":
			cfg.Run.StaleSample = *staleSample
		case "seed":
			cfg.Run.Seed = *seed
		case "gc-pause-metrics":
			cfg.Run.GCPauseMetrics = *gcPauseMetrics
		case "profile":
			cfg.Run.Profile = *profileMode
		case "format":
			cfg.Report.Format = *format
		case "output":
			cfg.Report.Output = *output
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Run.Duration <= 0 {
		errs = append(errs, fmt.Errorf("run.duration must be positive, got %s", c.Run.Duration))
	}
	if c.Run.Entities < 0 {
		errs = append(errs, fmt.Errorf("run.entities must not be negative, got %d", c.Run.Entities))
	}
	if c.Run.Churn < 0 || c.Run.Churn > 1 {
		errs = append(errs, fmt.Errorf("run.churn must be within [0, 1], got %g", c.Run.Churn))
	}
	if c.Run.StaleSample < 0 {
		errs = append(errs, fmt.Errorf("run.stale_sample must not be negative, got %d", c.Run.StaleSample))
	}
	switch c.Run.Profile {
	case "", "cpu", "mem":
	default:
		errs = append(errs, fmt.Errorf("run.profile must be cpu or mem, got %q", c.Run.Profile))
	}
	switch c.Report.Format {
	case "markdown", "yaml":
	default:
		errs = append(errs, fmt.Errorf("report.format must be markdown or yaml, got %q", c.Report.Format))
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
