package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/rendercore"
	"gopkg.in/yaml.v3"
)

// config is the demo's YAML configuration.
type config struct {
	Backend        string `yaml:"backend"`
	Width          uint32 `yaml:"width"`
	Height         uint32 `yaml:"height"`
	Frames         int    `yaml:"frames"`
	FramesInFlight int    `yaml:"frames_in_flight"`
	MemoryBudgetMB uint64 `yaml:"memory_budget_mb"`
	Output         string `yaml:"output"`
	LogLevel       string `yaml:"log_level"`
}

func defaultConfig() config {
	return config{
		Backend:        "vulkan",
		Width:          256,
		Height:         256,
		Frames:         60,
		FramesInFlight: rendercore.DefaultFramesInFlight,
		MemoryBudgetMB: 64,
		LogLevel:       "info",
	}
}

// loadConfig reads path over the defaults. An empty path keeps them.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	if _, err := rendercore.ParseBackendType(c.Backend); err != nil {
		return err
	}
	if c.Width == 0 || c.Height == 0 {
		return fmt.Errorf("invalid size %dx%d", c.Width, c.Height)
	}
	if c.Frames < 1 {
		return fmt.Errorf("frames must be positive, got %d", c.Frames)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c config) size() rendercore.ISize {
	return rendercore.ISize{Width: c.Width, Height: c.Height}
}

func (c config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

func (c config) options(log *slog.Logger) []rendercore.ContextOption {
	return []rendercore.ContextOption{
		rendercore.WithLabel("rcdemo"),
		rendercore.WithLogger(log),
		rendercore.WithFramesInFlight(c.FramesInFlight),
		rendercore.WithMemoryBudget(c.MemoryBudgetMB * 1024 * 1024),
	}
}
