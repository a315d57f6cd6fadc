package main

import (
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	data := []byte("backend: metal\nwidth: 64\nheight: 32\nframes: 4\nlog_level: debug\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Backend != "metal" || cfg.Width != 64 || cfg.Height != 32 || cfg.Frames != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MemoryBudgetMB != 64 {
		t.Errorf("default memory budget lost: %d", cfg.MemoryBudgetMB)
	}
	if l, _ := cfg.level(); l != slog.LevelDebug {
		t.Errorf("level = %v", l)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "backend: d3d12\n"},
		{"zero width", "width: 0\n"},
		{"no frames", "frames: 0\n"},
		{"bad level", "log_level: loud\n"},
		{"not yaml", "backend: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := loadConfig(path); err == nil {
				t.Error("loadConfig succeeded")
			}
		})
	}
	if _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestRun(t *testing.T) {
	for _, backend := range []string{"vulkan", "gles", "metal"} {
		t.Run(backend, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Backend = backend
			cfg.Width, cfg.Height = 48, 32
			cfg.Frames = 4
			cfg.Output = filepath.Join(t.TempDir(), "frame.png")

			stats, err := run(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if stats.frames != 4 || stats.presented != 4 {
				t.Errorf("stats = %+v", stats)
			}

			f, err := os.Open(cfg.Output)
			if err != nil {
				t.Fatalf("output: %v", err)
			}
			defer f.Close()
			img, err := png.Decode(f)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 32 {
				t.Errorf("image bounds = %v", b)
			}
		})
	}
}
