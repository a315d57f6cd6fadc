// Command rcdemo renders a triangle for a number of frames on a headless
// device and reports allocator and queue statistics.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		backend    = flag.String("backend", "", "backend override (vulkan, gles, metal)")
		frames     = flag.Int("frames", 0, "frame count override")
		output     = flag.String("output", "", "write the last frame to this PNG file")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *frames > 0 {
		cfg.Frames = *frames
	}
	if *output != "" {
		cfg.Output = *output
	}
	if err := cfg.validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	level, _ := cfg.level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	stats, err := run(cfg, logger)
	if err != nil {
		log.Fatalf("rcdemo: %v", err)
	}
	log.Printf("Rendered %d frames on %s (%dx%d), %d presented\n",
		stats.frames, cfg.Backend, cfg.Width, cfg.Height, stats.presented)
	log.Printf("%s\n", stats.memory)
	if cfg.Output != "" {
		log.Printf("Last frame saved to %s\n", cfg.Output)
	}
}
