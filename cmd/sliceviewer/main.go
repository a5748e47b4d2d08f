package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"sliceviewer/internal/logging"
	"sliceviewer/pkg/config"
	"sliceviewer/pkg/export"
	"sliceviewer/pkg/framecache"
	"sliceviewer/pkg/interaction"
	"sliceviewer/pkg/loader"
	"sliceviewer/pkg/volume"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "", "Configuration file (.yaml or .toml)")
	initConfig := flag.String("init-config", "", "Write a default configuration file to this path and exit")
	inputDir := flag.String("input", "", "Directory containing 2D slice images (phantom when empty)")
	labelDir := flag.String("labels", "", "Directory containing label images matching -input")
	depth := flag.Int("depth", 48, "Phantom depth")
	rows := flag.Int("rows", 256, "Phantom rows")
	cols := flag.Int("cols", 256, "Phantom columns")
	scriptPath := flag.String("script", "", "YAML event script to replay")
	realtime := flag.Bool("realtime", false, "Replay script events at their recorded pace")
	framesDir := flag.String("frames", "", "Directory to write presented frames to")
	gifPath := flag.String("gif", "", "Export all slices as an animated GIF")
	exportDir := flag.String("export-dir", "", "Export all slices as numbered PNG files")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Log file (stderr when empty)")
	flag.Parse()

	if *initConfig != "" {
		if err := config.CreateDefaultConfigFile(*initConfig); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *initConfig)
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	}

	logger, closer := logging.New(logging.Options{
		File:    cfg.Logging.File,
		Level:   cfg.Logging.Level,
		MaxSize: cfg.Logging.MaxSize,
		MaxAge:  cfg.Logging.MaxAge,
	})
	defer closer.Close()
	logging.SetLogger(logger)

	// Load the case
	intensity, labels, err := loadCase(*inputDir, *labelDir, *depth, *rows, *cols, cfg)
	if err != nil {
		log.Fatalf("Failed to load case: %v", err)
	}
	colors, err := cfg.ColorMap()
	if err != nil {
		log.Fatalf("Invalid label configuration: %v", err)
	}
	state, err := volume.NewState(intensity, labels,
		volume.WithBounds(cfg.Bounds()),
		volume.WithView(cfg.ViewState()),
		volume.WithColorMap(colors))
	if err != nil {
		log.Fatalf("Failed to create viewer state: %v", err)
	}
	fmt.Printf("Loaded volume %v (labels: %v)\n", state.Shape(), state.HasLabels())

	cache := framecache.New(cfg.Cache.Entries)
	strategy := interaction.NewSlicerStrategy(state, cache)
	strategy.HoverRadius = cfg.Viewer.HoverRadius
	strategy.AutoLow, strategy.AutoHigh = cfg.Window.AutoLow, cfg.Window.AutoHigh

	var sink interaction.FrameSink = &export.MemorySink{}
	if *framesDir != "" {
		fileSink, err := export.NewFileSink(*framesDir, "frame", cfg.Viewer.Zoom)
		if err != nil {
			log.Fatalf("Failed to create frame sink: %v", err)
		}
		sink = fileSink
	}

	// The loop owns the state; every event and timer callback runs on it
	var viewer *interaction.Viewer
	loop := interaction.NewLoop(func(ev interaction.Event) { viewer.Dispatch(ev) },
		interaction.NewThrottler(cfg.EventInterval()), 64)
	viewer = interaction.NewViewer(strategy, sink, interaction.ViewerOptions{
		Controller: interaction.ControllerOptions{
			Scheduler:      loop,
			CrosshairDelay: cfg.CrosshairDelay(),
			Painter:        &interaction.LabelBrush{State: state, Radius: cfg.Mask.BrushRadius, Label: cfg.Mask.BrushLabel},
			Painting:       cfg.Mask.Paint && state.HasLabels(),
			Status:         interaction.StatusFunc(func(msg string) { logging.Logger().Info("status", "msg", msg) }),
			HoverRadius:    cfg.Viewer.HoverRadius,
		},
		Presenter: interaction.PresenterOptions{
			Overlay: cfg.Viewer.Overlay,
			Async:   cfg.Viewer.Async,
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	startTime := time.Now()
	loop.Do(viewer.Start)
	if *scriptPath != "" {
		if err := replay(loop, *scriptPath, *realtime); err != nil {
			log.Printf("Warning: script replay failed: %v", err)
		}
		if *realtime {
			// let the last crosshair expire
			time.Sleep(cfg.CrosshairDelay() + 50*time.Millisecond)
		}
	}
	barrier(loop)
	loop.Do(viewer.Close)
	barrier(loop)
	cancel()
	<-done

	stats := viewer.Presenter().Stats()
	hits, misses, entries := cache.Stats()
	fmt.Printf("Session finished in %.2f seconds\n", time.Since(startTime).Seconds())
	fmt.Printf("- Frames presented: %d (base renders: %d, coalesced: %d, errors: %d)\n",
		stats.Frames, stats.BaseRenders, stats.Coalesced, stats.Errors)
	fmt.Printf("- Frame cache: %d hits, %d misses, %d entries\n", hits, misses, entries)
	view := state.View()
	fmt.Printf("- Final view: slice %d, window [%g, %g], mask %v\n",
		view.SliceIndex, view.Window.Low, view.Window.High, view.MaskOn)

	// Export the whole stack with the final settings
	if *gifPath != "" || *exportDir != "" {
		frames, err := export.Frames(state, nil, cfg.Export.Workers)
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		if *gifPath != "" {
			if err := export.SaveGIF(*gifPath, frames, cfg.ExportDelay()); err != nil {
				log.Printf("Warning: Failed to save animation: %v", err)
			} else {
				fmt.Printf("Animation saved to: %s\n", *gifPath)
			}
		}
		if *exportDir != "" {
			if err := export.SaveSequence(*exportDir, cfg.Export.Prefix, frames); err != nil {
				log.Printf("Warning: Failed to save slices: %v", err)
			} else {
				fmt.Printf("Slices saved to: %s\n", *exportDir)
			}
		}
	}
}

func loadCase(inputDir, labelDir string, depth, rows, cols int, cfg *config.Config) (*volume.Volume, *volume.LabelVolume, error) {
	if inputDir == "" {
		fmt.Printf("No input directory, generating a %dx%dx%d phantom\n", depth, rows, cols)
		return loader.Phantom(depth, rows, cols)
	}
	vol, _, err := loader.LoadDir(inputDir, loader.Options{
		Slope:     cfg.Loader.Slope,
		Intercept: cfg.Loader.Intercept,
		Workers:   cfg.Export.Workers,
	})
	if err != nil {
		return nil, nil, err
	}
	if labelDir == "" {
		return vol, nil, nil
	}
	labels, err := loader.LoadLabelDir(labelDir, vol.Shape())
	if err != nil {
		return nil, nil, err
	}
	return vol, labels, nil
}

func replay(loop *interaction.Loop, path string, realtime bool) error {
	start := time.Now()
	events, err := interaction.LoadScript(path, start)
	if err != nil {
		return err
	}
	posted := 0
	for _, ev := range events {
		if realtime {
			if wait := time.Until(ev.Time); wait > 0 {
				time.Sleep(wait)
			}
		}
		if loop.Post(ev) {
			posted++
		}
	}
	logging.Logger().Info("script replayed", "path", path, "events", len(events), "delivered", posted)
	return nil
}

// barrier waits until everything queued on the loop so far has run.
func barrier(loop *interaction.Loop) {
	done := make(chan struct{})
	if loop.Do(func() { close(done) }) {
		<-done
	}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\nInteractive slice viewer core driven by scripted input.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
}
