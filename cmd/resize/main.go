package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scenekit/resize/internal/config"
	"github.com/scenekit/resize/internal/extract"
	"github.com/scenekit/resize/internal/logging"
	"github.com/scenekit/resize/internal/pipeline"
	"github.com/scenekit/resize/internal/request"
	"github.com/scenekit/resize/internal/transform"
	"github.com/scenekit/resize/internal/validate"
	"github.com/scenekit/resize/internal/writer"
)

func main() {
	// Parse flags
	scenePath := flag.String("scene", "", "Path to the exported native scene JSON")
	outputDir := flag.String("out", "output", "Output directory for scene.json and new_scene.json")
	width := flag.Float64("width", 0, "Target width (X)")
	depth := flag.Float64("depth", 0, "Target depth (Y)")
	height := flag.Float64("height", 0, "Target height (Z)")
	lockX := flag.Bool("lock-x", false, "Lock the X axis (forces uniform repair)")
	lockY := flag.Bool("lock-y", false, "Lock the Y axis (forces uniform repair)")
	lockZ := flag.Bool("lock-z", false, "Lock the Z axis (forces uniform repair)")
	intent := flag.String("intent", "", "Free-text intent for the transformation")
	optionsPath := flag.String("options", "", "Optional YAML options file")
	describe := flag.Bool("describe", false, "Only print the scene's current dimensions and exit")
	flag.Parse()

	if *scenePath == "" {
		fmt.Fprintln(os.Stderr, "error: -scene is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadOrDefault()
	if err := cfg.ApplyOptionsFile(*optionsPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log config: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	// A pending service call must be abandonable: SIGINT cancels the context
	// and the run stops at the next stage boundary with nothing written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := transform.NewClient(cfg.Service, logger)
	runner := pipeline.NewRunner(cfg, service, nil, logger)

	if *describe {
		report, err := runner.Describe(ctx, *scenePath)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Objects: %d\n", report.ObjectCount)
		fmt.Printf("Bounding box (W x D x H): %.4f x %.4f x %.4f\n", report.Width, report.Depth, report.Height)
		if report.FloorWidth > 0 || report.FloorDepth > 0 {
			fmt.Printf("Floor footprint: %.4f x %.4f\n", report.FloorWidth, report.FloorDepth)
		}
		return
	}

	result, err := runner.Run(ctx, pipeline.Input{
		ScenePath: *scenePath,
		OutputDir: *outputDir,
		Target: request.DimensionSpec{
			Width:  *width,
			Depth:  *depth,
			Height: *height,
			Lock:   [3]bool{*lockX, *lockY, *lockZ},
		},
		Intent: *intent,
	})
	if err != nil {
		fail(err)
	}

	size := result.RevisedBounds.Size()
	fmt.Printf("Run %s complete in %s\n", result.Run, result.Elapsed.Round(time.Millisecond))
	fmt.Printf("Revised bounding box (W x D x H): %.4f x %.4f x %.4f", size.X, size.Y, size.Z)
	if result.Repaired {
		fmt.Print(" (after rescale repair)")
	}
	fmt.Println()
	fmt.Printf("Artifacts: %s, %s\n", result.Artifacts.Original, result.Artifacts.Revised)
}

// fail prints which stage and invariant broke, then exits non-zero. The
// error taxonomy maps to stages one to one.
func fail(err error) {
	var (
		extractErr *extract.Error
		specErr    *request.InvalidSpecError
		svcErr     *transform.ServiceError
		timeoutErr *transform.TimeoutError
		valErr     *validate.Error
		writeErr   *writer.Error
	)
	switch {
	case errors.As(err, &extractErr):
		fmt.Fprintf(os.Stderr, "extraction failed: %v\n", err)
	case errors.As(err, &specErr):
		fmt.Fprintf(os.Stderr, "bad target dimensions: %v\n", err)
	case errors.As(err, &timeoutErr):
		fmt.Fprintf(os.Stderr, "reasoning service unavailable: %v\n", err)
	case errors.As(err, &svcErr):
		fmt.Fprintf(os.Stderr, "reasoning service rejected the request: %v\n", err)
	case errors.As(err, &valErr):
		fmt.Fprintf(os.Stderr, "candidate scene rejected: %v\n", err)
	case errors.As(err, &writeErr):
		fmt.Fprintf(os.Stderr, "could not persist artifacts: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
