// Command docscan finds the document in each photo, flattens it and writes
// the result as <name>_scanned.png.
//
//	docscan [options] image_files_or_directories...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/docscan-mcp/internal/batch"
	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/logging"
	"github.com/ironsheep/docscan-mcp/internal/scan"
)

// Version is set by ldflags during build.
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 2
	}

	var (
		outputDir   string
		enhance     bool
		native      bool
		workers     int
		dryRun      bool
		verbose     bool
		showVersion bool
	)
	flag.StringVar(&outputDir, "output-dir", "", "Output directory for scanned pages (default: next to each input)")
	flag.BoolVar(&enhance, "enhance", false, "Binarise pages for a scanned look")
	flag.BoolVar(&native, "native", false, "Detect at full resolution instead of a 500px working copy")
	flag.IntVar(&workers, "workers", cfg.Workers, "Number of files processed concurrently")
	flag.BoolVar(&dryRun, "dry-run", false, "Detect and report without writing output")
	flag.BoolVar(&verbose, "verbose", false, "Print debug information")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("docscan %s\n", Version)
		return 0
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] image_files...\n", os.Args[0])
		flag.PrintDefaults()
		return 1
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup failed: %v\n", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	files, err := batch.ExpandInputs(args)
	if err != nil {
		log.Errorw("invalid input", "error", err)
		return 2
	}
	if len(files) == 0 {
		log.Warnw("no image files found", "inputs", args)
		return 1
	}

	scanner, err := scan.New(log, cfg.Detection, cfg.Enhance)
	if err != nil {
		log.Errorw("invalid scanner settings", "error", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := batch.Run(ctx, scanner, log, files, batch.Options{
		OutputDir: outputDir,
		Enhance:   enhance,
		Native:    native,
		Workers:   workers,
		DryRun:    dryRun,
		Order:     cfg.ChannelOrder,
	})

	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Printf("FAILED  %s: %v\n", r.Input, r.Err)
		case dryRun:
			fmt.Printf("would scan %s -> %dx%d\n", r.Input, r.Width, r.Height)
		default:
			fmt.Printf("scanned %s -> %s (%dx%d)\n", r.Input, r.Output, r.Width, r.Height)
		}
	}
	if err != nil {
		return 1
	}
	return 0
}
