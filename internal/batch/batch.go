// Package batch runs the scanner over many image files concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/scan"
)

// OutputSuffix is appended to the input base name to form the output file.
const OutputSuffix = "_scanned"

// Options controls a batch run.
type Options struct {
	// OutputDir receives the scanned pages. Empty writes next to each input.
	OutputDir string

	// Enhance binarises each page after rectification.
	Enhance bool

	// Native runs detection at the frame's own resolution.
	Native bool

	// Workers bounds the number of files processed at once. Values below 1
	// mean 1.
	Workers int

	// DryRun detects and reports without writing anything.
	DryRun bool

	// Order is the channel order assumed for decoded files.
	Order imaging.ChannelOrder
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Input   string
	Output  string
	Corners *geometry.Corners
	Width   int
	Height  int
	Err     error
}

// Run scans every file and returns one result per input, in input order.
//
// A failing file does not stop the others. The returned error combines all
// per-file errors, each prefixed with its path, and is nil when every file
// succeeded. Files not yet started when ctx is cancelled are reported with
// ctx.Err().
func Run(ctx context.Context, s *scan.Scanner, log *zap.SugaredLogger, files []string, opts Options) ([]FileResult, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	workers := max(opts.Workers, 1)

	cache := imaging.NewImageCache()
	results := make([]FileResult, len(files))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			results[i] = FileResult{Input: path, Err: err}
			continue
		}
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{Input: path, Err: err}
				return nil
			}
			results[i] = processFile(s, cache, path, opts)
			logResult(log, i+1, len(files), results[i], opts.DryRun)
			return nil
		})
	}
	_ = g.Wait()

	var errs error
	for _, r := range results {
		if r.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Input, r.Err))
		}
	}
	return results, errs
}

func processFile(s *scan.Scanner, cache *imaging.ImageCache, path string, opts Options) FileResult {
	res := FileResult{Input: path}

	frame, err := cache.LoadFrame(path, opts.Order)
	if err != nil {
		res.Err = err
		return res
	}
	defer cache.Evict(path)

	out, err := s.Scan(frame, opts.Native, opts.Enhance)
	if err != nil {
		res.Err = err
		return res
	}
	res.Corners = out.Corners()
	res.Width, res.Height = out.Document.Width(), out.Document.Height()

	if opts.DryRun {
		return res
	}
	res.Output = OutputPath(path, opts.OutputDir)
	if _, err := imaging.SaveImage(out.Document.Image(), res.Output); err != nil {
		res.Err = err
	}
	return res
}

func logResult(log *zap.SugaredLogger, n, total int, r FileResult, dryRun bool) {
	progress := fmt.Sprintf("%d/%d", n, total)
	switch {
	case errors.Is(r.Err, scan.ErrNoDocumentFound):
		log.Warnw("no document found", "progress", progress, "file", r.Input)
	case r.Err != nil:
		log.Errorw("scan failed", "progress", progress, "file", r.Input, "error", r.Err)
	case dryRun:
		log.Infow("would scan", "progress", progress, "file", r.Input, "width", r.Width, "height", r.Height)
	default:
		log.Infow("scanned", "progress", progress, "file", r.Input, "output", r.Output, "width", r.Width, "height", r.Height)
	}
}

// OutputPath names the scanned page for input: <base>_scanned.png in
// outputDir, or next to the input when outputDir is empty.
func OutputPath(input, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + OutputSuffix + ".png"
	if outputDir == "" {
		return filepath.Join(filepath.Dir(input), base)
	}
	return filepath.Join(outputDir, base)
}

// ExpandInputs turns command line arguments into a list of image files.
// Directories contribute their image files (not recursively) in name order;
// earlier outputs of this tool are skipped. Duplicates are removed.
func ExpandInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read input: %w", err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		dirFiles, err := expandDirectory(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to list directory %s: %w", arg, err)
		}
		files = append(files, dirFiles...)
	}
	return lo.Uniq(files), nil
}

func expandDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var imageFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if isImageFile(path) && !isScanOutput(path) {
			imageFiles = append(imageFiles, path)
		}
	}
	sort.Strings(imageFiles)
	return imageFiles, nil
}

func isImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}

func isScanOutput(path string) bool {
	return strings.HasSuffix(strings.TrimSuffix(path, filepath.Ext(path)), OutputSuffix)
}
