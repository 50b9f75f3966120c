package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Logger is the logger used by package scan.
var Logger zerolog.Logger = log.With().Str("sys", "scan").Logger()

// SupportedExtensions lists the file extensions the scanner understands.
var SupportedExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".ts":  true,
	".tsx": true,
	".vue": true,
}

// skipDirs contains directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	"vendor":       true,
	".next":        true,
}

// FindSources recursively collects scannable files under dirs, skipping
// common non-source directories and any directory listed in exclude.
// The result is sorted and free of duplicates.
func FindSources(dirs []string, exclude ...string) ([]string, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		if abs, err := filepath.Abs(e); err == nil {
			excluded[abs] = true
		}
	}

	var files []string
	seen := make(map[string]bool)

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				Logger.Debug().Err(err).Str("path", path).Msg("Skipping unreadable entry")
				return nil
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				if abs, err := filepath.Abs(path); err == nil && excluded[abs] {
					return filepath.SkipDir
				}
				return nil
			}
			if !SupportedExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}

	sort.Strings(files)
	Logger.Debug().Int("files", len(files)).Strs("dirs", dirs).Msg("Collected source files")
	return files, nil
}

// FileResult holds the strict-mode literals found in one file.
type FileResult struct {
	Path     string
	Source   string
	Literals []Literal
}

// ScanFiles reads and strictly scans files with at most workers files in
// flight. Results keep the order of files; files without literals are
// included with an empty Literals slice.
func ScanFiles(ctx context.Context, files []string, workers int) ([]FileResult, error) {
	if workers <= 0 {
		workers = 4
	}

	results := make([]FileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			src := string(data)
			results[i] = FileResult{Path: path, Source: src, Literals: Strict(src)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
