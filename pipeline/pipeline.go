// Package pipeline runs the extraction pipeline on one source unit:
// scan, dedup, merge into the source catalog, rewrite, backfill the target
// catalog, snapshot and persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/minios-linux/hanlift/catalog"
	"github.com/minios-linux/hanlift/merge"
	"github.com/minios-linux/hanlift/rewrite"
	"github.com/minios-linux/hanlift/scan"
	"github.com/minios-linux/hanlift/translate"
)

// Logger is the logger used by package pipeline.
var Logger zerolog.Logger = log.With().Str("sys", "pipeline").Logger()

// ErrSourceMissing reports a source unit that does not exist.
var ErrSourceMissing = errors.New("source file not found")

func catalogPath(dir, locale string) string {
	return filepath.Join(dir, locale+".json")
}

// Options configures a Run.
type Options struct {
	// Loose selects loose scanning with containment collapse. Loose runs
	// only seed the source catalog; the unit is never rewritten.
	Loose bool

	// Marker and Fallback derive the namespace, see catalog.Namespace.
	Marker   string
	Fallback string

	Rewrite rewrite.Options
	// Translator fills the target catalog. Nil copies source texts.
	Translator translate.Translator

	NoRewrite        bool
	NoTranslate      bool
	RetranslateStale bool
	// DryRun computes everything and writes nothing.
	DryRun bool
}

// Report describes one Run.
type Report struct {
	Path      string
	Namespace string
	// Found counts literal occurrences; Unique counts distinct texts kept.
	Found  int
	Unique int

	Merge     merge.Result
	Rewrite   rewrite.Result
	Translate translate.Report

	// Version is the archived version number, 0 when none was written.
	Version       int
	SourceWritten bool
	DryRun        bool
}

// Changed reports whether the run modified a catalog or the unit.
func (r *Report) Changed() bool {
	return r.Merge.Changed() || r.Translate.Changed() || r.Rewrite.Changed()
}

// Run processes the unit at path against ws. A missing unit fails with
// ErrSourceMissing before anything is touched. Per-literal and per-call
// problems are logged and absorbed; only reading the unit, a corrupt
// catalog or a failed write abort the run.
func Run(ctx context.Context, ws *Workspace, path string, opts Options) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	src := string(data)

	if opts.Marker == "" {
		opts.Marker = "pages"
	}
	if opts.Fallback == "" {
		opts.Fallback = opts.Marker
	}

	rep := &Report{Path: path, DryRun: opts.DryRun}
	plog := Logger.With().Str("file", path).Logger()

	// Scan and dedup
	var all, uniq []scan.Literal
	if opts.Loose {
		all = scan.Loose(src)
		uniq = scan.Collapse(all)
	} else {
		all = scan.Strict(src)
		uniq = scan.Unique(all)
	}
	rep.Found, rep.Unique = len(all), len(uniq)

	// Catalog branch
	ns := catalog.Namespace(path, opts.Marker, opts.Fallback)
	rep.Namespace = catalog.JoinKey(ns)
	texts := scan.Texts(uniq)
	rep.Merge = merge.Literals(ws.Source, ns, texts)

	// Rewrite branch
	if !opts.Loose && !opts.NoRewrite && len(uniq) > 0 {
		keys := assignedKeys(texts, rep.Merge.Keys)
		rep.Rewrite, err = rewrite.Rewrite(src, all, keys, opts.Rewrite)
		if err != nil {
			return rep, fmt.Errorf("rewriting %s: %w", path, err)
		}
		for _, w := range rep.Rewrite.Warnings {
			plog.Warn().Msg(w)
		}
	}

	// Backfill
	if !opts.NoTranslate {
		rep.Translate, err = ws.Backfill(ctx, opts.Translator, opts.RetranslateStale)
		if err != nil {
			return rep, err
		}
	}

	plog.Info().
		Str("namespace", rep.Namespace).
		Int("found", rep.Found).
		Int("unique", rep.Unique).
		Int("added", rep.Merge.Added).
		Int("conflicts", rep.Merge.Conflicts).
		Int("replaced", rep.Rewrite.Replaced).
		Int("translated", rep.Translate.Translated).
		Int("fallbacks", rep.Translate.Fallbacks).
		Int("calls", rep.Translate.Calls).
		Bool("dry_run", opts.DryRun).
		Msg("Processed unit")

	if opts.DryRun {
		return rep, nil
	}

	snap, err := ws.Commit()
	if snap != nil {
		rep.Version = snap.Index
	}
	if err != nil {
		return rep, err
	}

	if rep.Rewrite.Changed() && rep.Rewrite.Text != src {
		if err := atomic.WriteFile(path, strings.NewReader(rep.Rewrite.Text)); err != nil {
			return rep, fmt.Errorf("writing %s: %w", path, err)
		}
		rep.SourceWritten = true
	}

	return rep, nil
}

// assignedKeys maps each text to the key merge assigned it. A literal is
// rewritten to its assigned key even when that key conflicts, so that the
// unit holds no literal after the run; the conflict is reported by merge.
func assignedKeys(texts, keys []string) map[string]string {
	out := make(map[string]string, len(texts))
	for i, text := range texts {
		out[text] = keys[i]
	}
	return out
}
