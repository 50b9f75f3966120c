package pipeline

import (
	"context"
	"fmt"

	"github.com/minios-linux/hanlift/catalog"
	"github.com/minios-linux/hanlift/handoff"
	"github.com/minios-linux/hanlift/lockfile"
	"github.com/minios-linux/hanlift/translate"
	"github.com/minios-linux/hanlift/version"
)

// Workspace is the persisted state below the output directory: the source
// and target catalogs, the lock file and the version history. Catalogs are
// edited in memory and written back by Commit.
type Workspace struct {
	Dir          string
	SourceLocale string
	TargetLocale string

	Source   *catalog.Catalog
	Target   *catalog.Catalog
	Lock     *lockfile.LockFile
	Versions *version.Store

	origSource *catalog.Catalog
	origTarget *catalog.Catalog
	lockDirty  bool
}

// Open loads the workspace in dir. Missing files yield empty catalogs and
// an empty lock; an unparsable catalog fails with catalog.ErrCorrupt.
func Open(dir, sourceLocale, targetLocale string) (*Workspace, error) {
	w := &Workspace{
		Dir:          dir,
		SourceLocale: sourceLocale,
		TargetLocale: targetLocale,
		Versions:     version.NewStore(dir),
	}

	var err error
	if w.Source, err = catalog.Load(w.CatalogPath(sourceLocale)); err != nil {
		return nil, err
	}
	if w.Target, err = catalog.Load(w.CatalogPath(targetLocale)); err != nil {
		return nil, err
	}
	if w.Lock, err = lockfile.Load(dir); err != nil {
		return nil, err
	}

	w.origSource = w.Source.Clone()
	w.origTarget = w.Target.Clone()
	return w, nil
}

// CatalogPath returns the catalog file of locale.
func (w *Workspace) CatalogPath(locale string) string {
	return catalogPath(w.Dir, locale)
}

// SourceChanged reports whether the source catalog differs from disk.
func (w *Workspace) SourceChanged() bool { return !w.Source.Equal(w.origSource) }

// TargetChanged reports whether the target catalog differs from disk.
func (w *Workspace) TargetChanged() bool { return !w.Target.Equal(w.origTarget) }

// Changed reports whether either catalog differs from disk.
func (w *Workspace) Changed() bool { return w.SourceChanged() || w.TargetChanged() }

// ---------------------------------------------------------------------------
// Translation
// ---------------------------------------------------------------------------

// Backfill fills missing target values from the source catalog and records
// the source checksum of every translated value in the lock. With
// retranslateStale, values whose source text changed since they were
// translated are translated again.
func (w *Workspace) Backfill(ctx context.Context, tr translate.Translator, retranslateStale bool) (translate.Report, error) {
	var opts translate.BackfillOptions
	if retranslateStale {
		opts.Retranslate = func(key, source string) bool {
			return w.Lock.IsStale(w.TargetLocale, key, source)
		}
	}

	rep, err := translate.Backfill(ctx, w.Source, w.Target, tr, opts)

	for _, e := range rep.Entries {
		if e.Fallback {
			w.Lock.Forget(w.TargetLocale, e.Key)
		} else {
			w.Lock.Update(w.TargetLocale, e.Key, e.Source)
		}
		w.lockDirty = true
	}
	if w.Lock.Clean(w.TargetLocale, w.sourceKeys()) > 0 {
		w.lockDirty = true
	}
	return rep, err
}

// Import stores translations edited outside the tool. Updated values are
// recorded in the lock as translated from the current source text.
func (w *Workspace) Import(translations map[string]string) (handoff.ApplyReport, error) {
	rep, err := handoff.Apply(w.Source, w.Target, translations)
	if err != nil {
		return rep, err
	}
	for _, key := range rep.Updated {
		src, _ := w.Source.Get(key)
		w.Lock.Update(w.TargetLocale, key, src)
		w.lockDirty = true
	}
	return rep, nil
}

func (w *Workspace) sourceKeys() []string {
	leaves := w.Source.Leaves()
	keys := make([]string, len(leaves))
	for i, l := range leaves {
		keys[i] = l.Key()
	}
	return keys
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// Commit persists the workspace. When a catalog changed it archives both
// catalogs as a new version first, then writes the source catalog, the
// target catalog and the lock file, in that order. It returns the new
// version, or nil when no catalog changed.
func (w *Workspace) Commit() (*version.Snapshot, error) {
	srcChanged, tgtChanged := w.SourceChanged(), w.TargetChanged()

	var snap *version.Snapshot
	if srcChanged || tgtChanged {
		var err error
		snap, err = w.Versions.Write([]version.Change{
			{Locale: w.SourceLocale, Old: w.origSource, New: w.Source},
			{Locale: w.TargetLocale, Old: w.origTarget, New: w.Target},
		})
		if err != nil {
			return nil, fmt.Errorf("writing version snapshot: %w", err)
		}
	}

	if srcChanged {
		if err := w.Source.Save(w.CatalogPath(w.SourceLocale)); err != nil {
			return snap, err
		}
		w.origSource = w.Source.Clone()
	}
	if tgtChanged {
		if err := w.Target.Save(w.CatalogPath(w.TargetLocale)); err != nil {
			return snap, err
		}
		w.origTarget = w.Target.Clone()
	}
	if w.lockDirty {
		if err := w.Lock.Save(); err != nil {
			return snap, err
		}
		w.lockDirty = false
	}

	return snap, nil
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status summarizes the workspace.
type Status struct {
	SourceLocale string
	TargetLocale string
	SourceLeaves int
	TargetLeaves int
	// Missing lists source keys without a target value, in source order.
	Missing []string
	// Stale lists target keys translated from an older source text, sorted.
	Stale []string
	// Untracked lists target keys whose value the lock does not record as
	// translated, such as source copies, in source order.
	Untracked []string
	Versions  int
	Lock      string
	LockPath  string
}

// Status reports leaf counts, missing, stale and untracked target keys and
// the number of archived versions.
func (w *Workspace) Status() (Status, error) {
	st := Status{
		SourceLocale: w.SourceLocale,
		TargetLocale: w.TargetLocale,
		SourceLeaves: w.Source.Len(),
		TargetLeaves: w.Target.Len(),
		Lock:         w.Lock.Summary(),
		LockPath:     w.Lock.Path(),
	}

	present := make(map[string]string)
	for _, l := range w.Source.Leaves() {
		if l.Value == "" {
			continue
		}
		if !w.Target.Has(l.Path) {
			st.Missing = append(st.Missing, l.Key())
			continue
		}
		present[l.Key()] = l.Value
		if w.Lock.IsChanged(w.TargetLocale, l.Key(), l.Value) &&
			!w.Lock.IsStale(w.TargetLocale, l.Key(), l.Value) {
			st.Untracked = append(st.Untracked, l.Key())
		}
	}
	st.Stale = w.Lock.Stale(w.TargetLocale, present)

	idx, err := w.Versions.Indexes()
	if err != nil {
		return st, err
	}
	st.Versions = len(idx)
	return st, nil
}
