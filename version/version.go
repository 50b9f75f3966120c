// Package version keeps the append-only history of catalog changes.
//
// Every pipeline run that changes a catalog archives the state before and
// after the change, and the structural diff between them, in a new
// integer-named directory next to the live catalogs:
//
//	scripts/files/
//	  zh-CN.json
//	  en-US.json
//	  1/
//	    old.zh-CN.json  new.zh-CN.json  diff.zh-CN.json
//	    old.en-US.json  new.en-US.json  diff.en-US.json
//	  2/
//	    ...
//
// Snapshot directories are never modified after they are written.
package version

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/minios-linux/hanlift/catalog"
)

// Logger is the logger used by package version.
var Logger zerolog.Logger = log.With().Str("sys", "version").Logger()

// ErrNotFound reports a version number without a snapshot directory.
var ErrNotFound = errors.New("version not found")

// maxAllocAttempts bounds the retries when another process takes the
// same number first.
const maxAllocAttempts = 16

// Change is the before and after state of one locale's catalog.
type Change struct {
	Locale string
	Old    *catalog.Catalog
	New    *catalog.Catalog
}

// Snapshot is one archived version.
type Snapshot struct {
	Index int
	Dir   string
	// Locales lists the archived locales in the order they were written.
	Locales []string
	Old     map[string]*catalog.Catalog
	New     map[string]*catalog.Catalog
	Diff    map[string]*catalog.Catalog
}

// Changes returns the number of leaves recorded in the diff of locale.
func (s *Snapshot) Changes(locale string) int {
	d, ok := s.Diff[locale]
	if !ok {
		return 0
	}
	return catalog.Changes(d)
}

// Store manages the version directories below Dir.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at dir, the catalog output directory.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Indexes returns the existing version numbers in ascending order.
// Directory entries whose names are not positive integers are ignored.
func (s *Store) Indexes() ([]int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.Dir, err)
	}

	var out []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil || n <= 0 || strconv.Itoa(n) != e.Name() {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// Next returns the number the next snapshot would get: one more than the
// highest existing number, or 1.
func (s *Store) Next() (int, error) {
	idx, err := s.Indexes()
	if err != nil {
		return 0, err
	}
	if len(idx) == 0 {
		return 1, nil
	}
	return idx[len(idx)-1] + 1, nil
}

// allocate creates the directory of the next version. Creation is the
// claim, so concurrent writers never share a number.
func (s *Store) allocate() (int, string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return 0, "", fmt.Errorf("creating %s: %w", s.Dir, err)
	}

	for attempt := 0; attempt < maxAllocAttempts; attempt++ {
		n, err := s.Next()
		if err != nil {
			return 0, "", err
		}
		dir := filepath.Join(s.Dir, strconv.Itoa(n))
		err = os.Mkdir(dir, 0755)
		if err == nil {
			return n, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return 0, "", fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return 0, "", fmt.Errorf("could not allocate a version directory in %s", s.Dir)
}

// Write archives changes as a new version and returns it. For each change
// it writes old.<locale>.json, new.<locale>.json and diff.<locale>.json.
func (s *Store) Write(changes []Change) (*Snapshot, error) {
	n, dir, err := s.allocate()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Index: n,
		Dir:   dir,
		Old:   make(map[string]*catalog.Catalog),
		New:   make(map[string]*catalog.Catalog),
		Diff:  make(map[string]*catalog.Catalog),
	}

	for _, ch := range changes {
		old, cur := ch.Old, ch.New
		if old == nil {
			old = catalog.New()
		}
		if cur == nil {
			cur = catalog.New()
		}
		diff := catalog.Diff(old, cur)

		for _, f := range []struct {
			prefix string
			c      *catalog.Catalog
		}{{"old", old}, {"new", cur}, {"diff", diff}} {
			if err := f.c.Save(filepath.Join(dir, artifactName(f.prefix, ch.Locale))); err != nil {
				return nil, err
			}
		}

		snap.Locales = append(snap.Locales, ch.Locale)
		snap.Old[ch.Locale] = old
		snap.New[ch.Locale] = cur
		snap.Diff[ch.Locale] = diff

		Logger.Debug().
			Int("version", n).
			Str("locale", ch.Locale).
			Int("changes", catalog.Changes(diff)).
			Msg("Archived catalog")
	}

	Logger.Info().Int("version", n).Str("dir", dir).Msg("Wrote version snapshot")
	return snap, nil
}

func artifactName(prefix, locale string) string {
	return prefix + "." + locale + ".json"
}

// Load reads the snapshot with number n.
func (s *Store) Load(n int) (*Snapshot, error) {
	dir := filepath.Join(s.Dir, strconv.Itoa(n))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, n)
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	snap := &Snapshot{
		Index: n,
		Dir:   dir,
		Old:   make(map[string]*catalog.Catalog),
		New:   make(map[string]*catalog.Catalog),
		Diff:  make(map[string]*catalog.Catalog),
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		prefix, locale, ok := parseArtifact(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		c, err := catalog.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		switch prefix {
		case "old":
			snap.Old[locale] = c
		case "new":
			snap.New[locale] = c
		case "diff":
			snap.Diff[locale] = c
		}
		if !seen[locale] {
			seen[locale] = true
			snap.Locales = append(snap.Locales, locale)
		}
	}
	sort.Strings(snap.Locales)
	return snap, nil
}

// parseArtifact splits "diff.en-US.json" into ("diff", "en-US").
func parseArtifact(name string) (prefix, locale string, ok bool) {
	if !strings.HasSuffix(name, ".json") {
		return "", "", false
	}
	base := strings.TrimSuffix(name, ".json")
	prefix, locale, ok = strings.Cut(base, ".")
	if !ok || locale == "" {
		return "", "", false
	}
	switch prefix {
	case "old", "new", "diff":
		return prefix, locale, true
	}
	return "", "", false
}

// List loads every snapshot in ascending order.
func (s *Store) List() ([]*Snapshot, error) {
	idx, err := s.Indexes()
	if err != nil {
		return nil, err
	}
	out := make([]*Snapshot, 0, len(idx))
	for _, n := range idx {
		snap, err := s.Load(n)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}
