// Package merge implements merging of scanned literals into the
// source-locale catalog.
package merge

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/minios-linux/hanlift/catalog"
)

// Logger is the logger used by package merge.
var Logger zerolog.Logger = log.With().Str("sys", "merge").Logger()

// Result describes what a merge did to the catalog.
type Result struct {
	// Keys holds the dotted key assigned to each text, in input order.
	Keys []string
	// Added counts keys that were missing (or empty) and were written.
	Added int
	// Kept counts keys that already held the same text.
	Kept int
	// Conflicts counts keys that already held a different text; the
	// existing value is kept.
	Conflicts int
	// Blocked counts keys that could not be stored because their path
	// runs through an existing leaf.
	Blocked int
}

// Changed reports whether the merge modified the catalog.
func (r Result) Changed() bool { return r.Added > 0 }

// Literals merges the texts of one source unit into cat under namespace
// ns. The i-th text gets the key ns.index_i.
//   - A missing key is created with its text.
//   - An existing non-empty value is never overwritten, whatever it holds.
//   - An empty existing value counts as missing and is filled.
func Literals(cat *catalog.Catalog, ns []string, texts []string) Result {
	res := Result{Keys: make([]string, len(texts))}

	for i, text := range texts {
		path := catalog.Key(ns, i)
		key := catalog.JoinKey(path)
		res.Keys[i] = key

		if existing, ok := cat.GetPath(path); ok && existing != "" {
			if existing == text {
				res.Kept++
				continue
			}
			// Existing entry wins, the scanned text is dropped
			res.Conflicts++
			Logger.Warn().
				Str("key", key).
				Str("existing", existing).
				Str("text", text).
				Msg("Key already holds a different text, keeping existing value")
			continue
		}

		if !cat.SetIfAbsent(path, text) {
			res.Blocked++
			Logger.Warn().
				Str("key", key).
				Str("text", text).
				Msg("Cannot store key, path is occupied")
			continue
		}
		res.Added++
	}

	return res
}
