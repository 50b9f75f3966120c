// Package handoff exchanges catalog contents with human translators.
//
// Two formats are supported: a pipe-delimited table with one row per key
// (key|source|target), which opens in any spreadsheet, and a gettext PO
// file whose msgids are the dotted catalog keys, for PO editors.
// Translations coming back in either format are applied to the
// target-locale catalog.
package handoff

import (
	"github.com/minios-linux/hanlift/catalog"
)

// Row is one catalog key with its source and target text.
type Row struct {
	Key    string
	Source string
	Target string
}

// Rows lists every source leaf with the matching target value, or "" when
// the target has none, in source document order.
func Rows(src, dst *catalog.Catalog) []Row {
	leaves := src.Leaves()
	rows := make([]Row, 0, len(leaves))
	for _, l := range leaves {
		target, _ := dst.GetPath(l.Path)
		rows = append(rows, Row{Key: l.Key(), Source: l.Value, Target: target})
	}
	return rows
}

// ApplyReport describes what Apply changed.
type ApplyReport struct {
	// Updated lists the keys whose target value changed, in source order.
	Updated []string
	// Unchanged counts keys whose incoming value equals the current one.
	Unchanged int
	// Unknown counts incoming keys that are not source leaves.
	Unknown int
}

// Apply stores the incoming translations (key -> text) in dst. Only keys
// that exist as source leaves are applied; empty texts are ignored.
// Incoming values replace existing ones, as they are explicit edits.
func Apply(src, dst *catalog.Catalog, translations map[string]string) (ApplyReport, error) {
	var rep ApplyReport
	known := make(map[string]bool)

	for _, l := range src.Leaves() {
		key := l.Key()
		known[key] = true

		text, ok := translations[key]
		if !ok || text == "" {
			continue
		}
		if cur, _ := dst.GetPath(l.Path); cur == text {
			rep.Unchanged++
			continue
		}
		if err := dst.SetPath(l.Path, text); err != nil {
			return rep, err
		}
		rep.Updated = append(rep.Updated, key)
	}

	for key := range translations {
		if !known[key] {
			rep.Unknown++
		}
	}
	return rep, nil
}
