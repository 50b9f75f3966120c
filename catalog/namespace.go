package catalog

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Namespace derives the catalog namespace of a source file from its
// directory: the first directory segment equal to marker and every segment
// after it. When no segment matches, the namespace is the single segment
// fallback. The file name itself never takes part.
//
//	Namespace("src/pages/user/list/index.tsx", "pages", "pages") // [pages user list]
//	Namespace("src/components/Button.tsx", "pages", "pages")     // [pages]
func Namespace(path, marker, fallback string) []string {
	dir := filepath.ToSlash(filepath.Dir(path))
	parts := strings.Split(dir, "/")
	for i, p := range parts {
		if p == marker {
			return append([]string(nil), parts[i:]...)
		}
	}
	return []string{fallback}
}

// Key returns the positional key path of the index-th literal of a unit.
func Key(ns []string, index int) []string {
	out := make([]string, 0, len(ns)+1)
	out = append(out, ns...)
	return append(out, "index_"+strconv.Itoa(index))
}
