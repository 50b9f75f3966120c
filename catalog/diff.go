package catalog

import (
	"bytes"
	"encoding/json"
)

var nullValue = json.RawMessage("null")

// Diff returns the structural difference between old and cur as a catalog
// of the same shape. Leaves that were added or changed carry their new
// value; leaves that were removed carry JSON null. Subtrees without
// differences are omitted, so identical inputs produce an empty catalog.
func Diff(old, cur *Catalog) *Catalog {
	return diffObjects(old, cur)
}

// diffObjects compares two objects, either of which may be nil (absent).
// Members of cur come first in cur's order, then members only in old.
func diffObjects(old, cur *Catalog) *Catalog {
	out := New()

	if cur != nil {
		for _, k := range cur.keys {
			var oe *entry
			if old != nil {
				oe = old.entries[k]
			}
			if d := diffEntry(oe, cur.entries[k]); d != nil {
				out.put(k, d)
			}
		}
	}
	if old != nil {
		for _, k := range old.keys {
			if cur != nil {
				if _, ok := cur.entries[k]; ok {
					continue
				}
			}
			if d := diffEntry(old.entries[k], nil); d != nil {
				out.put(k, d)
			}
		}
	}
	return out
}

// diffEntry returns the diff of one member, or nil when there is none.
func diffEntry(old, cur *entry) *entry {
	switch {
	case cur == nil && old == nil:
		return nil

	case cur == nil:
		if old.isObject() {
			return nonEmpty(diffObjects(old.obj, nil))
		}
		return &entry{raw: nullValue}

	case cur.isObject():
		var oldObj *Catalog
		if old != nil && old.isObject() {
			oldObj = old.obj
		}
		return nonEmpty(diffObjects(oldObj, cur.obj))

	default:
		if old != nil && !old.isObject() && sameLeaf(old, cur) {
			return nil
		}
		ce := &entry{str: cur.str}
		if cur.raw != nil {
			ce.raw = append([]byte(nil), cur.raw...)
		}
		return ce
	}
}

func nonEmpty(c *Catalog) *entry {
	if c.Empty() {
		return nil
	}
	return &entry{obj: c}
}

func sameLeaf(a, b *entry) bool {
	if a.isString() != b.isString() {
		return false
	}
	if a.isString() {
		return a.str == b.str
	}
	return bytes.Equal(a.raw, b.raw)
}

// Changes counts the leaves recorded in a diff, including removals.
func Changes(diff *Catalog) int {
	n := 0
	for _, k := range diff.keys {
		e := diff.entries[k]
		if e.isObject() {
			n += Changes(e.obj)
		} else {
			n++
		}
	}
	return n
}
