package catalog

import (
	"bytes"
	"fmt"
	"strings"
)

// Separator joins key path segments into a dotted key.
const Separator = "."

// SplitKey splits a dotted key into its path segments.
func SplitKey(key string) []string {
	return strings.Split(key, Separator)
}

// JoinKey joins path segments into a dotted key.
func JoinKey(path []string) string {
	return strings.Join(path, Separator)
}

// Leaf is one string value of a catalog together with its path.
type Leaf struct {
	Path  []string
	Value string
}

// Key returns the dotted form of the leaf's path.
func (l Leaf) Key() string { return JoinKey(l.Path) }

// lookup returns the entry at path, or nil.
func (c *Catalog) lookup(path []string) *entry {
	cur := c
	for i, seg := range path {
		e, ok := cur.entries[seg]
		if !ok {
			return nil
		}
		if i == len(path)-1 {
			return e
		}
		if !e.isObject() {
			return nil
		}
		cur = e.obj
	}
	return nil
}

// Get returns the string value at a dotted key.
func (c *Catalog) Get(key string) (string, bool) {
	return c.GetPath(SplitKey(key))
}

// GetPath returns the string value at path. Subtrees and non-string leaves
// report false.
func (c *Catalog) GetPath(path []string) (string, bool) {
	e := c.lookup(path)
	if e == nil || !e.isString() {
		return "", false
	}
	return e.str, true
}

// Has reports whether a non-empty string value exists at path. Empty
// strings count as missing translations.
func (c *Catalog) Has(path []string) bool {
	v, ok := c.GetPath(path)
	return ok && v != ""
}

// Set stores value at a dotted key, creating intermediate objects.
func (c *Catalog) Set(key, value string) error {
	return c.SetPath(SplitKey(key), value)
}

// SetPath stores value at path, creating intermediate objects as needed.
// An existing leaf value is replaced. It fails with ErrNotObject when an
// intermediate segment is a leaf and with ErrNotLeaf when path names a
// subtree.
func (c *Catalog) SetPath(path []string, value string) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty key", ErrNotLeaf)
	}

	cur := c
	for i, seg := range path[:len(path)-1] {
		e, ok := cur.entries[seg]
		if !ok {
			e = &entry{obj: New()}
			cur.put(seg, e)
		} else if !e.isObject() {
			return fmt.Errorf("%w: %s", ErrNotObject, JoinKey(path[:i+1]))
		}
		cur = e.obj
	}

	last := path[len(path)-1]
	if e, ok := cur.entries[last]; ok && e.isObject() {
		return fmt.Errorf("%w: %s", ErrNotLeaf, JoinKey(path))
	}
	cur.put(last, &entry{str: value})
	return nil
}

// SetIfAbsent stores value at path only when no non-empty string is there
// yet. It reports whether the value was written; a path blocked by a leaf
// or naming a subtree is left alone and reports false.
func (c *Catalog) SetIfAbsent(path []string, value string) bool {
	if c.Has(path) {
		return false
	}
	return c.SetPath(path, value) == nil
}

// put inserts or replaces a member, appending new keys at the end.
func (c *Catalog) put(key string, e *entry) {
	if _, ok := c.entries[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.entries[key] = e
}

// Walk calls fn for every string leaf in document order. Walking stops at
// the first error, which is returned.
func (c *Catalog) Walk(fn func(path []string, value string) error) error {
	return c.walk(nil, fn)
}

func (c *Catalog) walk(prefix []string, fn func([]string, string) error) error {
	for _, k := range c.keys {
		e := c.entries[k]
		path := append(append([]string(nil), prefix...), k)
		switch {
		case e.isObject():
			if err := e.obj.walk(path, fn); err != nil {
				return err
			}
		case e.isString():
			if err := fn(path, e.str); err != nil {
				return err
			}
		}
	}
	return nil
}

// Leaves returns every string leaf in document order.
func (c *Catalog) Leaves() []Leaf {
	var out []Leaf
	_ = c.Walk(func(path []string, value string) error {
		out = append(out, Leaf{Path: path, Value: value})
		return nil
	})
	return out
}

// Len returns the number of string leaves.
func (c *Catalog) Len() int {
	n := 0
	_ = c.Walk(func([]string, string) error {
		n++
		return nil
	})
	return n
}

// Clone returns a deep copy.
func (c *Catalog) Clone() *Catalog {
	out := New()
	for _, k := range c.keys {
		e := c.entries[k]
		ce := &entry{str: e.str}
		if e.isObject() {
			ce.obj = e.obj.Clone()
		}
		if e.raw != nil {
			ce.raw = append([]byte(nil), e.raw...)
		}
		out.put(k, ce)
	}
	return out
}

// Equal reports whether both catalogs render to the same document.
func (c *Catalog) Equal(other *Catalog) bool {
	return bytes.Equal(c.Marshal(), other.Marshal())
}

// Empty reports whether the catalog has no members at all.
func (c *Catalog) Empty() bool { return len(c.keys) == 0 }
