// Package catalog implements the per-locale translation catalog: a nested
// JSON object whose leaves are translated strings.
//
// The expected file format is:
//
//	{
//	  "pages": {
//	    "foo": {
//	      "index_0": "你好世界",
//	      "index_1": "再见"
//	    }
//	  }
//	}
//
// Key order is preserved from the file so that a catalog read and written
// back without changes is byte-identical. Leaves that are not strings
// (numbers, booleans, arrays, null) are carried through verbatim and are
// never treated as translations.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the logger used by package catalog.
var Logger zerolog.Logger = log.With().Str("sys", "catalog").Logger()

var (
	// ErrCorrupt reports an existing catalog that cannot be parsed. Callers
	// must abort rather than continue with an empty catalog.
	ErrCorrupt = errors.New("corrupt catalog")
	// ErrNotObject reports a key path that runs through a leaf.
	ErrNotObject = errors.New("key path traverses a leaf")
	// ErrNotLeaf reports an attempt to store a string over a subtree.
	ErrNotLeaf = errors.New("key names a subtree")
)

// Catalog is an ordered JSON object. The zero value is not usable; use New.
type Catalog struct {
	keys    []string
	entries map[string]*entry
}

// entry is either a nested object, a string leaf or a raw non-string leaf.
type entry struct {
	obj *Catalog
	str string
	raw json.RawMessage
}

func (e *entry) isObject() bool { return e.obj != nil }
func (e *entry) isString() bool { return e.obj == nil && e.raw == nil }

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]*entry)}
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// Load reads a catalog file. A missing file yields an empty catalog; an
// unparsable one yields an error wrapping ErrCorrupt.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			Logger.Debug().Str("file", path).Msg("Catalog not found, starting empty")
			return New(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	Logger.Debug().Str("file", path).Int("leaves", c.Len()).Msg("Loaded catalog")
	return c, nil
}

// Parse parses catalog JSON. Blank input is an empty catalog. Anything that
// is not a single JSON object yields an error wrapping ErrCorrupt.
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrCorrupt)
	}

	c, err := parseObject(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrCorrupt)
	}
	return c, nil
}

// parseObject reads the members of an object whose opening brace has
// already been consumed, up to and including the closing brace.
func parseObject(dec *json.Decoder) (*Catalog, error) {
	c := New()

	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}

		e, err := parseValue(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if _, dup := c.entries[key]; !dup {
			c.keys = append(c.keys, key)
		}
		c.entries[key] = e
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseValue(dec *json.Decoder) (*entry, error) {
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := t.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj, err := parseObject(dec)
			if err != nil {
				return nil, err
			}
			return &entry{obj: obj}, nil
		case '[':
			raw, err := readArray(dec)
			if err != nil {
				return nil, err
			}
			return &entry{raw: raw}, nil
		}
		return nil, fmt.Errorf("unexpected %v", v)
	case string:
		return &entry{str: v}, nil
	case json.Number:
		return &entry{raw: json.RawMessage(v.String())}, nil
	case bool:
		if v {
			return &entry{raw: json.RawMessage("true")}, nil
		}
		return &entry{raw: json.RawMessage("false")}, nil
	case nil:
		return &entry{raw: json.RawMessage("null")}, nil
	}
	return nil, fmt.Errorf("unexpected token %T", t)
}

// readArray re-encodes an array whose opening bracket has been consumed
// into compact JSON.
func readArray(dec *json.Decoder) (json.RawMessage, error) {
	var b bytes.Buffer
	b.WriteByte('[')
	first := true
	for dec.More() {
		if !first {
			b.WriteByte(',')
		}
		first = false

		e, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		switch {
		case e.isObject():
			b.Write(e.obj.marshalCompact())
		case e.raw != nil:
			b.Write(e.raw)
		default:
			b.WriteString(jsonString(e.str))
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal renders the catalog with 2-space indentation, preserving key
// order, followed by a newline. Non-ASCII text and HTML characters are
// written unescaped.
func (c *Catalog) Marshal() []byte {
	var b strings.Builder
	c.writeIndented(&b, 0)
	b.WriteByte('\n')
	return []byte(b.String())
}

func (c *Catalog) writeIndented(b *strings.Builder, depth int) {
	if len(c.keys) == 0 {
		b.WriteString("{}")
		return
	}

	pad := strings.Repeat("  ", depth+1)
	b.WriteString("{\n")
	for i, k := range c.keys {
		e := c.entries[k]
		b.WriteString(pad)
		b.WriteString(jsonString(k))
		b.WriteString(": ")
		switch {
		case e.isObject():
			e.obj.writeIndented(b, depth+1)
		case e.raw != nil:
			b.Write(e.raw)
		default:
			b.WriteString(jsonString(e.str))
		}
		if i < len(c.keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteByte('}')
}

func (c *Catalog) marshalCompact() []byte {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		e := c.entries[k]
		b.WriteString(jsonString(k))
		b.WriteByte(':')
		switch {
		case e.isObject():
			b.Write(e.obj.marshalCompact())
		case e.raw != nil:
			b.Write(e.raw)
		default:
			b.WriteString(jsonString(e.str))
		}
	}
	b.WriteByte('}')
	return b.Bytes()
}

// Save writes the catalog to path, replacing the file as a whole.
func (c *Catalog) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(c.Marshal())); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	Logger.Debug().Str("file", path).Int("leaves", c.Len()).Msg("Saved catalog")
	return nil
}

// jsonString returns s as a JSON string literal without HTML escaping.
func jsonString(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	return strings.TrimSuffix(b.String(), "\n")
}
