// Package rewrite replaces scanned literals in a source unit with calls to
// the translation accessor and makes sure the accessor is imported and
// declared.
//
// A unit such as
//
//	const Foo: React.FC = () => {
//	  return <h2 title="再见">你好世界</h2>;
//	};
//
// becomes
//
//	import { useTranslation } from 'react-i18next';
//	const Foo: React.FC = () => {
//	  const { t } = useTranslation();
//
//	  return <h2 title={t('pages.foo.index_1')}>{t('pages.foo.index_0')}</h2>;
//	};
package rewrite

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/minios-linux/hanlift/scan"
)

// Logger is the logger used by package rewrite.
var Logger zerolog.Logger = log.With().Str("sys", "rewrite").Logger()

// ErrOutOfSync reports a literal whose recorded span no longer matches the
// source text it is applied to.
var ErrOutOfSync = errors.New("literal does not match source")

// Options names the accessor the rewritten source calls.
type Options struct {
	// Func is the accessor function, e.g. "t".
	Func string
	// Hook is the function returning the accessor, e.g. "useTranslation".
	Hook string
	// Module is the module exporting Hook, e.g. "react-i18next".
	Module string
}

// DefaultOptions returns the react-i18next accessor setup.
func DefaultOptions() Options {
	return Options{Func: "t", Hook: "useTranslation", Module: "react-i18next"}
}

// Result is the outcome of rewriting one unit.
type Result struct {
	Text        string
	Replaced    int
	ImportAdded bool
	DeclAdded   bool
	// Warnings lists recoverable problems; the replacements are kept.
	Warnings []string
}

// Changed reports whether the text differs from the input.
func (r Result) Changed() bool {
	return r.Replaced > 0 || r.ImportAdded || r.DeclAdded
}

// Rewrite replaces every literal of lits whose Text has a key in keys with
// an accessor call, then inserts the import and the accessor declaration
// when they are missing. Literals without a key are left untouched.
//
// lits must come from scanning src itself; offsets are checked against src
// and a mismatch fails with ErrOutOfSync before anything is changed.
func Rewrite(src string, lits []scan.Literal, keys map[string]string, opts Options) (Result, error) {
	if opts.Func == "" {
		opts = DefaultOptions()
	}

	var todo []scan.Literal
	for _, l := range lits {
		if _, ok := keys[l.Text]; !ok {
			continue
		}
		if l.Pos < 0 || l.End() > len(src) || src[l.Pos:l.End()] != l.Original {
			return Result{}, fmt.Errorf("%w: %q at offset %d", ErrOutOfSync, l.Original, l.Pos)
		}
		todo = append(todo, l)
	}

	// Back to front so earlier offsets stay valid.
	sort.SliceStable(todo, func(i, j int) bool { return todo[i].Pos > todo[j].Pos })

	res := Result{}
	var b strings.Builder
	text := src
	limit := len(src)
	for _, l := range todo {
		if l.End() > limit {
			res.Warnings = append(res.Warnings, fmt.Sprintf("skipped overlapping literal %q at offset %d", l.Text, l.Pos))
			continue
		}
		b.Reset()
		b.WriteString(text[:l.Pos])
		b.WriteString(replacement(l.Context, opts.Func, keys[l.Text]))
		b.WriteString(text[l.End():])
		text = b.String()
		limit = l.Pos
		res.Replaced++

		Logger.Debug().
			Str("key", keys[l.Text]).
			Str("text", l.Text).
			Stringer("context", l.Context).
			Msg("Replaced literal")
	}

	if res.Replaced == 0 {
		res.Text = src
		return res, nil
	}

	if !hasImport(text, opts) {
		text = addImport(text, opts)
		res.ImportAdded = true
	}

	if !hasDeclaration(text, opts) {
		var ok bool
		text, ok = addDeclaration(text, opts)
		if ok {
			res.DeclAdded = true
		} else {
			res.Warnings = append(res.Warnings, "component declaration not found, accessor declaration not added")
		}
	}

	res.Text = text
	return res, nil
}

// replacement renders the accessor call for a literal in context c.
func replacement(c scan.Context, fn, key string) string {
	call := fn + "('" + escapeKey(key) + "')"
	switch c {
	case scan.QuotedAttribute, scan.MarkupText:
		return "{" + call + "}"
	default:
		return call
	}
}

// escapeKey makes key safe inside a single-quoted string.
func escapeKey(key string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(key)
}
