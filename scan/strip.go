// Package scan finds natural-language (Han script) literals in JavaScript,
// TypeScript and JSX source text.
//
// Scanning never runs on the raw text. Comments are first removed into a
// Stripped copy, literals are matched there, and every match offset is
// projected back onto the original text with Stripped.ToOriginal. All
// Literal positions returned by this package are offsets into the original
// text, so callers never see the stripped coordinate space.
//
// This is not a parser. It recognises a narrow set of literal forms:
// quoted strings ('...', "...", `...`) and markup text between a '>' and a
// closing '</' or an opening '{'. Anything else is left alone.
package scan

import (
	"sort"
	"strings"
)

// Stripped is a comment-free copy of a source text together with the
// projection from its offsets back onto the original text.
type Stripped struct {
	// Text is the source with all comments removed.
	Text string

	cuts []cut
}

// cut records one removed comment. at is the offset in the stripped text
// where the comment used to start; removed is the running total of bytes
// removed up to and including this comment.
type cut struct {
	at      int
	removed int
}

// Strip removes line comments (// to end of line, newline kept) and block
// comments (/* ... */ and /** ... */, non-greedy) from src.
//
// Comment openers inside quoted strings are not comments. A '...' or "..."
// string ends at its closing quote or at the end of the line; a `...`
// string may span lines. A "//" directly preceded by ':' is kept so that
// URLs in markup text survive. An unterminated "/*" is left in place.
func Strip(src string) *Stripped {
	var b strings.Builder
	b.Grow(len(src))

	s := &Stripped{}
	removed := 0
	i := 0

	for i < len(src) {
		j := nextComment(src, i)
		if j < 0 {
			b.WriteString(src[i:])
			break
		}
		b.WriteString(src[i:j])

		var end int
		if src[j+1] == '*' {
			k := strings.Index(src[j+2:], "*/")
			if k < 0 {
				b.WriteString(src[j : j+2])
				i = j + 2
				continue
			}
			end = j + 2 + k + 2
		} else {
			end = len(src)
			if k := strings.IndexByte(src[j:], '\n'); k >= 0 {
				end = j + k
			}
		}

		removed += end - j
		s.cuts = append(s.cuts, cut{at: b.Len(), removed: removed})
		i = end
	}

	s.Text = b.String()
	return s
}

// nextComment returns the offset of the next comment opener at or after
// from that is not inside a quoted string, or -1.
func nextComment(src string, from int) int {
	for i := from; i+1 < len(src); i++ {
		switch src[i] {
		case '\'', '"', '`':
			i = skipString(src, i)
		case '/':
			switch src[i+1] {
			case '*':
				return i
			case '/':
				if i > 0 && src[i-1] == ':' {
					i++
					continue
				}
				return i
			}
		}
	}
	return -1
}

// skipString returns the offset of the quote closing the string opened at
// q. A backslash escapes the next byte. An unclosed '...' or "..." string
// stops before the line break; an unclosed `...` runs to the end of src.
func skipString(src string, q int) int {
	quote := src[q]
	for i := q + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i
		case '\n':
			if quote != '`' {
				return i - 1
			}
		}
	}
	return len(src)
}

// ToOriginal maps an offset in s.Text onto the original text. An offset
// that sits exactly where a comment was removed maps to the first byte
// after that comment.
func (s *Stripped) ToOriginal(off int) int {
	n := sort.Search(len(s.cuts), func(k int) bool { return s.cuts[k].at > off })
	if n == 0 {
		return off
	}
	return off + s.cuts[n-1].removed
}

// Contiguous reports whether no comment was removed from inside the span
// [start, end) of s.Text.
func (s *Stripped) Contiguous(start, end int) bool {
	o1, o2 := s.SpanToOriginal(start, end)
	return o2-o1 == end-start
}

// SpanToOriginal maps the half-open span [start, end) of s.Text onto the
// original text. The end is projected from its last byte so that a comment
// directly after the span is not swallowed into it.
func (s *Stripped) SpanToOriginal(start, end int) (int, int) {
	if end <= start {
		o := s.ToOriginal(start)
		return o, o
	}
	return s.ToOriginal(start), s.ToOriginal(end-1) + 1
}
