package scan

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Context classifies where a literal sits syntactically. It decides how the
// rewriter wraps the lookup call that replaces it.
type Context int

const (
	// PlainString is a quoted string in expression position: 'x' -> t('k').
	PlainString Context = iota
	// QuotedAttribute is a quoted string right after "name=": title="x" -> title={t('k')}.
	QuotedAttribute
	// MarkupText is bare text between tags: <h2>x</h2> -> <h2>{t('k')}</h2>.
	MarkupText
)

func (c Context) String() string {
	switch c {
	case QuotedAttribute:
		return "attribute"
	case MarkupText:
		return "markup"
	default:
		return "string"
	}
}

// Literal is one occurrence of natural-language text in a source unit.
type Literal struct {
	// Text is the trimmed, whitespace-collapsed text used as catalog value.
	Text string
	// Original is the exact span of the original source this occurrence
	// covers. For quoted literals it includes the quote delimiters.
	Original string
	// Pos is the byte offset of Original in the original source.
	Pos int
	// Context is the syntactic context of the occurrence.
	Context Context
}

// End returns the offset one past the last byte of the occurrence.
func (l Literal) End() int {
	return l.Pos + len(l.Original)
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

const (
	// hanClass is the CJK Unified Ideographs block used as target script.
	hanClass = `\x{4e00}-\x{9fa5}`
	// joinClass is what may follow the first Han character inside a run.
	joinClass = hanClass + `，。！？；：,.!?:;\s`
	// run is a Han-led run of Han characters and joining punctuation.
	run = `[` + hanClass + `][` + joinClass + `]*`
	// textClass is what markup text may contain besides Han characters.
	textClass = `[^<>{}'"` + "`" + `]`
)

var (
	// looseRe matches any Han run regardless of the surrounding syntax.
	looseRe = regexp.MustCompile(run)

	// quotedRe matches a Han run that fills a whole quoted literal. Go's
	// regexp has no back-references, so each delimiter gets its own branch.
	quotedRe = regexp.MustCompile(`'(` + run + `)'|"(` + run + `)"|` + "`(" + run + ")`")

	// markupRe matches text after a '>' or '}' that runs up to a closing
	// tag or an embedded expression and holds at least one Han character.
	markupRe = regexp.MustCompile(`[>}](` + textClass + `*[` + hanClass + `]` + textClass + `*)(?:</|\{)`)

	// attrTailRe recognises "name =" directly before an opening quote.
	attrTailRe = regexp.MustCompile(`(?:^|[^\w$.])[A-Za-z_][\w-]*\s*=\s*$`)

	// declTailRe recognises variable declarations, which look like
	// attributes ("const a = ") but sit in expression position.
	declTailRe = regexp.MustCompile(`\b(?:const|let|var)\s+[A-Za-z_$][\w$]*\s*=\s*$`)

	// exprTailRe recognises assignments that open a statement, a parameter
	// or a destructuring element: "(a = ", ", a = ", "; a = ", "{ a = ".
	exprTailRe = regexp.MustCompile(`[;{(,\[]\s*[A-Za-z_$][\w$.]*\s*=\s*$`)

	hanRe = regexp.MustCompile(`[` + hanClass + `]`)
)

// attrWindow bounds how far back the attribute check looks.
const attrWindow = 96

// ContainsHan reports whether s holds at least one target-script character.
func ContainsHan(s string) bool {
	return hanRe.MatchString(s)
}

// normalize trims s and collapses every whitespace run to one space.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ---------------------------------------------------------------------------
// Strict extraction
// ---------------------------------------------------------------------------

// Strict returns the literals of src that sit in a recognised syntactic
// form: a quoted string made only of Han text and joining punctuation, or
// markup text between tags. Results are ordered by position; overlapping
// matches keep the earlier one.
func Strict(src string) []Literal {
	st := Strip(src)
	text := st.Text

	var lits []Literal

	for _, m := range quotedRe.FindAllStringSubmatchIndex(text, -1) {
		body := ""
		for g := 1; g <= 3; g++ {
			if m[2*g] >= 0 {
				body = text[m[2*g]:m[2*g+1]]
				break
			}
		}
		cleaned := normalize(body)
		if cleaned == "" {
			continue
		}

		if !contiguous(src, st, m[0], m[1]) {
			continue
		}

		ctx := PlainString
		switch {
		case betweenTags(text, m[0], m[1]):
			ctx = MarkupText
		case isAttribute(text, m[0]):
			ctx = QuotedAttribute
		}

		start, end := st.SpanToOriginal(m[0], m[1])
		lits = append(lits, Literal{
			Text:     cleaned,
			Original: src[start:end],
			Pos:      start,
			Context:  ctx,
		})
	}

	for _, m := range markupRe.FindAllStringSubmatchIndex(text, -1) {
		s, e := trimSpan(text, m[2], m[3])
		if s == e {
			continue
		}
		cleaned := normalize(text[s:e])
		if cleaned == "" || !ContainsHan(cleaned) || !contiguous(src, st, s, e) {
			continue
		}

		start, end := st.SpanToOriginal(s, e)
		lits = append(lits, Literal{
			Text:     cleaned,
			Original: src[start:end],
			Pos:      start,
			Context:  MarkupText,
		})
	}

	sortByPos(lits)
	return dropOverlaps(lits)
}

// isAttribute reports whether the quote at offset q is the value of an
// attribute assignment ("name=" or "name = ") that is neither a variable
// declaration nor an assignment in expression position.
func isAttribute(text string, q int) bool {
	lo := q - attrWindow
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo++
	}
	prefix := text[lo:q]
	return attrTailRe.MatchString(prefix) &&
		!declTailRe.MatchString(prefix) &&
		!exprTailRe.MatchString(prefix)
}

// betweenTags reports whether the quoted span [q, end) of text is the only
// content of a markup element, as in <p>"x"</p>.
func betweenTags(text string, q, end int) bool {
	before := strings.TrimRightFunc(text[:q], unicode.IsSpace)
	after := strings.TrimLeftFunc(text[end:], unicode.IsSpace)
	return strings.HasSuffix(before, ">") && !strings.HasSuffix(before, "=>") &&
		strings.HasPrefix(after, "<")
}

// contiguous reports whether the stripped span [s, e) maps onto one
// unbroken span of src, and logs the match otherwise.
func contiguous(src string, st *Stripped, s, e int) bool {
	if st.Contiguous(s, e) {
		return true
	}
	start, end := st.SpanToOriginal(s, e)
	line, col := LineCol(src, start)
	Logger.Warn().
		Int("line", line).
		Int("col", col).
		Int("len", end-start).
		Msg("Match spans a comment, skipped")
	return false
}

// trimSpan narrows [s, e) of text to exclude leading and trailing whitespace.
func trimSpan(text string, s, e int) (int, int) {
	inner := text[s:e]
	left := len(inner) - len(strings.TrimLeftFunc(inner, unicode.IsSpace))
	right := len(inner) - len(strings.TrimRightFunc(inner, unicode.IsSpace))
	if left+right >= len(inner) {
		return s, s
	}
	return s + left, e - right
}

// dropOverlaps removes literals that overlap an earlier kept literal.
// lits must be sorted by position.
func dropOverlaps(lits []Literal) []Literal {
	out := lits[:0]
	end := -1
	for _, l := range lits {
		if l.Pos < end {
			continue
		}
		out = append(out, l)
		end = l.End()
	}
	return out
}

// ---------------------------------------------------------------------------
// Loose extraction
// ---------------------------------------------------------------------------

// Loose returns every Han run in src (outside comments) regardless of the
// surrounding syntax. It is meant for catalog seeding where the rewrite
// context does not matter; every result has Context PlainString.
func Loose(src string) []Literal {
	st := Strip(src)
	text := st.Text

	var lits []Literal
	for _, m := range looseRe.FindAllStringIndex(text, -1) {
		s, e := trimSpan(text, m[0], m[1])
		if s == e {
			continue
		}
		cleaned := normalize(text[s:e])
		if cleaned == "" || !contiguous(src, st, s, e) {
			continue
		}
		start, end := st.SpanToOriginal(s, e)
		lits = append(lits, Literal{
			Text:     cleaned,
			Original: src[start:end],
			Pos:      start,
			Context:  PlainString,
		})
	}

	sortByPos(lits)
	return lits
}

// sortByPos orders literals by ascending position, keeping input order for ties.
func sortByPos(lits []Literal) {
	sort.SliceStable(lits, func(i, j int) bool { return lits[i].Pos < lits[j].Pos })
}

// LineCol converts a byte offset of src into a 1-based line and column.
// The column counts runes, not bytes.
func LineCol(src string, pos int) (line, col int) {
	if pos > len(src) {
		pos = len(src)
	}
	head := src[:pos]
	line = strings.Count(head, "\n") + 1
	if i := strings.LastIndexByte(head, '\n'); i >= 0 {
		head = head[i+1:]
	}
	return line, utf8.RuneCountInString(head) + 1
}
