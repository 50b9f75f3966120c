package scan

import "strings"

// Unique drops every occurrence whose Text was already seen, keeping the
// first occurrence of each text and the relative order of first
// occurrences.
func Unique(lits []Literal) []Literal {
	seen := make(map[string]bool, len(lits))
	out := make([]Literal, 0, len(lits))
	for _, l := range lits {
		if seen[l.Text] {
			continue
		}
		seen[l.Text] = true
		out = append(out, l)
	}
	return out
}

// Collapse is Unique followed by greedy containment collapsing, as used by
// the loose seeding pipeline. Literals are processed in order; when the
// current text contains already accepted texts, those are removed and the
// current one takes their place; when the current text is contained in an
// accepted one, it is dropped.
//
// The result holds no two texts where one is a substring of the other.
// Which texts survive depends on the input order: this is the greedy
// algorithm's behaviour and is kept as is.
func Collapse(lits []Literal) []Literal {
	seen := make(map[string]bool, len(lits))
	var accepted []Literal

	for _, l := range lits {
		if seen[l.Text] {
			continue
		}
		seen[l.Text] = true

		kept := accepted[:0]
		for _, a := range accepted {
			if !strings.Contains(l.Text, a.Text) {
				kept = append(kept, a)
			}
		}
		accepted = kept

		contained := false
		for _, a := range accepted {
			if strings.Contains(a.Text, l.Text) {
				contained = true
				break
			}
		}
		if !contained {
			accepted = append(accepted, l)
		}
	}

	return accepted
}

// Texts returns the Text of each literal.
func Texts(lits []Literal) []string {
	out := make([]string, len(lits))
	for i, l := range lits {
		out[i] = l.Text
	}
	return out
}
