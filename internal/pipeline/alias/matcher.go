// Package alias resolves entity mentions in event text against a curated
// alias table, using a compiled Aho-Corasick automaton for linear-time
// multi-pattern matching instead of scanning every alias independently.
package alias

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matcher resolves canonical entity names from normalized, lowercased text
type Matcher struct {
	ac        *automaton
	surfaceOf []string // pattern id -> surface form (for length lookup)
	entityOf  []string // pattern id -> canonical entity name
}

// New compiles a Matcher from a canonical name -> surface forms table.
// Surface forms are lowercased; empty forms are ignored
func New(table map[string][]string) *Matcher {
	m := &Matcher{}
	ac := newAutomaton()

	// Deterministic pattern ids: sort canonical names, then their forms,
	// so automaton construction (and therefore match order) is stable
	// across runs for identical input.
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	id := 0
	for _, name := range names {
		forms := append([]string{}, table[name]...)
		sort.Strings(forms)
		for _, f := range forms {
			f = strings.ToLower(strings.TrimSpace(f))
			if f == "" {
				continue
			}
			ac.addPattern([]byte(f), id)
			m.surfaceOf = append(m.surfaceOf, f)
			m.entityOf = append(m.entityOf, name)
			id++
		}
	}
	ac.build()
	m.ac = ac
	return m
}

// Resolve scans normalized text and returns the set of distinct canonical
// entities mentioned, each match constrained to a word boundary. The
// result is sorted for deterministic downstream set operations
func (m *Matcher) Resolve(text string) []string {
	if text == "" || m.ac == nil {
		return nil
	}
	seen := make(map[string]struct{})
	m.ac.findAll([]byte(text), func(end, id int) {
		surf := m.surfaceOf[id]
		start := end - len(surf)
		if start < 0 {
			return
		}
		if !boundaryOK(text, start, end) {
			return
		}
		seen[m.entityOf[id]] = struct{}{}
	})
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func boundaryOK(s string, start, end int) bool {
	var prev, next rune
	if start > 0 {
		prev, _ = utf8.DecodeLastRuneInString(s[:start])
	}
	if end < len(s) {
		next, _ = utf8.DecodeRuneInString(s[end:])
	}
	return !isWord(prev) && !isWord(next)
}

func isWord(r rune) bool {
	if r == utf8.RuneError || r == 0 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.In(r, unicode.Mn, unicode.Pc)
}
