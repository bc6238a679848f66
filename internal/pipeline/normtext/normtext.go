// Package normtext provides the deterministic text normalization used
// before entity matching and textual similarity comparison.
//
// Pipeline order:
//  1. Sanitize: drop NUL/control/C1 bytes and invalid UTF-8.
//  2. Unicode NFKC normalization.
//  3. Case folding.
//  4. Strip combining marks and format characters (zero-width joiners etc).
//  5. Width-fold fullwidth forms to ASCII.
//  6. Collapse whitespace runs to a single space/newline and trim.
//
// Unlike an adversarial-text normalizer, leet-speak folding is never applied:
// narrative source text is not evasive the way profanity text can be, and
// folding "1" to "i" inside an entity surface form like "Layer1" would
// corrupt alias matching.
package normtext

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			norm.NFC,
			width.Fold,
		)
	},
}

// Normalize returns the normalized form of s
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = Sanitize(s)
	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	return collapseSpaces(ns)
}

// collapseSpaces converts whitespace runs to a single ASCII space, preserving
// line breaks as a single newline. Leading/trailing whitespace is trimmed
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	sawNL := false
	flush := func() {
		if !inWS {
			return
		}
		if sawNL {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
		inWS = false
		sawNL = false
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			if r == '\n' || r == '\r' {
				sawNL = true
			}
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return strings.Trim(b.String(), " \n\t\r")
}
