package cluster

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

var textStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "https": {}, "http": {}, "com": {}, "www": {}, "just": {},
	"like": {}, "new": {}, "now": {}, "get": {}, "use": {}, "make": {},
	"will": {}, "can": {}, "one": {}, "also": {}, "more": {}, "been": {},
	"have": {}, "has": {}, "had": {}, "about": {}, "into": {}, "than": {},
	"its": {}, "out": {}, "over": {}, "all": {}, "are": {}, "but": {},
	"not": {}, "you": {}, "was": {}, "they": {}, "their": {}, "what": {},
	"which": {}, "when": {}, "would": {}, "there": {}, "a": {}, "an": {},
	"is": {}, "of": {}, "to": {}, "in": {}, "on": {}, "at": {}, "by": {},
}

// tokenize lowercases and splits into unigrams plus adjacent bigrams,
// dropping stopwords and single-character tokens
func tokenize(text string) []string {
	words := tokenRe.FindAllString(strings.ToLower(text), -1)
	uni := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < 2 {
			continue
		}
		if _, stop := textStopwords[w]; stop {
			continue
		}
		uni = append(uni, w)
	}
	out := make([]string, 0, 2*len(uni))
	out = append(out, uni...)
	for i := 0; i+1 < len(uni); i++ {
		out = append(out, uni[i]+" "+uni[i+1])
	}
	return out
}

// tfidfVectors builds L2-normalized TF-IDF vectors over docs with min-df 2
// and max-df 0.8, unigrams and bigrams, per spec's vectorization scheme
func tfidfVectors(docs []string) []map[string]float64 {
	n := len(docs)
	tokenized := make([][]string, n)
	df := make(map[string]int)

	for i, d := range docs {
		toks := tokenize(d)
		tokenized[i] = toks
		seen := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	maxDF := int(0.8 * float64(n))
	vocab := make(map[string]struct{})
	for t, c := range df {
		if c >= 2 && c <= maxDF {
			vocab[t] = struct{}{}
		}
	}

	vectors := make([]map[string]float64, n)
	for i, toks := range tokenized {
		tf := make(map[string]int)
		for _, t := range toks {
			if _, ok := vocab[t]; ok {
				tf[t]++
			}
		}
		vec := make(map[string]float64, len(tf))
		for t, c := range tf {
			idf := math.Log(float64(1+n)/float64(1+df[t])) + 1
			vec[t] = float64(c) * idf
		}
		norm := 0.0
		for _, v := range vec {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for t := range vec {
				vec[t] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors
}

func cosineSim(a, b map[string]float64) float64 {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	dot := 0.0
	for t, v := range small {
		if bv, ok := big[t]; ok {
			dot += v * bv
		}
	}
	return dot
}

// topTerms returns the top-k terms by summed TF-IDF weight across vectors,
// used as a label fallback when a text cluster carries no entities
func topTerms(vectors []map[string]float64, k int) []string {
	totals := make(map[string]float64)
	for _, v := range vectors {
		for t, w := range v {
			if strings.Contains(t, " ") {
				continue // unigrams only for label fallback
			}
			totals[t] += w
		}
	}
	terms := make([]string, 0, len(totals))
	for t := range totals {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if totals[terms[i]] != totals[terms[j]] {
			return totals[terms[i]] > totals[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > k {
		terms = terms[:k]
	}
	return terms
}
