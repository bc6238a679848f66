// Package dedup implements the normalizer's two deduplication passes as
// immutable transforms over a slice of events: an exact-hash pass and a
// token-set-similarity near-duplicate pass. Neither pass mutates its input
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"narrativedetect/internal/pipeline/model"
)

// Exact removes events that collide on sha256(lower(normalize_ws(title)) |
// url | floor(timestamp/5min)). The first occurrence in input order wins
func Exact(events []model.SignalEvent) (kept []model.SignalEvent, dropped int) {
	seen := make(map[string]struct{}, len(events))
	kept = make([]model.SignalEvent, 0, len(events))
	for _, e := range events {
		key := exactKey(e)
		if _, ok := seen[key]; ok {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, e)
	}
	return kept, dropped
}

func exactKey(e model.SignalEvent) string {
	bucket := e.Timestamp.Unix() / int64((5 * time.Minute).Seconds())
	raw := fmt.Sprintf("%s\x00%s\x00%d", normalizeWS(e.Title), e.URL, bucket)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func normalizeWS(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Near removes events whose title is near-duplicate (token-set Jaccard
// similarity >= cfg.NearSimThreshold) of a retained event within the same
// source and within a trailing span of cfg.BucketMinutes. The span slides
// with each event's timestamp rather than snapping to a fixed calendar
// bucket, so two events 20 minutes apart are always compared even if they
// straddle what would otherwise be a bucket boundary. Events are compared
// in input order; retained events form a per-source ring trimmed to the
// trailing span as it advances. Input order must already be deterministic
// (e.g. timestamp-then-id) for the result to be deterministic
func Near(events []model.SignalEvent, cfg model.DedupConfig) (kept []model.SignalEvent, dropped int) {
	type retained struct {
		ts     time.Time
		tokens map[string]struct{}
	}
	window := make(map[model.Source][]retained)
	kept = make([]model.SignalEvent, 0, len(events))

	span := time.Duration(cfg.BucketMinutes) * time.Minute
	if span <= 0 {
		span = 6 * time.Hour
	}
	threshold := cfg.NearSimThreshold
	if threshold <= 0 {
		threshold = 0.85
	}

	for _, e := range events {
		w := window[e.Source]

		cutoff := e.Timestamp.Add(-span)
		trim := 0
		for trim < len(w) && w[trim].ts.Before(cutoff) {
			trim++
		}
		if trim > 0 {
			w = w[trim:]
		}

		toks := tokenSet(e.Title)
		dup := false
		for _, r := range w {
			if jaccard(toks, r.tokens) >= threshold {
				dup = true
				break
			}
		}
		if dup {
			dropped++
			window[e.Source] = w
			continue
		}

		window[e.Source] = append(w, retained{ts: e.Timestamp, tokens: toks})
		kept = append(kept, e)
	}
	return kept, dropped
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "of": {},
	"to": {}, "in": {}, "on": {}, "for": {}, "with": {}, "at": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"it": {}, "its": {}, "this": {}, "that": {}, "as": {}, "from": {},
	"has": {}, "have": {}, "had": {}, "will": {}, "would": {}, "can": {},
}

func tokenSet(title string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(title))
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,!?:;\"'()[]{}")
		if w == "" {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// SortDeterministic orders events by timestamp then id, the stable input
// order the two dedup passes require to produce deterministic output
func SortDeterministic(events []model.SignalEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].ID < events[j].ID
	})
}
