// Package explain enriches a ranked narrative with human-readable
// artifacts — ordered evidence, a "why now" summary, a confidence tier, and
// a daily timeline histogram — without altering its score
package explain

import (
	"fmt"
	"sort"
	"strings"

	"narrativedetect/internal/pipeline/model"
)

var canonicalSourceOrder = []model.Source{
	model.SourceTxActivity,
	model.SourceProgramDeploy,
	model.SourceTokenActivity,
	model.SourceGithub,
	model.SourceTwitter,
	model.SourceRSSBlog,
}

// Enrich populates Evidence, WhyNow, Confidence/ConfidenceTier, and Timeline
// on every ranked narrative, in place in the slice, using byID to resolve
// member events
func Enrich(ranked []model.RankedNarrative, byID map[string]model.SignalEvent, window model.Window) {
	for i := range ranked {
		members := resolveMembers(ranked[i].Members, byID)
		ranked[i].Evidence = evidenceOrder(members)
		ranked[i].WhyNow = whyNow(ranked[i], members)
		score, tier := confidence(ranked[i], members)
		ranked[i].Confidence = score
		ranked[i].ConfidenceTier = tier
		ranked[i].Timeline = timeline(members, window)
	}
}

func resolveMembers(ids []string, byID map[string]model.SignalEvent) []model.SignalEvent {
	out := make([]model.SignalEvent, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// evidenceOrder selects up to 8 members by descending relevance, round-
// robining across distinct source tags in canonical order to enforce
// diversity
func evidenceOrder(members []model.SignalEvent) []string {
	bySource := make(map[model.Source][]model.SignalEvent)
	for _, e := range members {
		bySource[e.Source] = append(bySource[e.Source], e)
	}
	for src := range bySource {
		sort.SliceStable(bySource[src], func(i, j int) bool {
			return bySource[src][i].Relevance > bySource[src][j].Relevance
		})
	}

	var order []model.Source
	for _, s := range canonicalSourceOrder {
		if _, ok := bySource[s]; ok {
			order = append(order, s)
		}
	}

	out := make([]string, 0, 8)
	for len(out) < 8 {
		picked := false
		for _, src := range order {
			q := bySource[src]
			if len(q) == 0 {
				continue
			}
			out = append(out, q[0].ID)
			bySource[src] = q[1:]
			picked = true
			if len(out) == 8 {
				break
			}
		}
		if !picked {
			break
		}
	}
	return out
}

// whyNow composes a short prose explanation from feature values per the
// clause conditions; omitted clauses never leave grammatical artifacts
func whyNow(r model.RankedNarrative, members []model.SignalEvent) string {
	var clauses []string

	if r.Features["velocity"] >= 0.3 {
		clauses = append(clauses, fmt.Sprintf("activity has accelerated sharply for %s", r.Label))
	}
	if r.Features["cross"] >= 0.3 {
		nOn, nOff := domainCounts(members)
		clauses = append(clauses, fmt.Sprintf("corroborated across on-chain (%d) and off-chain (%d) sources", nOn, nOff))
	}
	if latest := mostRecent(members); latest != nil {
		clauses = append(clauses, fmt.Sprintf("most recently triggered by a %s signal on %s", latest.Source, latest.Timestamp.Format("2006-01-02")))
	}
	if r.Features["novelty"] >= 0.5 {
		clauses = append(clauses, "introducing entities not present in the baseline window")
	}
	if r.Features["author_diversity"] >= 0.3 {
		clauses = append(clauses, "drawing commentary from a broad set of contributors")
	}

	if len(clauses) == 0 {
		return fmt.Sprintf("%s is an emerging candidate narrative.", r.Label)
	}
	s := strings.Join(clauses, "; ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func domainCounts(members []model.SignalEvent) (onchain, offchain int) {
	for _, e := range members {
		if e.Domain == model.DomainOnchain {
			onchain++
		} else {
			offchain++
		}
	}
	return
}

func mostRecent(members []model.SignalEvent) *model.SignalEvent {
	if len(members) == 0 {
		return nil
	}
	latest := members[0]
	for _, e := range members[1:] {
		if e.Timestamp.After(latest.Timestamp) {
			latest = e
		}
	}
	return &latest
}

// confidence computes the 0-100 additive/subtractive score and buckets it
func confidence(r model.RankedNarrative, members []model.SignalEvent) (model.Score, model.ConfidenceTier) {
	score := 0.0

	switch {
	case len(members) >= 10:
		score += 40
	case len(members) >= 5:
		score += 25
	case len(members) >= 3:
		score += 10
	}

	onchain, offchain := domainCounts(members)
	if onchain > 0 && offchain > 0 {
		score += 25
	}

	distinctSources := make(map[model.Source]struct{})
	for _, e := range members {
		distinctSources[e.Source] = struct{}{}
	}
	switch {
	case len(distinctSources) >= 3:
		score += 15
	case len(distinctSources) >= 2:
		score += 8
	}

	if r.Features["single_source_penalty"] > 0 {
		score -= 30
	}
	if r.Features["spam_penalty"] > 0 {
		score -= 20
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	tier := model.ConfidenceLow
	switch {
	case score >= 80:
		tier = model.ConfidenceStrong
	case score >= 55:
		tier = model.ConfidenceModerate
	}
	return model.Score(score / 100), tier
}

// timeline builds a daily event-count histogram spanning window, gap-filled
// with zero counts for days with no events
func timeline(members []model.SignalEvent, window model.Window) []model.TimelinePoint {
	daily := make(map[string]int)
	for _, e := range members {
		daily[e.Timestamp.Format("2006-01-02")]++
	}

	var out []model.TimelinePoint
	for d := window.Start; !d.After(window.End); d = d.AddDate(0, 0, 1) {
		day := d.Format("2006-01-02")
		out = append(out, model.TimelinePoint{Date: day, Count: daily[day]})
	}
	return out
}
