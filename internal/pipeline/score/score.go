// Package score computes the composite feature vector and scalar score for
// each candidate narrative, per-narrative work parallelized over a bounded
// worker pool and joined into canonical rank order before returning
package score

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"narrativedetect/internal/pipeline/model"
	"narrativedetect/internal/pipeline/workerpool"
)

// Rank scores every candidate narrative and returns them ordered by
// descending score, ties broken by larger |members| then label
func Rank(narratives []model.Narrative, byID map[string]model.SignalEvent, baseline []model.SignalEvent, baselineWindow model.Window, cfg model.Config) []model.RankedNarrative {
	out := make([]model.RankedNarrative, len(narratives))
	workerpool.Run(len(narratives), cfg.Workers, func(i int) {
		out[i] = scoreOne(narratives[i], byID, baseline, baselineWindow, cfg)
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if len(out[i].Members) != len(out[j].Members) {
			return len(out[i].Members) > len(out[j].Members)
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func scoreOne(n model.Narrative, byID map[string]model.SignalEvent, baseline []model.SignalEvent, baselineWindow model.Window, cfg model.Config) model.RankedNarrative {
	members := resolveMembers(n.Members, byID)

	velocity := velocityFeature(members, baseline, baselineWindow, n.Entities, n.Window, cfg.Scoring.AMax)
	breadth, entityDiv, sourceDiv, authorDiv := breadthFeature(members, cfg.Scoring.Diversity)
	cross := crossDomainFeature(members)
	novelty := noveltyFeature(n.Entities, baseline, cfg.Scoring.NoveltyFloor)
	credibility := credibilityFeature(members, cfg.Credibility)
	spamPenalty := spamPenaltyFeature(members)
	singleSourcePenalty := singleSourcePenaltyFeature(members)

	composite := cfg.Weights.Velocity*velocity +
		cfg.Weights.Breadth*breadth +
		cfg.Weights.Cross*cross +
		cfg.Weights.Novelty*novelty +
		cfg.Weights.Credibility*credibility -
		cfg.Penalties.Spam*spamPenalty -
		cfg.Penalties.SingleSource*singleSourcePenalty

	breakdown := map[string]model.Score{
		"velocity":              model.Score(cfg.Weights.Velocity * velocity),
		"breadth":               model.Score(cfg.Weights.Breadth * breadth),
		"cross":                 model.Score(cfg.Weights.Cross * cross),
		"novelty":               model.Score(cfg.Weights.Novelty * novelty),
		"credibility":           model.Score(cfg.Weights.Credibility * credibility),
		"spam_penalty":          model.Score(-cfg.Penalties.Spam * spamPenalty),
		"single_source_penalty": model.Score(-cfg.Penalties.SingleSource * singleSourcePenalty),
	}

	return model.RankedNarrative{
		Narrative: n,
		Features: map[string]model.Score{
			"velocity":              model.Score(velocity),
			"breadth":               model.Score(breadth),
			"entity_diversity":      model.Score(entityDiv),
			"source_diversity":      model.Score(sourceDiv),
			"author_diversity":      model.Score(authorDiv),
			"cross":                 model.Score(cross),
			"novelty":               model.Score(novelty),
			"credibility":           model.Score(credibility),
			"spam_penalty":          model.Score(spamPenalty),
			"single_source_penalty": model.Score(singleSourcePenalty),
		},
		Score:          model.Score(clamp01(composite)),
		ScoreBreakdown: breakdown,
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

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func entitySet(entities []string) map[string]struct{} {
	out := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		out[e] = struct{}{}
	}
	return out
}

// velocityFeature: acceleration = r_w/max(r_b,eps); velocity =
// clamp(log(1+accel)/log(1+A_max)); r_b=0,r_w>0 => 1.0. r_w and r_b are both
// rates per calendar day over their respective window lengths (window.Days()
// and baselineWindow.Days()), not the span between a sparse set's own min and
// max event timestamps
func velocityFeature(members []model.SignalEvent, baseline []model.SignalEvent, baselineWindow model.Window, narrativeEntities []string, window model.Window, aMax float64) float64 {
	rw := float64(len(members)) / window.Days()

	ents := entitySet(narrativeEntities)
	overlapping := 0
	for _, e := range baseline {
		for _, ent := range e.Entities {
			if _, ok := ents[ent]; ok {
				overlapping++
				break
			}
		}
	}
	rb := float64(overlapping) / baselineWindow.Days()

	if rb == 0 {
		if rw > 0 {
			return 1.0
		}
		return 0.0
	}

	const eps = 1e-9
	accel := rw / math.Max(rb, eps)
	v := math.Log(1+accel) / math.Log(1+aMax)
	return clamp01(v)
}

// breadthFeature returns the composite breadth weight plus its three
// component diversities (entity, source, author), the latter three reported
// standalone in Features for the explainer's why-now/confidence clauses
func breadthFeature(members []model.SignalEvent, div model.Diversity) (composite, entityDiv, sourceDiv, authorDiv float64) {
	entities := make(map[string]struct{})
	sources := make(map[model.Source]struct{})
	authors := make(map[string]struct{})
	for _, e := range members {
		for _, ent := range e.Entities {
			entities[ent] = struct{}{}
		}
		sources[e.Source] = struct{}{}
		if e.Author != "" {
			authors[e.Author] = struct{}{}
		}
	}
	entityDiv = math.Min(1, float64(len(entities))/float64(div.Entities))
	sourceDiv = math.Min(1, float64(len(sources))/float64(div.Sources))
	authorDiv = math.Min(1, float64(len(authors))/float64(div.Authors))
	composite = 0.40*entityDiv + 0.30*sourceDiv + 0.30*authorDiv
	return
}

func crossDomainFeature(members []model.SignalEvent) float64 {
	nOn, nOff := 0, 0
	offchainTags := make(map[model.Source]struct{})
	for _, e := range members {
		if e.Domain == model.DomainOnchain {
			nOn++
		} else {
			nOff++
			offchainTags[e.Source] = struct{}{}
		}
	}
	balance := 0.0
	if nOn > 0 && nOff > 0 {
		balance = 2 * math.Min(float64(nOn), float64(nOff)) / float64(nOn+nOff)
	}
	s := math.Min(1, float64(len(offchainTags))/3.0)
	return 0.7*balance + 0.3*s
}

func noveltyFeature(narrativeEntities []string, baseline []model.SignalEvent, floor float64) float64 {
	if len(narrativeEntities) == 0 {
		return floor
	}
	seen := make(map[string]struct{})
	for _, e := range baseline {
		for _, ent := range e.Entities {
			seen[ent] = struct{}{}
		}
	}
	novel := 0
	for _, ent := range narrativeEntities {
		if _, ok := seen[ent]; !ok {
			novel++
		}
	}
	frac := float64(novel) / float64(len(narrativeEntities))
	if frac < floor {
		return floor
	}
	return clamp01(frac)
}

func credibilityFeature(members []model.SignalEvent, cfg model.CredibilityConfig) float64 {
	if len(members) == 0 {
		return 0
	}
	total := 0.0
	for _, e := range members {
		total += eventCredibility(e, cfg)
	}
	return clamp01(total / float64(len(members)))
}

func eventCredibility(e model.SignalEvent, cfg model.CredibilityConfig) float64 {
	switch e.Source {
	case model.SourceTxActivity, model.SourceProgramDeploy, model.SourceTokenActivity:
		return 0.90
	case model.SourceTwitter:
		if e.Metrics["followers"] >= 10000 {
			return 0.85
		}
		return 0.55
	case model.SourceRSSBlog:
		if isOfficialBlog(e.URL, cfg.OfficialBlogs) {
			return 0.75
		}
		return 0.60
	case model.SourceGithub:
		base := 0.70
		if isAllowlisted(e.URL, cfg.URLAllowlist) {
			base += 0.05
		}
		return clamp01(base)
	default:
		if p, ok := cfg.SourcePriors[e.Source]; ok {
			return clamp01(p)
		}
		return 0.5
	}
}

func isOfficialBlog(rawURL string, blogs []string) bool {
	host := urlHost(rawURL)
	for _, b := range blogs {
		if host == strings.ToLower(b) {
			return true
		}
	}
	return false
}

func isAllowlisted(rawURL string, allowlist []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	hostPath := strings.ToLower(u.Host + u.Path)
	for _, a := range allowlist {
		if strings.HasPrefix(hostPath, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

func urlHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func spamPenaltyFeature(members []model.SignalEvent) float64 {
	return math.Max(burstPenalty(members), authorDominancePenalty(members))
}

// burstPenalty takes the max, over every 1-hour span anchored at a member's
// timestamp, of the fraction of members falling within that span. The span
// slides with each timestamp rather than snapping to a fixed calendar hour,
// so a burst straddling an hour boundary (e.g. 10 members within 20 minutes
// spanning :50-:10) is still counted as one burst, not split across two
// calendar buckets
func burstPenalty(members []model.SignalEvent) float64 {
	n := len(members)
	if n == 0 {
		return 0
	}
	ts := make([]time.Time, n)
	for i, e := range members {
		ts[i] = e.Timestamp
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })

	maxCount := 0
	j := 0
	for i := 0; i < n; i++ {
		if j < i {
			j = i
		}
		for j < n && ts[j].Sub(ts[i]) <= time.Hour {
			j++
		}
		if j-i > maxCount {
			maxCount = j - i
		}
	}
	// (maxCount/n - 0.5) * 2, computed from the integer counts so that a
	// share such as 7/10 yields exactly 0.4
	if 2*maxCount > n {
		return float64(2*maxCount-n) / float64(n)
	}
	return 0
}

func authorDominancePenalty(members []model.SignalEvent) float64 {
	if len(members) == 0 {
		return 0
	}
	counts := make(map[string]int)
	for _, e := range members {
		if e.Author == "" {
			continue
		}
		counts[e.Author]++
	}
	maxShare := 0.0
	for _, c := range counts {
		share := float64(c) / float64(len(members))
		if share > maxShare {
			maxShare = share
		}
	}
	if maxShare > 0.6 {
		return (maxShare - 0.6) * 2.5
	}
	return 0
}

func singleSourcePenaltyFeature(members []model.SignalEvent) float64 {
	if len(members) == 0 {
		return 0
	}
	counts := make(map[model.Source]int)
	for _, e := range members {
		counts[e.Source]++
	}
	maxShare := 0.0
	for _, c := range counts {
		share := float64(c) / float64(len(members))
		if share > maxShare {
			maxShare = share
		}
	}
	if maxShare > 0.7 {
		return clamp01((maxShare - 0.7) * (10.0 / 3.0))
	}
	return 0
}
