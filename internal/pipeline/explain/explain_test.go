package explain

import (
	"testing"
	"time"

	"narrativedetect/internal/pipeline/model"
)

func mkEvent(id string, src model.Source, ts time.Time, relevance float64) model.SignalEvent {
	return model.SignalEvent{
		ID:        id,
		Source:    src,
		Domain:    model.DomainOf(src),
		Timestamp: ts,
		Relevance: relevance,
	}
}

func TestEvidenceOrderCapsAtEightAndRoundRobins(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var members []model.SignalEvent
	for i := 0; i < 6; i++ {
		members = append(members, mkEvent("gh"+string(rune('a'+i)), model.SourceGithub, base, float64(i)/10))
	}
	for i := 0; i < 6; i++ {
		members = append(members, mkEvent("tw"+string(rune('a'+i)), model.SourceTwitter, base, float64(i)/10))
	}

	out := evidenceOrder(members)
	if len(out) != 8 {
		t.Fatalf("want 8 evidence items capped, got %d", len(out))
	}
}

func TestEvidenceOrderFewerThanCap(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	members := []model.SignalEvent{
		mkEvent("1", model.SourceGithub, base, 0.9),
		mkEvent("2", model.SourceTwitter, base, 0.5),
	}
	out := evidenceOrder(members)
	if len(out) != 2 {
		t.Fatalf("want 2 evidence items, got %d", len(out))
	}
}

func TestConfidenceTierBuckets(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	members := make([]model.SignalEvent, 10)
	sources := []model.Source{model.SourceTxActivity, model.SourceGithub, model.SourceTwitter}
	for i := range members {
		src := sources[i%len(sources)]
		members[i] = mkEvent("m"+string(rune('a'+i)), src, base, 0.5)
	}
	r := model.RankedNarrative{Features: map[string]model.Score{}}
	score, tier := confidence(r, members)
	if tier != model.ConfidenceStrong {
		t.Fatalf("want strong tier for a large, cross-domain, multi-source narrative, got %v (score %v)", tier, score)
	}
}

func TestConfidencePenalizedBySingleSource(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	members := []model.SignalEvent{
		mkEvent("1", model.SourceGithub, base, 0.5),
		mkEvent("2", model.SourceGithub, base, 0.5),
		mkEvent("3", model.SourceGithub, base, 0.5),
	}
	withPenalty := model.RankedNarrative{Features: map[string]model.Score{"single_source_penalty": 0.4}}
	withoutPenalty := model.RankedNarrative{Features: map[string]model.Score{"single_source_penalty": 0}}

	scoreWith, _ := confidence(withPenalty, members)
	scoreWithout, _ := confidence(withoutPenalty, members)
	if scoreWith >= scoreWithout {
		t.Fatalf("want single-source penalty to reduce confidence: with=%v without=%v", scoreWith, scoreWithout)
	}
}

func TestTimelineGapFilled(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)
	members := []model.SignalEvent{
		mkEvent("1", model.SourceGithub, start, 0.5),
		mkEvent("2", model.SourceGithub, end, 0.5),
	}
	points := timeline(members, model.Window{Start: start, End: end})
	if len(points) != 4 {
		t.Fatalf("want 4 daily points spanning the window, got %d", len(points))
	}
	if points[0].Count != 1 || points[3].Count != 1 {
		t.Fatalf("endpoints should carry their event counts, got %+v", points)
	}
	if points[1].Count != 0 || points[2].Count != 0 {
		t.Fatalf("gap days should be zero-filled, got %+v", points)
	}
}

func TestWhyNowOmitsClausesGracefully(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	members := []model.SignalEvent{mkEvent("1", model.SourceGithub, base, 0.5)}
	r := model.RankedNarrative{
		Narrative: model.Narrative{Label: "Firedancer"},
		Features:  map[string]model.Score{"velocity": 0.1, "cross": 0.1, "novelty": 0.1, "author_diversity": 0.1},
	}
	got := whyNow(r, members)
	if got == "" {
		t.Fatal("want non-empty why_now text")
	}
}
