package cluster

import (
	"testing"
	"time"

	"narrativedetect/internal/pipeline/model"
)

func mkEvent(id string, entities []string, title, text string, src model.Source) model.SignalEvent {
	return model.SignalEvent{
		ID:       id,
		Source:   src,
		Domain:   model.DomainOf(src),
		Title:    title,
		Text:     text,
		Entities: entities,
	}
}

func TestBuildEntityCoOccurrenceCluster(t *testing.T) {
	t.Parallel()
	cfg := model.ClusteringConfig{
		MinEntitySupport: 2,
		EdgeThreshold:    0.30,
		TextDistance:     0.55,
		MinTextSupport:   3,
		MinClusterSize:   3,
	}
	events := []model.SignalEvent{
		mkEvent("1", []string{"Firedancer", "Jump Crypto"}, "firedancer ships", "", model.SourceGithub),
		mkEvent("2", []string{"Firedancer", "Jump Crypto"}, "firedancer testnet", "", model.SourceGithub),
		mkEvent("3", []string{"Firedancer", "Jump Crypto"}, "firedancer release notes", "", model.SourceGithub),
	}
	window := model.Window{Start: time.Now().Add(-24 * time.Hour), End: time.Now()}

	out := Build(events, cfg, window, 2)
	if len(out) != 1 {
		t.Fatalf("want 1 narrative, got %d", len(out))
	}
	if out[0].Label != "Firedancer & Jump Crypto" {
		t.Fatalf("unexpected label %q", out[0].Label)
	}
	if len(out[0].Members) != 3 {
		t.Fatalf("want 3 members, got %d", len(out[0].Members))
	}
}

func TestBuildDropsClustersBelowMinSize(t *testing.T) {
	t.Parallel()
	cfg := model.ClusteringConfig{
		MinEntitySupport: 2,
		EdgeThreshold:    0.30,
		TextDistance:     0.55,
		MinTextSupport:   3,
		MinClusterSize:   3,
	}
	events := []model.SignalEvent{
		mkEvent("1", []string{"Firedancer", "Jump Crypto"}, "firedancer ships", "", model.SourceGithub),
		mkEvent("2", []string{"Firedancer", "Jump Crypto"}, "firedancer testnet", "", model.SourceGithub),
	}
	window := model.Window{Start: time.Now().Add(-24 * time.Hour), End: time.Now()}

	out := Build(events, cfg, window, 2)
	if len(out) != 0 {
		t.Fatalf("want 0 narratives below min_cluster_size, got %d", len(out))
	}
}

func TestBuildPartitionsMembersWithoutOverlap(t *testing.T) {
	t.Parallel()
	cfg := model.ClusteringConfig{
		MinEntitySupport: 2,
		EdgeThreshold:    0.30,
		TextDistance:     0.55,
		MinTextSupport:   3,
		MinClusterSize:   3,
	}
	events := []model.SignalEvent{
		mkEvent("1", []string{"Firedancer", "Jump Crypto"}, "firedancer ships", "", model.SourceGithub),
		mkEvent("2", []string{"Firedancer", "Jump Crypto"}, "firedancer testnet", "", model.SourceGithub),
		mkEvent("3", []string{"Firedancer", "Jump Crypto"}, "firedancer release notes", "", model.SourceGithub),
		mkEvent("4", []string{"Raydium", "Orca"}, "raydium pool upgrade", "", model.SourceGithub),
		mkEvent("5", []string{"Raydium", "Orca"}, "raydium liquidity shift", "", model.SourceGithub),
		mkEvent("6", []string{"Raydium", "Orca"}, "raydium fee change", "", model.SourceGithub),
	}
	window := model.Window{Start: time.Now().Add(-24 * time.Hour), End: time.Now()}

	out := Build(events, cfg, window, 2)
	if len(out) != 2 {
		t.Fatalf("want 2 disjoint narratives, got %d", len(out))
	}
	seen := make(map[string]string)
	for _, c := range out {
		for _, m := range c.Members {
			if prior, ok := seen[m]; ok {
				t.Fatalf("member %q assigned to both %q and %q", m, prior, c.Label)
			}
			seen[m] = c.Label
		}
	}
}

func TestEdgeWeight(t *testing.T) {
	t.Parallel()
	ea := map[string]struct{}{"1": {}, "2": {}, "3": {}}
	eb := map[string]struct{}{"1": {}, "2": {}}
	if w := edgeWeight(ea, eb); w != 1.0 {
		t.Fatalf("want 1.0, got %v", w)
	}
}

func TestTextClusterCoverage(t *testing.T) {
	t.Parallel()
	cfg := model.ClusteringConfig{
		MinEntitySupport: 2,
		EdgeThreshold:    0.30,
		TextDistance:     0.90,
		MinTextSupport:   3,
		MinClusterSize:   3,
	}
	events := []model.SignalEvent{
		mkEvent("1", nil, "validator uptime climbs across the network", "validator uptime climbs across the network this week", model.SourceTwitter),
		mkEvent("2", nil, "validator uptime climbs across the network again", "validator uptime climbs across the network again this week", model.SourceTwitter),
		mkEvent("3", nil, "validator uptime continues climbing across network", "validator uptime continues climbing across network reports", model.SourceTwitter),
	}
	window := model.Window{Start: time.Now().Add(-24 * time.Hour), End: time.Now()}

	out := Build(events, cfg, window, 2)
	if len(out) != 1 {
		t.Fatalf("want 1 text-only narrative, got %d", len(out))
	}
	for _, m := range out[0].Members {
		found := false
		for _, e := range events {
			if e.ID == m {
				found = true
			}
		}
		if !found {
			t.Fatalf("member %q not in input event set", m)
		}
	}
}
