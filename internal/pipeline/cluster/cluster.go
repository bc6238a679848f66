// Package cluster builds candidate narratives from a normalized event set
// by combining an entity co-occurrence graph (phase 1) with TF-IDF text
// clustering of unanchored events (phase 2), then merging the two
package cluster

import (
	"sort"
	"strings"

	"narrativedetect/internal/pipeline/model"
)

// Build runs both clustering phases against events and returns the final
// candidate narratives after merge and the min-cluster-size edge policy
func Build(events []model.SignalEvent, cfg model.ClusteringConfig, window model.Window, workers int) []model.Narrative {
	byID := make(map[string]model.SignalEvent, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	entityComponents := phase1(events, cfg)
	textClusters := phase2(events, cfg, workers)

	merged := merge(entityComponents, textClusters, byID)

	out := make([]model.Narrative, 0, len(merged))
	for _, c := range merged {
		if len(c.memberIDs) < cfg.MinClusterSize {
			continue
		}
		lbl := label(c.entities, byID, c.memberIDs)
		if lbl == "" {
			lbl = c.fallbackLabel
		}
		if lbl == "" {
			continue // invariant 2: every ranked narrative has a usable label
		}
		out = append(out, model.Narrative{
			Label:    lbl,
			Entities: sortedKeys(c.entities),
			Members:  sortedIDs(c.memberIDs),
			Window:   window,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return strings.Join(out[i].Entities, ",") < strings.Join(out[j].Entities, ",")
	})
	return out
}

type component struct {
	entities      map[string]struct{}
	memberIDs     map[string]struct{}
	fallbackLabel string // set by phase2 for entity-less text clusters
}

// label takes the two entities with highest intra-cluster event count,
// formatted as "Title Case & Title Case"; ties broken lexicographically
func label(entities map[string]struct{}, byID map[string]model.SignalEvent, members map[string]struct{}) string {
	counts := make(map[string]int, len(entities))
	for id := range members {
		e, ok := byID[id]
		if !ok {
			continue
		}
		for _, ent := range e.Entities {
			if _, in := entities[ent]; in {
				counts[ent]++
			}
		}
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) == 0 {
		return ""
	}
	if len(names) == 1 {
		return names[0]
	}
	top := names[:2]
	sort.Strings(top)
	return top[0] + " & " + top[1]
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedIDs(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
