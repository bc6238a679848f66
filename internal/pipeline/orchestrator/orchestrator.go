// Package orchestrator sequences the Normalizer, Clusterer, Scorer, and
// Explainer stages against a RunContext and assembles the resulting
// RunArtifact. It is a pure function of its inputs: no I/O, no clock reads
// beyond what the caller supplies in RunContext
package orchestrator

import (
	"context"

	"narrativedetect/internal/pipeline/alias"
	"narrativedetect/internal/pipeline/cluster"
	"narrativedetect/internal/pipeline/dedup"
	"narrativedetect/internal/pipeline/explain"
	"narrativedetect/internal/pipeline/model"
	"narrativedetect/internal/pipeline/normtext"
	"narrativedetect/internal/pipeline/score"
	"narrativedetect/internal/platform/errors"
	"narrativedetect/internal/platform/validate"
)

// Run executes Normalizer -> Clusterer -> Scorer -> Explainer in sequence
// and returns the run's RunArtifact. ctx is checked for cancellation
// between stages only; no stage is interrupted mid-execution
func Run(ctx context.Context, events []model.SignalEvent, baseline []model.SignalEvent, cfg model.Config, rc model.RunContext) (model.RunArtifact, error) {
	if _, _, err := validate.Struct(cfg); err != nil {
		wrapped := errors.Wrap(err, errors.ErrorCodeValidation, "orchestrator: invalid configuration")
		return model.RunArtifact{}, errors.WithOp(wrapped, "orchestrator")
	}

	ingested := len(events)
	summary := sourceSummary(events)

	normalized, counters := normalize(events, cfg)

	if err := checkCancelled(ctx); err != nil {
		return model.RunArtifact{}, err
	}

	artifact := model.RunArtifact{
		RunID:         rc.RunID,
		GeneratedAt:   rc.GeneratedAt,
		Window:        rc.Window,
		Baseline:      rc.Baseline,
		SourceSummary: summary,
		Counters:      counters,
		Totals: model.Totals{
			Ingested:   ingested,
			AfterDedup: len(normalized),
		},
	}

	artifact.NormalizedEvents = normalized

	if len(normalized) == 0 {
		artifact.Notes = "no events remained after deduplication for this window; no narratives produced"
		return artifact, nil
	}

	byID := make(map[string]model.SignalEvent, len(normalized))
	for _, e := range normalized {
		byID[e.ID] = e
	}

	candidates := cluster.Build(normalized, cfg.Clustering, rc.Window, cfg.Workers)
	artifact.Totals.Candidates = len(candidates)

	if err := checkCancelled(ctx); err != nil {
		return model.RunArtifact{}, err
	}

	for _, c := range candidates {
		if len(c.Members) == 0 {
			err := errors.New(errors.ErrorCodeUnknown, "scorer: cluster reached scoring stage with no members")
			return model.RunArtifact{}, errors.WithField(errors.WithOp(err, "scorer"), c.Label)
		}
		for _, id := range c.Members {
			if _, ok := byID[id]; !ok {
				err := errors.New(errors.ErrorCodeUnknown, "scorer: cluster member not present in normalized event set")
				return model.RunArtifact{}, errors.WithField(errors.WithOp(err, "scorer"), c.Label)
			}
		}
	}

	ranked := score.Rank(candidates, byID, baseline, rc.Baseline, cfg)

	if err := checkCancelled(ctx); err != nil {
		return model.RunArtifact{}, err
	}

	explain.Enrich(ranked, byID, rc.Window)

	artifact.Narratives = ranked
	artifact.Totals.Ranked = len(ranked)

	return artifact, nil
}

func checkCancelled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		wrapped := errors.Wrap(ctx.Err(), errors.ErrorCodeUnknown, "orchestrator: run cancelled between stages")
		return errors.WithOp(wrapped, "orchestrator")
	default:
		return nil
	}
}

func sourceSummary(events []model.SignalEvent) model.SourceSummary {
	out := make(model.SourceSummary)
	for _, e := range events {
		out[e.Source]++
	}
	return out
}

// normalize runs text normalization, entity resolution, and the two dedup
// passes against the raw event vector
func normalize(events []model.SignalEvent, cfg model.Config) ([]model.SignalEvent, model.Counters) {
	matcher := alias.New(cfg.Aliases)

	var counters model.Counters
	cleaned := make([]model.SignalEvent, 0, len(events))
	for _, e := range events {
		if e.Timestamp.IsZero() || e.Text == "" {
			counters.Malformed++
			continue
		}
		e.Title = normtext.Normalize(e.Title)
		fullText := normtext.Normalize(e.Text)
		e.Text = normtext.Normalize(normtext.StripZones(e.Text))
		e.Domain = model.DomainOf(e.Source)
		e.Entities = matcher.Resolve(e.Title + " " + fullText)
		cleaned = append(cleaned, e)
	}

	dedup.SortDeterministic(cleaned)

	exact, exactDropped := dedup.Exact(cleaned)
	counters.ExactDup = exactDropped

	near, nearDropped := dedup.Near(exact, cfg.Dedup)
	counters.NearDup = nearDropped

	return near, counters
}
