// Package aliaspack loads the embedded entity alias table and default
// pipeline configuration from aliases.json
package aliaspack

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"narrativedetect/internal/pipeline/model"
)

//go:embed aliases.json
var embedded []byte

type rawDiversity struct {
	Entities int `json:"entities"`
	Sources  int `json:"sources"`
	Authors  int `json:"authors"`
}

type rawScoring struct {
	AMax         float64      `json:"a_max"`
	Diversity    rawDiversity `json:"diversity"`
	NoveltyFloor float64      `json:"novelty_floor"`
}

type rawCredibility struct {
	SourcePriors  map[string]float64 `json:"source_priors"`
	OfficialBlogs []string           `json:"official_blogs"`
	URLAllowlist  []string           `json:"url_allowlist"`
}

type rawDefaults struct {
	Weights    model.Weights          `json:"weights"`
	Penalties  model.Penalties        `json:"penalties"`
	Clustering model.ClusteringConfig `json:"clustering"`
	Scoring    rawScoring             `json:"scoring"`
	Credibility rawCredibility        `json:"credibility"`
	Dedup      model.DedupConfig      `json:"dedup"`
}

type rawPack struct {
	Version  int                 `json:"version"`
	Aliases  model.AliasTable    `json:"aliases"`
	Defaults rawDefaults         `json:"defaults"`
}

// Load returns the embedded alias table and default configuration. The
// returned Config's Aliases field is populated from the same table
func Load() (model.AliasTable, model.Config, error) {
	var rp rawPack
	if err := json.Unmarshal(embedded, &rp); err != nil {
		return nil, model.Config{}, fmt.Errorf("aliaspack: parse aliases.json: %w", err)
	}
	if rp.Version != 1 {
		return nil, model.Config{}, fmt.Errorf("aliaspack: unsupported aliases.json version %d (want 1)", rp.Version)
	}
	if len(rp.Aliases) == 0 {
		return nil, model.Config{}, fmt.Errorf("aliaspack: aliases.json has no entries")
	}

	priors := make(map[model.Source]float64, len(rp.Defaults.Credibility.SourcePriors))
	for k, v := range rp.Defaults.Credibility.SourcePriors {
		priors[model.Source(k)] = v
	}

	cfg := model.Config{
		Weights:    rp.Defaults.Weights,
		Penalties:  rp.Defaults.Penalties,
		Clustering: rp.Defaults.Clustering,
		Scoring: model.ScoringConfig{
			AMax: rp.Defaults.Scoring.AMax,
			Diversity: model.Diversity{
				Entities: rp.Defaults.Scoring.Diversity.Entities,
				Sources:  rp.Defaults.Scoring.Diversity.Sources,
				Authors:  rp.Defaults.Scoring.Diversity.Authors,
			},
			NoveltyFloor: rp.Defaults.Scoring.NoveltyFloor,
		},
		Credibility: model.CredibilityConfig{
			SourcePriors:  priors,
			OfficialBlogs: rp.Defaults.Credibility.OfficialBlogs,
			URLAllowlist:  rp.Defaults.Credibility.URLAllowlist,
		},
		Dedup:   rp.Defaults.Dedup,
		Aliases: rp.Aliases,
		Workers: 0,
	}

	return rp.Aliases, cfg, nil
}
