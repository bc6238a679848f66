package model

import (
	"math"

	"github.com/go-playground/validator/v10"

	"narrativedetect/internal/platform/validate"
)

// weightSumTolerance bounds how far velocity+breadth+cross+novelty+credibility
// may drift from 1 before a Config is rejected as invalid
const weightSumTolerance = 0.01

func init() {
	validate.RegisterStructValidation("weightsum", "weights must sum to 1 within tolerance",
		validateWeightsSum, Weights{})
}

func validateWeightsSum(sl validator.StructLevel) {
	w := sl.Current().Interface().(Weights)
	sum := w.Velocity + w.Breadth + w.Cross + w.Novelty + w.Credibility
	if math.Abs(sum-1) > weightSumTolerance {
		sl.ReportError(w.Velocity, "Velocity", "Velocity", "weightsum", "")
	}
}

// Weights holds the composite score's feature weights. Validated to sum to 1
// within weightSumTolerance (registered as a struct-level check in this
// package's init); penalties.spam and penalties.single_source are validated
// independently per-field and are not part of this sum
type Weights struct {
	Velocity    float64 `json:"velocity" validate:"min=0,max=1"`
	Breadth     float64 `json:"breadth" validate:"min=0,max=1"`
	Cross       float64 `json:"cross" validate:"min=0,max=1"`
	Novelty     float64 `json:"novelty" validate:"min=0,max=1"`
	Credibility float64 `json:"credibility" validate:"min=0,max=1"`
}

// Penalties holds the composite score's penalty weights
type Penalties struct {
	Spam         float64 `json:"spam" validate:"min=0,max=1"`
	SingleSource float64 `json:"single_source" validate:"min=0,max=1"`
}

// Diversity holds the breadth feature's three normalization denominators
type Diversity struct {
	Entities int `json:"entities" validate:"min=1"`
	Sources  int `json:"sources" validate:"min=1"`
	Authors  int `json:"authors" validate:"min=1"`
}

// ClusteringConfig configures Phase 1/2 of the clusterer
type ClusteringConfig struct {
	MinEntitySupport int     `json:"min_entity_support" validate:"min=1"`
	EdgeThreshold    float64 `json:"edge_threshold" validate:"min=0,max=1"`
	TextDistance     float64 `json:"text_distance" validate:"min=0,max=1"`
	MinTextSupport   int     `json:"min_text_support" validate:"min=1"`
	MinClusterSize   int     `json:"min_cluster_size" validate:"min=1"`
}

// ScoringConfig configures the velocity/breadth feature math
type ScoringConfig struct {
	AMax         float64   `json:"a_max" validate:"min=1"`
	Diversity    Diversity `json:"diversity"`
	NoveltyFloor float64   `json:"novelty_floor" validate:"min=0,max=1"`
}

// CredibilityConfig configures per-source credibility priors
type CredibilityConfig struct {
	SourcePriors  map[Source]float64 `json:"source_priors"`
	OfficialBlogs []string           `json:"official_blogs"`
	URLAllowlist  []string           `json:"url_allowlist"`
}

// DedupConfig configures the normalizer's near-duplicate pass
type DedupConfig struct {
	BucketMinutes    int     `json:"bucket_minutes" validate:"min=1"`
	NearSimThreshold float64 `json:"near_sim_threshold" validate:"min=0,max=1"`
}

// AliasTable maps a canonical entity name to its case-insensitive surface forms
type AliasTable map[string][]string

// Merge returns a new AliasTable with overrides' surface forms appended to
// the receiver's, deduplicated per canonical entity. The receiver is the
// embedded default pack; overrides is a DB-managed supplement and always
// wins ties by simply adding forms, never removing one
func (a AliasTable) Merge(overrides AliasTable) AliasTable {
	if len(overrides) == 0 {
		return a
	}
	out := make(AliasTable, len(a)+len(overrides))
	for canonical, forms := range a {
		out[canonical] = append([]string{}, forms...)
	}
	for canonical, forms := range overrides {
		seen := make(map[string]struct{}, len(out[canonical]))
		for _, f := range out[canonical] {
			seen[f] = struct{}{}
		}
		for _, f := range forms {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out[canonical] = append(out[canonical], f)
		}
	}
	return out
}

// Config is the immutable configuration record passed through every stage
type Config struct {
	Weights     Weights           `json:"weights"`
	Penalties   Penalties         `json:"penalties"`
	Clustering  ClusteringConfig  `json:"clustering"`
	Scoring     ScoringConfig     `json:"scoring"`
	Credibility CredibilityConfig `json:"credibility"`
	Dedup       DedupConfig       `json:"dedup"`
	Aliases     AliasTable        `json:"aliases"`

	// Workers bounds fan-out in the clusterer's pairwise similarity pass and
	// the scorer's per-narrative pass. 0 means runtime.GOMAXPROCS(0)
	Workers int `json:"workers" validate:"min=0"`
}
