package cluster

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"narrativedetect/internal/pipeline/model"
	"narrativedetect/internal/pipeline/workerpool"
)

var titleCaser = cases.Title(language.English)

// phase2 clusters unanchored events by text similarity: TF-IDF vectorize,
// build a cosine distance matrix (rows computed in parallel), then cut an
// agglomerative average-linkage dendrogram at cfg.TextDistance. Clusters
// below MinTextSupport are discarded, matching spec.md's text-clustering
// phase
func phase2(events []model.SignalEvent, cfg model.ClusteringConfig, workers int) []component {
	var unanchored []model.SignalEvent
	for _, e := range events {
		if e.Unanchored() {
			unanchored = append(unanchored, e)
		}
	}
	n := len(unanchored)
	if n < cfg.MinTextSupport {
		return nil
	}

	docs := make([]string, n)
	for i, e := range unanchored {
		docs[i] = e.Title + " " + e.Text
	}
	vectors := tfidfVectors(docs)

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	workerpool.Run(n, workers, func(i int) {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sim := cosineSim(vectors[i], vectors[j])
			if sim > 1 {
				sim = 1
			}
			if sim < 0 {
				sim = 0
			}
			dist[i][j] = 1 - sim
		}
	})

	groups := agglomerate(dist, cfg.TextDistance)

	out := make([]component, 0, len(groups))
	for _, idxs := range groups {
		if len(idxs) < cfg.MinTextSupport {
			continue
		}
		c := component{
			entities:  make(map[string]struct{}),
			memberIDs: make(map[string]struct{}, len(idxs)),
		}
		vecs := make([]map[string]float64, 0, len(idxs))
		for _, idx := range idxs {
			c.memberIDs[unanchored[idx].ID] = struct{}{}
			vecs = append(vecs, vectors[idx])
		}
		c.fallbackLabel = fallbackLabel(vecs)
		out = append(out, c)
	}
	return out
}

// agglomerate runs average-linkage hierarchical clustering over a
// precomputed distance matrix, merging the closest pair of clusters
// repeatedly until the minimum inter-cluster distance reaches cutoff
func agglomerate(dist [][]float64, cutoff float64) [][]int {
	n := len(dist)
	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}
	active := make([]bool, n)
	for i := range active {
		active[i] = true
	}

	for {
		bestI, bestJ := -1, -1
		bestD := cutoff
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				d := avgLinkage(dist, clusters[i], clusters[j])
				if d < bestD {
					bestD = d
					bestI, bestJ = i, j
				}
			}
		}
		if bestI == -1 {
			break
		}
		clusters[bestI] = append(clusters[bestI], clusters[bestJ]...)
		active[bestJ] = false
	}

	out := make([][]int, 0, n)
	for i := 0; i < n; i++ {
		if active[i] {
			sort.Ints(clusters[i])
			out = append(out, clusters[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func avgLinkage(dist [][]float64, a, b []int) float64 {
	sum := 0.0
	for _, i := range a {
		for _, j := range b {
			sum += dist[i][j]
		}
	}
	return sum / float64(len(a)*len(b))
}

func fallbackLabel(vecs []map[string]float64) string {
	terms := topTerms(vecs, 2)
	if len(terms) == 0 {
		return ""
	}
	titled := make([]string, 0, len(terms))
	for _, t := range terms {
		titled = append(titled, titleCaser.String(t))
	}
	return strings.Join(titled, " & ")
}
