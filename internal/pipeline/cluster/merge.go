package cluster

import "narrativedetect/internal/pipeline/model"

// merge folds each text cluster into an existing entity cluster when its
// entity set overlaps one, otherwise keeps it standalone. A text cluster's
// entities come from the unanchored events' own Entities field (typically
// empty, since "unanchored" means no alias matched); such clusters have no
// overlap candidate and always stand alone under their fallback label
func merge(entityClusters, textClusters []component, byID map[string]model.SignalEvent) []component {
	out := make([]component, len(entityClusters))
	copy(out, entityClusters)

	for _, tc := range textClusters {
		modal := modalEntitySet(tc.memberIDs, byID)

		mergedInto := -1
		if len(modal) > 0 {
			for i := range out {
				if overlaps(modal, out[i].entities) {
					mergedInto = i
					break
				}
			}
		}

		if mergedInto >= 0 {
			for id := range tc.memberIDs {
				out[mergedInto].memberIDs[id] = struct{}{}
			}
			for ent := range modal {
				out[mergedInto].entities[ent] = struct{}{}
			}
			continue
		}

		standalone := component{
			entities:      modal,
			memberIDs:     tc.memberIDs,
			fallbackLabel: tc.fallbackLabel,
		}
		out = append(out, standalone)
	}
	return out
}

// modalEntitySet is the union of canonical entities already present on the
// cluster's member events (empty for purely unanchored text clusters)
func modalEntitySet(memberIDs map[string]struct{}, byID map[string]model.SignalEvent) map[string]struct{} {
	out := make(map[string]struct{})
	for id := range memberIDs {
		e, ok := byID[id]
		if !ok {
			continue
		}
		for _, ent := range e.Entities {
			out[ent] = struct{}{}
		}
	}
	return out
}

func overlaps(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
