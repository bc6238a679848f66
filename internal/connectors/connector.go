// Package connectors defines the narrow port source connectors must
// satisfy and an in-memory fixture implementation for tests and for
// running the batch job without a live store
package connectors

import (
	"context"

	"narrativedetect/internal/pipeline/model"
)

// Connector fetches SignalEvents for a window. Real connectors (on-chain
// RPC, GitHub, Twitter/X, RSS) are out of scope for implementation; only
// this interface and FixtureConnector exist here
type Connector interface {
	Fetch(ctx context.Context, window model.Window) ([]model.SignalEvent, error)
}

// FixtureConnector serves a fixed, in-memory event set, filtered to the
// requested window, for tests and `cmd/narrative-detect --fixtures`
type FixtureConnector struct {
	Events []model.SignalEvent
}

// Fetch returns the fixture events whose timestamp falls within window
func (f FixtureConnector) Fetch(_ context.Context, window model.Window) ([]model.SignalEvent, error) {
	out := make([]model.SignalEvent, 0, len(f.Events))
	for _, e := range f.Events {
		if !e.Timestamp.Before(window.Start) && !e.Timestamp.After(window.End) {
			out = append(out, e)
		}
	}
	return out, nil
}
