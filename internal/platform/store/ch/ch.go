// Package ch provides a ClickHouse-backed append-only store for normalized
// SignalEvent rows and flattened RankedNarrative rows
package ch

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"narrativedetect/internal/pipeline/model"
)

// Config configures the ClickHouse connection
type Config struct {
	Addr     []string
	Database string
	Username string
	Password string
	Role     string // process role tag, e.g. "detect", "api"
	Tag      string // build/version tag
}

// CH wraps a ClickHouse native connection
type CH struct {
	conn driver.Conn
}

var openConn = clickhouse.Open

// Open connects to ClickHouse with a client-info tag identifying this process
func Open(ctx context.Context, cfg Config) (*CH, error) {
	conn, err := openConn(&clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		ClientInfo: BuildClientInfo(cfg.Role, cfg.Tag),
	})
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}
	return &CH{conn: conn}, nil
}

// Close closes the underlying connection
func (c *CH) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// InsertSignalEvents appends normalized events to signal_events, one batch
// per call, for use in future-run baseline queries
func (c *CH) InsertSignalEvents(ctx context.Context, runID string, events []model.SignalEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, `INSERT INTO signal_events
		(run_id, id, source, domain, ts, title, url, author, entities, relevance)`)
	if err != nil {
		return err
	}
	for _, e := range events {
		if err := batch.Append(
			runID,
			e.ID,
			string(e.Source),
			string(e.Domain),
			e.Timestamp,
			e.Title,
			e.URL,
			e.Author,
			e.Entities,
			e.Relevance,
		); err != nil {
			return err
		}
	}
	return batch.Send()
}

// InsertRankedNarratives appends each run's ranked narratives, flattened to
// one row per narrative, for historical trend queries across runs
func (c *CH) InsertRankedNarratives(ctx context.Context, runID string, generatedAt time.Time, narratives []model.RankedNarrative) error {
	if len(narratives) == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, `INSERT INTO ranked_narratives
		(run_id, generated_at, label, entities, member_count, score, confidence, confidence_tier)`)
	if err != nil {
		return err
	}
	for _, n := range narratives {
		if err := batch.Append(
			runID,
			generatedAt,
			n.Label,
			n.Entities,
			len(n.Members),
			float64(n.Score),
			float64(n.Confidence),
			string(n.ConfidenceTier),
		); err != nil {
			return err
		}
	}
	return batch.Send()
}

// BaselineEvents queries signal_events for a prior window, reconstructing a
// minimal SignalEvent set sufficient for the scorer's baseline features
// (velocity and novelty read only Entities)
func (c *CH) BaselineEvents(ctx context.Context, window model.Window) ([]model.SignalEvent, error) {
	rows, err := c.conn.Query(ctx, `SELECT id, source, ts, entities, author
		FROM signal_events WHERE ts >= ? AND ts <= ? ORDER BY ts`, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SignalEvent
	for rows.Next() {
		var e model.SignalEvent
		var src string
		if err := rows.Scan(&e.ID, &src, &e.Timestamp, &e.Entities, &e.Author); err != nil {
			return nil, err
		}
		e.Source = model.Source(src)
		e.Domain = model.DomainOf(e.Source)
		out = append(out, e)
	}
	return out, rows.Err()
}

// WindowEvents queries signal_events for the full column set a live run
// needs to re-cluster and re-dedup: title, url, and relevance in addition
// to what BaselineEvents returns. Text is not persisted by InsertSignalEvents
// (it is redundant with the normalized Title for clustering purposes once an
// event has already passed through one run) so Text is left empty here;
// cluster.Build's text phase keys off Title, which is populated
func (c *CH) WindowEvents(ctx context.Context, window model.Window) ([]model.SignalEvent, error) {
	rows, err := c.conn.Query(ctx, `SELECT id, source, ts, title, url, author, entities, relevance
		FROM signal_events WHERE ts >= ? AND ts <= ? ORDER BY ts`, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SignalEvent
	for rows.Next() {
		var e model.SignalEvent
		var src string
		if err := rows.Scan(&e.ID, &src, &e.Timestamp, &e.Title, &e.URL, &e.Author, &e.Entities, &e.Relevance); err != nil {
			return nil, err
		}
		e.Source = model.Source(src)
		e.Domain = model.DomainOf(e.Source)
		out = append(out, e)
	}
	return out, rows.Err()
}
