package pg

import (
	"context"
	"encoding/json"

	"narrativedetect/internal/pipeline/model"
)

// InsertRun persists a completed run's full artifact as a single row, keyed
// by run id, so the read API can serve it back verbatim
func (p *PG) InsertRun(ctx context.Context, artifact model.RunArtifact) error {
	payload, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	_, err = p.Pool.Exec(ctx, `INSERT INTO runs (run_id, generated_at, window_start, window_end, artifact)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id) DO UPDATE SET artifact = EXCLUDED.artifact`,
		artifact.RunID, artifact.GeneratedAt, artifact.Window.Start, artifact.Window.End, payload)
	return err
}

// RunByID fetches a previously persisted artifact by run id
func (p *PG) RunByID(ctx context.Context, runID string) (model.RunArtifact, error) {
	var payload []byte
	err := p.Pool.QueryRow(ctx, `SELECT artifact FROM runs WHERE run_id = $1`, runID).Scan(&payload)
	if err != nil {
		return model.RunArtifact{}, err
	}
	var artifact model.RunArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return model.RunArtifact{}, err
	}
	return artifact, nil
}

// LatestRun fetches the most recently generated artifact
func (p *PG) LatestRun(ctx context.Context) (model.RunArtifact, error) {
	var payload []byte
	err := p.Pool.QueryRow(ctx, `SELECT artifact FROM runs ORDER BY generated_at DESC LIMIT 1`).Scan(&payload)
	if err != nil {
		return model.RunArtifact{}, err
	}
	var artifact model.RunArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return model.RunArtifact{}, err
	}
	return artifact, nil
}

// AliasOverrides loads a DB-managed alias table that supplements the
// embedded default pack, for operators who want to add or correct entity
// surface forms without a redeploy. Returns (nil, nil) if the table is
// empty or absent from the schema
func (p *PG) AliasOverrides(ctx context.Context) (model.AliasTable, error) {
	rows, err := p.Pool.Query(ctx, `SELECT canonical, surface_form FROM alias_overrides`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := model.AliasTable{}
	for rows.Next() {
		var canonical, surface string
		if err := rows.Scan(&canonical, &surface); err != nil {
			return nil, err
		}
		out[canonical] = append(out[canonical], surface)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
