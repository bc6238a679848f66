package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"narrativedetect/internal/core/version"
	"narrativedetect/internal/pipeline/model"
	perr "narrativedetect/internal/platform/errors"
	tim "narrativedetect/internal/platform/time"
)

// RunStore is the read path this API needs from persistence
type RunStore interface {
	LatestRun(ctx context.Context) (model.RunArtifact, error)
	RunByID(ctx context.Context, runID string) (model.RunArtifact, error)
}

type handlers struct {
	store       RunStore
	serviceName string
	startedAt   time.Time
}

// Mount wires the three read-only routes onto r
func Mount(r chi.Router, store RunStore, serviceName string, startedAt time.Time) {
	h := &handlers{store: store, serviceName: serviceName, startedAt: startedAt}
	r.Get("/healthz", h.healthz)
	r.Get("/runs/latest", h.latest)
	r.Get("/runs/{run_id}", h.byID)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK        bool              `json:"ok"`
	Service   string            `json:"service"`
	Uptime    int64             `json:"uptime_seconds"`
	Build     version.BuildInfo `json:"build"`
	LastRunAt *time.Time        `json:"last_run_at,omitempty"`
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	var lastRunAt *time.Time
	if artifact, err := h.store.LatestRun(r.Context()); err == nil {
		lastRunAt = tim.Ptr(artifact.GeneratedAt)
	}

	RespondOK(w, r, HealthResponse{
		OK:        true,
		Service:   h.serviceName,
		Uptime:    int64(time.Since(h.startedAt) / time.Second),
		Build:     version.Info(),
		LastRunAt: lastRunAt,
	})
}

func (h *handlers) latest(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.store.LatestRun(r.Context())
	if err != nil {
		RespondError(w, r, perr.Wrap(err, perr.ErrorCodeNotFound, "no run has completed yet"))
		return
	}
	RespondOK(w, r, artifact)
}

func (h *handlers) byID(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	if runID == "" {
		RespondError(w, r, perr.New(perr.ErrorCodeValidation, "run_id is required"))
		return
	}
	artifact, err := h.store.RunByID(r.Context(), runID)
	if err != nil {
		RespondError(w, r, perr.Wrap(err, perr.ErrorCodeNotFound, "run not found"))
		return
	}
	RespondOK(w, r, artifact)
}
