package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"narrativedetect/internal/pipeline/model"
)

type fakeStore struct {
	artifact model.RunArtifact
	byIDErr  error
	latest   bool
}

func (f fakeStore) LatestRun(context.Context) (model.RunArtifact, error) {
	if !f.latest {
		return model.RunArtifact{}, errors.New("no runs")
	}
	return f.artifact, nil
}

func (f fakeStore) RunByID(_ context.Context, runID string) (model.RunArtifact, error) {
	if f.byIDErr != nil {
		return model.RunArtifact{}, f.byIDErr
	}
	if runID != f.artifact.RunID {
		return model.RunArtifact{}, errors.New("not found")
	}
	return f.artifact, nil
}

func newTestRouter(store RunStore) http.Handler {
	r := chi.NewRouter()
	Mount(r, store, "narrative-api-test", time.Now())
	return r
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	r := newTestRouter(fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rr.Code)
	}
	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != "OK" {
		t.Fatalf("want OK status, got %q", env.Status)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("want object data, got %T", env.Data)
	}
	if _, ok := data["build"]; !ok {
		t.Fatal("want build info embedded in health response")
	}
	if _, ok := data["last_run_at"]; ok {
		t.Fatal("want last_run_at omitted when no run has completed")
	}
}

func TestHealthzReportsLastRunAt(t *testing.T) {
	t.Parallel()
	artifact := model.RunArtifact{RunID: "run-9", GeneratedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := newTestRouter(fakeStore{artifact: artifact, latest: true})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := env.Data.(map[string]any)
	if _, ok := data["last_run_at"]; !ok {
		t.Fatal("want last_run_at present once a run has completed")
	}
}

func TestRunsLatestNotFound(t *testing.T) {
	t.Parallel()
	r := newTestRouter(fakeStore{latest: false})

	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rr.Code)
	}
}

func TestRunsLatestFound(t *testing.T) {
	t.Parallel()
	artifact := model.RunArtifact{RunID: "run-9", Notes: "ok"}
	r := newTestRouter(fakeStore{artifact: artifact, latest: true})

	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rr.Code)
	}
}

func TestRunByIDNotFound(t *testing.T) {
	t.Parallel()
	artifact := model.RunArtifact{RunID: "run-9"}
	r := newTestRouter(fakeStore{artifact: artifact})

	req := httptest.NewRequest(http.MethodGet, "/runs/does-not-exist", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rr.Code)
	}
}

func TestRunByIDFound(t *testing.T) {
	t.Parallel()
	artifact := model.RunArtifact{RunID: "run-9"}
	r := newTestRouter(fakeStore{artifact: artifact})

	req := httptest.NewRequest(http.MethodGet, "/runs/run-9", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rr.Code)
	}
}
