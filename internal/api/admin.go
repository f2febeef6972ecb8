package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/model"
	"github.com/andresuchdata/stockrisk/internal/pipeline"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RunHistory reads risk refresh runs.
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]pipeline.RefreshRun, error)
	GetRun(ctx context.Context, id string) (*pipeline.RefreshRun, error)
}

// Admin is the operator-facing surface served on its own port.
type Admin struct {
	Models   []model.ModelStatus
	Runs     RunHistory
	Ready    func(ctx context.Context) error
	LoadedAt string
}

// NewAdminRouter serves liveness, model load status and refresh history.
func NewAdminRouter(a *Admin) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", a.healthz).Methods(http.MethodGet)
	r.HandleFunc("/models", a.models).Methods(http.MethodGet)
	r.HandleFunc("/runs", a.runs).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}", a.run).Methods(http.MethodGet)
	return r
}

func (a *Admin) healthz(w http.ResponseWriter, r *http.Request) {
	if a.Ready != nil {
		if err := a.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *Admin) models(w http.ResponseWriter, r *http.Request) {
	loaded := 0
	for _, m := range a.Models {
		if m.Loaded {
			loaded++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models":    a.Models,
		"loaded":    loaded,
		"total":     len(a.Models),
		"loaded_at": a.LoadedAt,
	})
}

func (a *Admin) runs(w http.ResponseWriter, r *http.Request) {
	if a.Runs == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run history is not configured"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := a.Runs.RecentRuns(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("admin: list refresh runs failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (a *Admin) run(w http.ResponseWriter, r *http.Request) {
	if a.Runs == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run history is not configured"})
		return
	}
	id := mux.Vars(r)["id"]
	run, err := a.Runs.GetRun(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("run", id).Msg("admin: get refresh run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, run)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("admin: encode response failed")
	}
}
