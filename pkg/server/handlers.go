package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mchmarny/scorecard/pkg/artifact"
	"github.com/mchmarny/scorecard/pkg/canon"
	"github.com/mchmarny/scorecard/pkg/data"
	"github.com/mchmarny/scorecard/pkg/record"
	"github.com/mchmarny/scorecard/pkg/scorecard"
)

const (
	maxBodyBytes = 1 << 20

	statusOK = "ok"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string   `json:"status"`
	ModelVersion string   `json:"model_version"`
	SelectedVars int      `json:"selected_vars"`
	ArtifactsDir string   `json:"artifacts_dir"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type handlers struct {
	artifacts *artifact.Artifacts
	db        *sql.DB
	logger    *slog.Logger
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:       statusOK,
		ModelVersion: h.artifacts.Version().ModelVersion,
		SelectedVars: h.artifacts.NumVariables(),
		ArtifactsDir: h.artifacts.Location(),
	})
}

func (h *handlers) score(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		writeError(w, http.StatusBadRequest, record.ErrInvalidPayload.Error())
		return
	}

	rec, err := record.DecodePayload(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := scorecard.Evaluate(canon.Canonicalize(rec), h.artifacts)
	h.save(r.Context(), res)

	writeJSON(w, http.StatusOK, res)
}

// save records res when history is enabled. Failures are logged only.
func (h *handlers) save(ctx context.Context, res *scorecard.Result) {
	if h.db == nil {
		return
	}

	inputs, err := res.InputsJSON()
	if err != nil {
		h.logger.Error("failed to encode score inputs", "error", err)
		return
	}

	e := &data.ScoreEvent{
		RequestID:    RequestIDFrom(ctx),
		ModelVersion: h.artifacts.Version().ModelVersion,
		Score:        res.Score,
		Probability:  res.ProbabilityFraud,
		LogOdds:      res.LogOdds,
		Inputs:       inputs,
	}

	// client disconnects must not abort the write
	if err := data.SaveScoreEvent(context.WithoutCancel(ctx), h.db, e); err != nil {
		h.logger.Error("failed to save score event", "request_id", e.RequestID, "error", err)
	}
}

func (h *handlers) scores(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeError(w, http.StatusNotFound, "Score history is not enabled.")
		return
	}

	limit := queryParamInt(r, "limit", data.ScoreEventLimitDefault, data.ScoreEventLimitMax)
	list, err := data.GetScoreEvents(r.Context(), h.db, limit)
	if err != nil {
		h.logger.Error("failed to list score events", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// queryParamInt returns the key query value in [1, upper], def otherwise.
func queryParamInt(r *http.Request, key string, def, upper int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Debug("error converting query string to int", "key", key, "value", v, "error", err)
		return def
	}

	if i < 1 || i > upper {
		return def
	}
	return i
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Detail: msg})
}
