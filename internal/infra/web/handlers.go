package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"unique-ue/internal/domain"
	"unique-ue/internal/domain/model"
	"unique-ue/internal/infra/logging"
	"unique-ue/internal/usecase"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// chatRequest is the inbound chat body. ContextNodes are graph context the
// browser sends along; this layer carries them opaquely and does not
// interpret them.
type chatRequest struct {
	Message      string          `json:"message"`
	Mode         string          `json:"mode"`
	History      []model.Turn    `json:"history"`
	Persona      string          `json:"persona"`
	ContextNodes json.RawMessage `json:"contextNodes"`
	UserID       string          `json:"userId"`
}

type chatQueuedResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Message   string `json:"message"`
	Executive string `json:"executive"`
}

type chatFallbackResponse struct {
	Status   string `json:"status"`
	Response string `json:"response"`
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback"`
}

type jobStatusResponse struct {
	JobID            string     `json:"job_id"`
	Status           string     `json:"status"`
	Response         string     `json:"response,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ProcessingTimeMs int64      `json:"processing_time_ms,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler for POST /chat: enqueue a chat turn, or run it synchronously
// when durable storage is unavailable.
func chatHandler(queueUC usecase.QueueUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := queueUC.Enqueue(ctx, usecase.EnqueueRequest{
			UserID:  req.UserID,
			Message: req.Message,
			Mode:    req.Mode,
			History: req.History,
			Persona: req.Persona,
		})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				writeError(w, http.StatusBadRequest, "missing 'message'")
				return
			}
			logging.With(ctx, log).Error().Err(err).Msg("enqueue failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if result.Fallback {
			writeJSON(w, http.StatusOK, chatFallbackResponse{
				Status:   "completed",
				Response: result.Response,
				Reply:    result.Response,
				Fallback: true,
			})
			return
		}
		writeJSON(w, http.StatusOK, chatQueuedResponse{
			Status:    "queued",
			JobID:     result.JobID,
			Message:   "Your request has been queued for processing.",
			Executive: executiveFor(req.Persona),
		})
	}
}

// Handler for GET /job-status/{jobId}.
func jobStatusHandler(queueUC usecase.QueueUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ctx := r.Context()

		jobID := strings.TrimPrefix(r.URL.Path, "/job-status/")
		jobID = strings.TrimSuffix(jobID, "/")
		if jobID == "" {
			writeError(w, http.StatusBadRequest, "job id is required")
			return
		}

		view, err := queueUC.Status(ctx, jobID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "job not found")
				return
			}
			log.Error().Err(err).Str("job_id", jobID).Msg("status lookup failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		resp := jobStatusResponse{
			JobID:            view.JobID,
			Status:           string(view.Status),
			Response:         view.Response,
			CreatedAt:        view.CreatedAt,
			ProcessingTimeMs: view.ProcessingTimeMs,
		}
		if !view.CompletedAt.IsZero() {
			t := view.CompletedAt
			resp.CompletedAt = &t
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func executiveFor(persona string) string {
	if persona == "" {
		return "qore"
	}
	return persona
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
