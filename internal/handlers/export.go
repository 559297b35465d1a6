package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/middleware"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/repository"
)

var exportTypes = map[string]bool{
	"applicants-export":    true,
	"organizations-export": true,
	"contracts-export":     true,
}

// ExportHandler creates export jobs and hands them to the worker pool
// through the redis queue.
type ExportHandler struct {
	repo  *repository.ExportRepo
	redis *redis.Client
}

func NewExportHandler(repo *repository.ExportRepo, redisClient *redis.Client) *ExportHandler {
	return &ExportHandler{repo: repo, redis: redisClient}
}

func (h *ExportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if !exportTypes[req.Type] {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"type": "Unknown export type"}, r))
		return
	}

	user := middleware.GetUser(r.Context())
	job := &models.ExportJob{UserID: user.ID, Type: req.Type}
	if err := h.repo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	task := models.ExportTask{ID: job.ID, UserID: job.UserID, Type: job.Type}
	taskBytes, _ := json.Marshal(task)
	if err := h.redis.LPush(context.Background(), models.ExportQueue, string(taskBytes)).Err(); err != nil {
		h.repo.MarkFailed(r.Context(), job.ID, "failed to enqueue export task")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue export", r))
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (h *ExportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid export id", r))
		return
	}

	job, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Export not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	// Exports are visible only to their owner.
	if user := middleware.GetUser(r.Context()); user != nil && job.UserID != user.ID && !user.HasRole(models.RoleSuper, models.RoleAdmin) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "This export belongs to another user", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}
