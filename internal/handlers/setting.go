package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/repository"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/services"
)

// SettingHandler manages the access-policy records. Changes take effect on
// the running registry and tracker immediately via PolicyService.Apply.
type SettingHandler struct {
	repo   *repository.SettingRepo
	policy *services.PolicyService
}

func NewSettingHandler(repo *repository.SettingRepo, policy *services.PolicyService) *SettingHandler {
	return &SettingHandler{repo: repo, policy: policy}
}

func (h *SettingHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.repo.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.policy.Current(r.Context()))
}

func (h *SettingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var setting models.AccessSetting
	if err := json.NewDecoder(r.Body).Decode(&setting); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if setting.Name == "" {
		fields["name"] = "Name is required"
	}
	if setting.PageLockSeconds < 1 {
		fields["page_lock_seconds"] = "Must be at least 1"
	}
	if setting.ActivityTimeoutSeconds < 1 {
		fields["activity_timeout_seconds"] = "Must be at least 1"
	}
	if setting.ActivityPeriodCounter < 1 {
		fields["activity_period_counter"] = "Must be at least 1"
	}
	if setting.ActivityCounterMaxThreshold <= setting.ActivityPeriodCounter {
		fields["activity_counter_max_threshold"] = "Must be greater than the period counter"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	if err := h.repo.Create(r.Context(), &setting); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, http.StatusCreated, setting)
}

// Activate makes one setting row the live policy. The previously active
// row is deactivated in the same transaction.
func (h *SettingHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid setting id", r))
		return
	}

	if err := h.repo.Activate(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Setting not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	h.policy.Apply(r.Context())

	writeJSON(w, http.StatusOK, map[string]string{"message": "Setting activated"})
}

func (h *SettingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid setting id", r))
		return
	}

	setting, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Setting not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	wasActive := setting.IsActivatedNow

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	// Deleting the live policy promotes the oldest remaining row so the
	// system is never left without one.
	if wasActive {
		if firstID, err := h.repo.FirstID(r.Context()); err == nil {
			if err := h.repo.Activate(r.Context(), firstID); err == nil {
				h.policy.Apply(r.Context())
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Setting deleted"})
}
