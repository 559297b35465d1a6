package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/middleware"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/repository"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/services"
)

// parseID pulls the numeric record id out of the route.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

type ApplicantHandler struct {
	repo  *repository.ApplicantRepo
	locks *services.LockService
}

func NewApplicantHandler(repo *repository.ApplicantRepo, locks *services.LockService) *ApplicantHandler {
	return &ApplicantHandler{repo: repo, locks: locks}
}

func (h *ApplicantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid applicant id", r))
		return
	}

	applicant, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Applicant not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, http.StatusOK, applicant)
}

// Search looks applicants up by last-name prefix or an exact document
// number. At least one filter is required.
func (h *ApplicantHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := models.ApplicantSearch{
		LastName:       q.Get("last_name"),
		MedbookNumber:  q.Get("medbook_number"),
		SnilsNumber:    q.Get("snils_number"),
		PassportNumber: q.Get("passport_number"),
	}

	if search.Empty() {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "At least one search filter is required", r))
		return
	}

	applicants, err := h.repo.Search(r.Context(), search)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, http.StatusOK, applicants)
}

func (h *ApplicantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var applicant models.Applicant
	if err := json.NewDecoder(r.Body).Decode(&applicant); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if applicant.LastName == "" || applicant.FirstName == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"last_name": "Last name and first name are required"}, r))
		return
	}

	if err := h.repo.Create(r.Context(), &applicant); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, http.StatusCreated, applicant)
}

// Edit opens a record for editing: it takes the page lock and returns the
// record. The lock stays held until Update or CancelEdit, or until it
// expires.
func (h *ApplicantHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid applicant id", r))
		return
	}

	applicant, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Applicant not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	user := middleware.GetUser(r.Context())
	if err := h.locks.AcquireEdit(r.Context(), "applicants_bp", "edit_applicant", id, user.ID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, applicant)
}

// Update saves an edited record and releases its page lock.
func (h *ApplicantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid applicant id", r))
		return
	}

	var applicant models.Applicant
	if err := json.NewDecoder(r.Body).Decode(&applicant); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	applicant.ID = id

	if err := h.repo.Update(r.Context(), &applicant); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Applicant not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	user := middleware.GetUser(r.Context())
	h.locks.ReleaseEdit("applicants_bp", "edit_applicant", id, user.ID)

	writeJSON(w, http.StatusOK, applicant)
}

// CancelEdit abandons an edit and releases the page lock without saving.
func (h *ApplicantHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid applicant id", r))
		return
	}

	user := middleware.GetUser(r.Context())
	h.locks.ReleaseEdit("applicants_bp", "edit_applicant", id, user.ID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Edit cancelled"})
}

func (h *ApplicantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid applicant id", r))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Applicant not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Applicant deleted"})
}
