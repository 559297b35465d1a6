package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/middleware"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/repository"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/services"
)

type ContractHandler struct {
	repo  *repository.ContractRepo
	locks *services.LockService
}

func NewContractHandler(repo *repository.ContractRepo, locks *services.LockService) *ContractHandler {
	return &ContractHandler{repo: repo, locks: locks}
}

func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	// ?number= narrows the listing by contract number substring.
	if number := r.URL.Query().Get("number"); number != "" {
		contracts, err := h.repo.SearchByNumber(r.Context(), number)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
			return
		}
		writeJSON(w, http.StatusOK, contracts)
		return
	}

	contracts, err := h.repo.ListAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}
	writeJSON(w, http.StatusOK, contracts)
}

func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid contract id", r))
		return
	}

	contract, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Contract not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, http.StatusOK, contract)
}

func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	var contract models.Contract
	if err := json.NewDecoder(r.Body).Decode(&contract); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if contract.Number == "" || contract.OrganizationID < 1 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"number": "Contract number and organization are required"}, r))
		return
	}

	if err := h.repo.Create(r.Context(), &contract); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, http.StatusCreated, contract)
}

func (h *ContractHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid contract id", r))
		return
	}

	contract, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Contract not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	user := middleware.GetUser(r.Context())
	if err := h.locks.AcquireEdit(r.Context(), "contracts_bp", "edit_contract", id, user.ID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contract)
}

func (h *ContractHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid contract id", r))
		return
	}

	var contract models.Contract
	if err := json.NewDecoder(r.Body).Decode(&contract); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	contract.ID = id

	if err := h.repo.Update(r.Context(), &contract); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Contract not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	user := middleware.GetUser(r.Context())
	h.locks.ReleaseEdit("contracts_bp", "edit_contract", id, user.ID)

	writeJSON(w, http.StatusOK, contract)
}

func (h *ContractHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid contract id", r))
		return
	}

	user := middleware.GetUser(r.Context())
	h.locks.ReleaseEdit("contracts_bp", "edit_contract", id, user.ID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Edit cancelled"})
}

func (h *ContractHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid contract id", r))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Contract not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Contract deleted"})
}
