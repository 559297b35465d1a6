package handlers

import (
	"net/http"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/middleware"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/services"
)

// LockHandler exposes the page-lock registry to administrators.
type LockHandler struct {
	locks *services.LockService
}

func NewLockHandler(locks *services.LockService) *LockHandler {
	return &LockHandler{locks: locks}
}

func (h *LockHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"summary": h.locks.Summary()})
}

func (h *LockHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	h.locks.ClearAll(r.Context(), user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "All page locks cleared"})
}
