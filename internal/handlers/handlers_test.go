package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/models"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/services"
)

// ─── Shared Helper Tests ───

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"message": "Created"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", ct)
	}

	var result map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["message"] != "Created" {
		t.Errorf("Expected message 'Created', got %q", result["message"])
	}
}

func TestErrorResp(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/applicants/1", nil)
	req.Header.Set("X-Request-ID", "req-123")

	resp := errorResp("NOT_FOUND", "Applicant not found", req)

	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected code NOT_FOUND, got %q", resp.Error.Code)
	}
	if resp.Error.Message != "Applicant not found" {
		t.Errorf("Expected message 'Applicant not found', got %q", resp.Error.Message)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("Expected request id 'req-123', got %q", resp.Error.RequestID)
	}
}

func TestErrorRespWithFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)

	fields := map[string]string{"username": "Username is required"}
	resp := errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, req)

	if resp.Error.Fields["username"] != "Username is required" {
		t.Errorf("Expected field error for username, got %v", resp.Error.Fields)
	}
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"name": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "username taken"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "no such record"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "bad credentials"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "not allowed"}, http.StatusForbidden, "FORBIDDEN"},
		{"locked", &services.LockedError{Message: "record is being edited"}, http.StatusConflict, "RECORD_LOCKED"},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/test", nil)
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("Expected code %q, got %q", tc.wantCode, resp.Error.Code)
			}
		})
	}
}

// ─── Route Param Tests ───

func requestWithID(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/applicants/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{"numeric", "42", 42, false},
		{"one", "1", 1, false},
		{"garbage", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseID(requestWithID(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Expected an error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %d, got %d", tc.want, got)
			}
		})
	}
}

// ─── Export Type Tests ───

func TestExportTypes(t *testing.T) {
	for _, typ := range []string{"applicants-export", "organizations-export", "contracts-export"} {
		if !exportTypes[typ] {
			t.Errorf("Expected %q to be a valid export type", typ)
		}
	}
	if exportTypes["users-export"] {
		t.Error("Did not expect 'users-export' to be a valid export type")
	}
}
