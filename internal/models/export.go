package models

import (
	"time"

	"github.com/google/uuid"
)

type ExportJob struct {
	ID           uuid.UUID  `json:"id"`
	UserID       int64      `json:"user_id"`
	Type         string     `json:"type"` // "applicants-export" | "organizations-export" | "contracts-export"
	Status       string     `json:"status"` // "pending" | "processing" | "completed" | "failed"
	FilePath     *string    `json:"file_path"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// ExportQueue is the redis list the export workers consume.
const ExportQueue = "queue:record-export"

// ExportTask is the queue message an export request pushes onto ExportQueue.
type ExportTask struct {
	ID         uuid.UUID `json:"id"`
	UserID     int64     `json:"user_id"`
	Type       string    `json:"type"`
	RetryCount int       `json:"retry_count"`
}

// Notice is the payload published to the notification pub/sub channels and
// pushed to browsers through the websocket hub.
type Notice struct {
	UserID   int64     `json:"user_id"` // 0 = broadcast to everyone
	Message  string    `json:"message"`
	Severity string    `json:"severity"` // "success" | "warning" | "danger"
	At       time.Time `json:"at"`
}

// API error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Redirect  string            `json:"redirect,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
