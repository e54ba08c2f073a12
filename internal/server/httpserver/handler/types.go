package handler

import (
	"time"

	"github.com/yndnr/roster-go/internal/storage/journal"
	"github.com/yndnr/roster-go/internal/storage/snapshot"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// StatusResponse is the body of GET /admin/v1/backups/status.
type StatusResponse struct {
	Running         bool   `json:"running"`
	InFlight        bool   `json:"in_flight"`
	Overlaps        int    `json:"overlaps"`
	IntervalSeconds int64  `json:"interval_seconds,omitempty"`
	Dir             string `json:"dir"`
}

func newStatusResponse(st snapshot.Status) StatusResponse {
	return StatusResponse{
		Running:         st.Running,
		InFlight:        st.InFlight,
		Overlaps:        st.Overlaps,
		IntervalSeconds: int64(st.Interval / time.Second),
		Dir:             st.Dir,
	}
}

// StartRequest is the optional body of POST /admin/v1/backups/start.
type StartRequest struct {
	// Interval is a Go duration string. Empty uses the configured interval.
	Interval string `json:"interval,omitempty"`
}

// BackupInfo describes one snapshot file.
type BackupInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ListResponse is the body of GET /admin/v1/backups.
type ListResponse struct {
	Backups []BackupInfo `json:"backups"`
}

// HistoryResponse is the body of GET /admin/v1/backups/history.
type HistoryResponse struct {
	Entries []journal.Entry `json:"entries"`
}
