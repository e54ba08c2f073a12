package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/roster-go/internal/core/domain"
	"github.com/yndnr/roster-go/internal/storage/journal"
	"github.com/yndnr/roster-go/internal/storage/snapshot"
	"github.com/yndnr/roster-go/internal/telemetry/logger"
)

// Scheduler is the part of snapshot.Manager the admin API drives.
type Scheduler interface {
	Start(interval time.Duration) error
	Stop()
	Status() snapshot.Status
	Trigger() error
}

// Reporter generates snapshot reports.
type Reporter interface {
	Generate(ctx context.Context) (*snapshot.Report, error)
}

// History reads the scheduler event journal.
type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// ReportObserver is told about every generated report.
type ReportObserver interface {
	ObserveReport(rep *snapshot.Report)
}

// Config holds the handler dependencies. History and Observer may be nil.
type Config struct {
	Scheduler       Scheduler
	Reporter        Reporter
	History         History
	Observer        ReportObserver
	BackupDir       string
	DefaultInterval time.Duration
	Logger          *slog.Logger
}

// Handler serves the admin endpoints.
type Handler struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "admin"),
	}
}

// writeJSON writes a JSON response with the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID(r), data)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// WriteError writes err as an error envelope. Errors that are not domain
// errors are reported as internal errors and logged.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		log.ErrorContext(r.Context(), "internal error", "error", err)
		de = domain.ErrInternalServer
	} else if de.Cause != nil {
		log.WarnContext(r.Context(), "request failed", "code", de.Code, "error", de.Cause)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	w.WriteHeader(ErrorCodeToHTTPStatus(de.Code))
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID(r), de.Code, de.Error()))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, h.logger, err)
}

// ErrorCodeToHTTPStatus maps RS-<AREA>-<NNNN> codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	i := strings.LastIndex(code, "-")
	if i < 0 || len(code)-i-1 != 4 {
		return http.StatusInternalServerError
	}
	switch code[i+1 : i+4] {
	case "400":
		return http.StatusBadRequest
	case "401":
		return http.StatusUnauthorized
	case "403":
		return http.StatusForbidden
	case "404":
		return http.StatusNotFound
	case "405":
		return http.StatusMethodNotAllowed
	case "409":
		return http.StatusConflict
	case "429":
		return http.StatusTooManyRequests
	case "503":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func requestID(r *http.Request) string {
	return logger.RequestIDFromContext(r.Context())
}
