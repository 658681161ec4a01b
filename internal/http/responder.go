package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/program-explorer/internal/application"
	"github.com/example/program-explorer/internal/bookmarks"
)

var (
	errBadRequestBody = errors.New("The request body is not valid JSON.")
	errMissingID      = errors.New("An identifier is required in the path.")
	errMissingUpload  = errors.New("Upload a bookmark file in the \"file\" form field.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || status == http.StatusNotModified || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeFile sends data as a download named fileName.
func (r responder) writeFile(ctx context.Context, w http.ResponseWriter, contentType, fileName string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to write attachment", "file", fileName, "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)})
	case errors.Is(err, application.ErrDatasetUnavailable):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
			ErrorCode: "DATASET_UNAVAILABLE",
			Message:   statusMessage(http.StatusServiceUnavailable),
		})
	case errors.Is(err, bookmarks.ErrInvalidImport):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			ErrorCode: "INVALID_IMPORT",
			Message:   "Invalid bookmark file format.",
			Errors:    map[string]string{"file": importDetail(err)},
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: statusMessage(http.StatusUnprocessableEntity),
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: statusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The request could not be understood."
	case http.StatusNotFound:
		return "The requested speaker or session does not exist."
	case http.StatusUnprocessableEntity:
		return "Some parameters are invalid."
	case http.StatusServiceUnavailable:
		return "The conference program is not available right now. Please try again later."
	default:
		return "An internal error occurred."
	}
}

// importDetail strips the sentinel prefix so clients see only the reason.
func importDetail(err error) string {
	detail := strings.TrimPrefix(err.Error(), bookmarks.ErrInvalidImport.Error())
	detail = strings.TrimSpace(strings.TrimPrefix(detail, ":"))
	if detail == "" {
		return bookmarks.ErrInvalidImport.Error()
	}
	return detail
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
