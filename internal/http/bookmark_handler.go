package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/program-explorer/internal/application"
	"github.com/example/program-explorer/internal/bookmarks"
)

// maxImportBytes bounds uploaded bookmark files.
const maxImportBytes = 1 << 20

type bookmarkService interface {
	State(ctx context.Context) (bookmarks.State, error)
	Toggle(ctx context.Context, kind bookmarks.Kind, id string) (bookmarks.State, error)
	Reject(ctx context.Context, kind bookmarks.Kind, id string) (bookmarks.State, error)
	BookmarkAll(ctx context.Context, kind bookmarks.Kind, ids []string) (bookmarks.State, error)
	RejectAll(ctx context.Context, kind bookmarks.Kind, ids []string) (bookmarks.State, error)
	Import(ctx context.Context, payload []byte) (bookmarks.State, error)
	Export(ctx context.Context) (application.FileExport, error)
}

// BookmarkHandler exposes the bookmark state machine.
type BookmarkHandler struct {
	service   bookmarkService
	responder responder
	logger    *slog.Logger
}

func NewBookmarkHandler(service bookmarkService, logger *slog.Logger) *BookmarkHandler {
	base := defaultLogger(logger)
	return &BookmarkHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookmarkHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookmarkHandler", operation, attrs...)
}

func (h *BookmarkHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *BookmarkHandler) State(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	state, err := h.service.State(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stateResponse{Bookmarks: state})
}

// Toggle flips the bookmark of the speaker or session named in the path.
func (h *BookmarkHandler) Toggle(w http.ResponseWriter, r *http.Request, kind bookmarks.Kind) {
	h.single(w, r, "Toggle", kind, bookmarkService.Toggle)
}

// Reject rejects the speaker or session named in the path.
func (h *BookmarkHandler) Reject(w http.ResponseWriter, r *http.Request, kind bookmarks.Kind) {
	h.single(w, r, "Reject", kind, bookmarkService.Reject)
}

func (h *BookmarkHandler) BookmarkAll(w http.ResponseWriter, r *http.Request, kind bookmarks.Kind) {
	h.batch(w, r, "BookmarkAll", kind, bookmarkService.BookmarkAll)
}

func (h *BookmarkHandler) RejectAll(w http.ResponseWriter, r *http.Request, kind bookmarks.Kind) {
	h.batch(w, r, "RejectAll", kind, bookmarkService.RejectAll)
}

func (h *BookmarkHandler) single(w http.ResponseWriter, r *http.Request, operation string, kind bookmarks.Kind, apply func(bookmarkService, context.Context, bookmarks.Kind, string) (bookmarks.State, error)) {
	if !h.ready(w) {
		return
	}

	id, ok := EntityIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing id for bookmark update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	logger := h.log(r.Context(), operation, "kind", string(kind), "id", id)
	state, err := apply(h.service, r.Context(), kind, id)
	if err != nil {
		logger.ErrorContext(r.Context(), "bookmark update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "bookmark updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stateResponse{Bookmarks: state})
}

func (h *BookmarkHandler) batch(w http.ResponseWriter, r *http.Request, operation string, kind bookmarks.Kind, apply func(bookmarkService, context.Context, bookmarks.Kind, []string) (bookmarks.State, error)) {
	if !h.ready(w) {
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), operation, "kind", string(kind), "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode batch request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	ids := req.normalized()
	if len(ids) == 0 {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{FieldErrors: map[string]string{"ids": "at least one id is required"}})
		return
	}

	logger := h.log(r.Context(), operation, "kind", string(kind), "count", len(ids))
	state, err := apply(h.service, r.Context(), kind, ids)
	if err != nil {
		logger.ErrorContext(r.Context(), "batch bookmark update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "bookmarks updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stateResponse{Bookmarks: state})
}

// Export downloads the state as a dated JSON file.
func (h *BookmarkHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	export, err := h.service.Export(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeFile(r.Context(), w, export.ContentType, export.FileName, export.Data)
}

// Import merges an uploaded bookmark file. The file is either the raw request
// body or the "file" field of a multipart form.
func (h *BookmarkHandler) Import(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	payload, err := readUpload(w, r)
	if err != nil {
		h.log(r.Context(), "Import", "error_kind", "bad_request").WarnContext(r.Context(), "failed to read bookmark upload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingUpload)
		return
	}

	state, err := h.service.Import(r.Context(), payload)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stateResponse{Bookmarks: state})
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errors.New("empty upload")
	}
	return payload, nil
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

func (b batchRequest) normalized() []string {
	ids := make([]string, 0, len(b.IDs))
	for _, id := range b.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

type stateResponse struct {
	Bookmarks bookmarks.State `json:"bookmarks"`
}
