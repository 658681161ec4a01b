package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/program-explorer/internal/application"
	"github.com/example/program-explorer/internal/filter"
	"github.com/example/program-explorer/internal/program"
	"github.com/example/program-explorer/internal/view"
)

type programService interface {
	Dataset(ctx context.Context) (*program.Dataset, error)
	Rooms(ctx context.Context) ([]program.Room, error)
	ListSpeakers(ctx context.Context, spec filter.SpeakerSpec) ([]view.ActiveSpeaker, error)
	SpeakerFacets(ctx context.Context) (view.SpeakerFacets, error)
	GetSpeaker(ctx context.Context, id string) (application.SpeakerDetail, error)
	ListSessions(ctx context.Context, spec filter.SessionSpec) ([]view.ActiveSession, error)
	SessionFacets(ctx context.Context) (view.SessionFacets, error)
	GetSession(ctx context.Context, id string) (application.SessionDetail, error)
	Personal(ctx context.Context) (application.PersonalSchedule, error)
}

// ProgramHandler serves the read side of the program: dataset, rooms,
// speakers, sessions and the personal view.
type ProgramHandler struct {
	service   programService
	responder responder
	logger    *slog.Logger
}

func NewProgramHandler(service programService, logger *slog.Logger) *ProgramHandler {
	base := defaultLogger(logger)
	return &ProgramHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ProgramHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ProgramHandler", operation, attrs...)
}

func (h *ProgramHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// Dataset returns the raw program tagged with its fingerprint.
func (h *ProgramHandler) Dataset(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	data, err := h.service.Dataset(r.Context())
	if err != nil {
		h.log(r.Context(), "Dataset").ErrorContext(r.Context(), "dataset unavailable", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	etag := `"` + data.Fingerprint + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Dataset-Fingerprint", data.Fingerprint)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		h.responder.writeJSON(r.Context(), w, http.StatusNotModified, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, data)
}

func (h *ProgramHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	rooms, err := h.service.Rooms(r.Context())
	if err != nil {
		h.log(r.Context(), "Rooms").ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: nonNil(rooms)})
}

func (h *ProgramHandler) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	parser := newQueryParser(r.URL.Query())
	spec := parser.speakerSpec()
	if err := parser.err(); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	speakers, err := h.service.ListSpeakers(r.Context(), spec)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "ListSpeakers", "result_count", len(speakers)).DebugContext(r.Context(), "speakers listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSpeakersResponse{Speakers: nonNil(speakers), Count: len(speakers)})
}

func (h *ProgramHandler) SpeakerFacets(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	facets, err := h.service.SpeakerFacets(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, facets)
}

func (h *ProgramHandler) GetSpeaker(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	id, ok := EntityIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	detail, err := h.service.GetSpeaker(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, detail)
}

func (h *ProgramHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	parser := newQueryParser(r.URL.Query())
	spec := parser.sessionSpec()
	if err := parser.err(); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), spec)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "ListSessions", "result_count", len(sessions)).DebugContext(r.Context(), "sessions listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: nonNil(sessions), Count: len(sessions)})
}

func (h *ProgramHandler) SessionFacets(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	facets, err := h.service.SessionFacets(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, facets)
}

func (h *ProgramHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	id, ok := EntityIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	detail, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, detail)
}

// Personal serves the "you" page.
func (h *ProgramHandler) Personal(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	personal, err := h.service.Personal(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, personal)
}

type listRoomsResponse struct {
	Rooms []program.Room `json:"rooms"`
}

type listSpeakersResponse struct {
	Speakers []view.ActiveSpeaker `json:"speakers"`
	Count    int                  `json:"count"`
}

type listSessionsResponse struct {
	Sessions []view.ActiveSession `json:"sessions"`
	Count    int                  `json:"count"`
}

// etagMatches implements the weak comparison of If-None-Match.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
