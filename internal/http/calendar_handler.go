package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/program-explorer/internal/application"
	"github.com/example/program-explorer/internal/calendar"
)

type calendarService interface {
	Layout(ctx context.Context, query application.CalendarQuery) (calendar.Grid, error)
	ExportICS(ctx context.Context, ids []string) (application.FileExport, error)
}

type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

func (h *CalendarHandler) Layout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	parser := newQueryParser(r.URL.Query())
	query := parser.calendarQuery()
	if err := parser.err(); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	grid, err := h.service.Layout(r.Context(), query)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarResponse{Grid: grid, Events: nonNil(grid.Events)})
}

// ExportICS downloads the selected sessions, or all of them, as an .ics file.
func (h *CalendarHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ids := newQueryParser(r.URL.Query()).list("ids")
	export, err := h.service.ExportICS(r.Context(), ids)
	if err != nil {
		h.log(r.Context(), "ExportICS", "requested", len(ids)).ErrorContext(r.Context(), "calendar export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeFile(r.Context(), w, export.ContentType, export.FileName, export.Data)
}

// calendarResponse flattens the grid and guarantees an events array.
type calendarResponse struct {
	calendar.Grid
	Events []calendar.Event `json:"events"`
}
