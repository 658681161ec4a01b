package http

import (
	"net/http"
	"strings"

	"github.com/example/program-explorer/internal/bookmarks"
)

type RouterConfig struct {
	Program    *ProgramHandler
	Bookmarks  *BookmarkHandler
	Calendar   *CalendarHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Program != nil {
		mux.HandleFunc("/dataset", getOnly(cfg.Program.Dataset))
		mux.HandleFunc("/rooms", getOnly(cfg.Program.Rooms))
		mux.HandleFunc("/you", getOnly(cfg.Program.Personal))
		mux.HandleFunc("/speakers", getOnly(cfg.Program.ListSpeakers))
		mux.HandleFunc("/sessions", getOnly(cfg.Program.ListSessions))
	}

	mux.HandleFunc("/speakers/", entityRoutes(cfg, bookmarks.KindSpeaker))
	mux.HandleFunc("/sessions/", entityRoutes(cfg, bookmarks.KindSession))

	if cfg.Bookmarks != nil {
		mux.HandleFunc("/bookmarks", getOnly(cfg.Bookmarks.State))
		mux.HandleFunc("/bookmarks/export", getOnly(cfg.Bookmarks.Export))
		mux.HandleFunc("/bookmarks/import", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Bookmarks.Import(w, r)
		})
	}

	if cfg.Calendar != nil {
		mux.HandleFunc("/calendar", getOnly(cfg.Calendar.Layout))
		mux.HandleFunc("/calendar/export.ics", getOnly(cfg.Calendar.ExportICS))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// entityRoutes dispatches everything below /speakers/ or /sessions/:
//
//	GET  facets
//	POST bookmark-all, reject-all
//	GET  {id}
//	POST {id}/bookmark, {id}/reject
func entityRoutes(cfg RouterConfig, kind bookmarks.Kind) http.HandlerFunc {
	prefix := "/" + string(kind) + "s/"

	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, prefix)
		if rest == "" {
			http.NotFound(w, r)
			return
		}

		switch rest {
		case "facets":
			if cfg.Program == nil {
				http.NotFound(w, r)
				return
			}
			if kind == bookmarks.KindSpeaker {
				getOnly(cfg.Program.SpeakerFacets)(w, r)
			} else {
				getOnly(cfg.Program.SessionFacets)(w, r)
			}
			return
		case "bookmark-all", "reject-all":
			if cfg.Bookmarks == nil {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			if rest == "bookmark-all" {
				cfg.Bookmarks.BookmarkAll(w, r, kind)
			} else {
				cfg.Bookmarks.RejectAll(w, r, kind)
			}
			return
		}

		id, action, _ := strings.Cut(rest, "/")
		if id == "" || strings.Contains(action, "/") {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithEntityID(r.Context(), id))

		switch action {
		case "":
			if cfg.Program == nil {
				http.NotFound(w, r)
				return
			}
			if kind == bookmarks.KindSpeaker {
				getOnly(cfg.Program.GetSpeaker)(w, r)
			} else {
				getOnly(cfg.Program.GetSession)(w, r)
			}
		case "bookmark", "reject":
			if cfg.Bookmarks == nil {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			if action == "bookmark" {
				cfg.Bookmarks.Toggle(w, r, kind)
			} else {
				cfg.Bookmarks.Reject(w, r, kind)
			}
		default:
			http.NotFound(w, r)
		}
	}
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, http.MethodGet, http.MethodHead)
			return
		}
		next(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
