// Package http exposes the program explorer over a JSON API.
//
// The router serves the following endpoints:
//   - GET /dataset: the raw program. The response carries the dataset
//     fingerprint as ETag and answers 304 when If-None-Match matches.
//   - GET /rooms: rooms in display order.
//   - GET /speakers, GET /sessions: filtered lists. Facet parameters such as
//     track or company take repeated keys, `?track=Agents&track=Evals`, so
//     values keep their commas. status, position and day also accept
//     `?status=bookmarked,neither`. Sessions are ordered by start time. See
//     query.go for the parameter names.
//   - GET /speakers/facets, GET /sessions/facets: filter options derived from
//     the active view.
//   - GET /speakers/{id}, GET /sessions/{id}: one item, including rejected
//     ones, with its annotations.
//   - POST /speakers/{id}/bookmark, POST /speakers/{id}/reject and the
//     /sessions equivalents: toggle a bookmark or reject. Responses carry the
//     updated `stateResponse`.
//   - POST /speakers/bookmark-all, POST /speakers/reject-all and the /sessions
//     equivalents: batch updates with body {"ids": [...]}.
//   - GET /calendar: the grid layout. Accepts the session filters plus
//     `bookmarks_only` and `hide`.
//   - GET /calendar/export.ics: an iCalendar download of every session, or of
//     the `ids` given.
//   - GET /bookmarks, GET /bookmarks/export, POST /bookmarks/import: the
//     bookmark state, its dated JSON download and merge of an uploaded file.
//   - GET /you: bookmarked speakers and sessions.
//
// Errors use `errorResponse`: 404 for unknown ids, 422 with per-field messages
// for invalid parameters, 400 for unreadable bodies and invalid bookmark files,
// and 503 while the dataset cannot be loaded.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
