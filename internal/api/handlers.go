package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mattjoyce/vellum/internal/document"
	"github.com/mattjoyce/vellum/internal/history"
	"github.com/mattjoyce/vellum/internal/serial"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	tasks := s.bridge.Tasks()
	_, busy := tasks.Busy()

	resp := HealthzResponse{
		Status:           "ok",
		UptimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
		QueueLength:      tasks.Len(),
		Busy:             busy,
		HistoryAvailable: s.bridge.HistoryAvailable(),
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleFormat handles POST /documents/format.
// The work is queued; results arrive on /events.
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeDocumentRequest(w, r)
	if !ok {
		return
	}
	syntax := resolveSyntax(req)
	err := s.bridge.FormatDocument(req.Content, syntax, document.ParseIndentStyle(req.Indent))
	s.respondQueued(w, err)
}

// handleMinify handles POST /documents/minify.
func (s *Server) handleMinify(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeDocumentRequest(w, r)
	if !ok {
		return
	}
	err := s.bridge.MinifyDocument(req.Content, resolveSyntax(req))
	s.respondQueued(w, err)
}

// handleValidate handles POST /documents/validate.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeDocumentRequest(w, r)
	if !ok {
		return
	}
	err := s.bridge.ValidateDocument(req.Content, resolveSyntax(req))
	s.respondQueued(w, err)
}

// handleRender handles POST /documents/render.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeDocumentRequest(w, r)
	if !ok {
		return
	}
	s.respondQueued(w, s.bridge.RenderMarkdown(req.Content))
}

// handleGetQueue handles GET /queue.
func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.queueState())
}

// handleClearQueue handles DELETE /queue.
func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	s.bridge.Tasks().Clear()
	respondJSON(w, http.StatusOK, s.queueState())
}

// handleListHistory handles GET /history.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	respondJSON(w, http.StatusOK, HistoryListResponse{Entries: entries, Count: len(entries)})
}

// handleGetHistory handles GET /history/{entryID}.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}
	entryID := chi.URLParam(r, "entryID")
	entry, err := s.store.Get(r.Context(), entryID)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "history entry not found")
			return
		}
		s.logger.Error("failed to load history entry", "id", entryID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load history entry")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// handleSaveHistory handles POST /history. The save is queued like any other
// document operation.
func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var req HistorySaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	s.respondQueued(w, s.bridge.SaveToHistory(req.Content))
}

// handleDeleteHistory handles DELETE /history/{entryID}.
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	s.respondQueued(w, s.bridge.DeleteHistoryEntry(chi.URLParam(r, "entryID")))
}

// handleClearHistory handles DELETE /history.
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.respondQueued(w, s.bridge.ClearHistory())
}

func (s *Server) decodeDocumentRequest(w http.ResponseWriter, r *http.Request) (DocumentRequest, bool) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "content is required")
		return req, false
	}
	return req, true
}

// respondQueued maps enqueue outcomes to HTTP: accepted, backpressured, or
// rejected up front.
func (s *Server) respondQueued(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusAccepted, AcceptedResponse{
			Status:      "accepted",
			QueueLength: s.bridge.Tasks().Len(),
		})
	case errors.Is(err, serial.ErrQueueFull):
		s.writeError(w, http.StatusTooManyRequests, "task queue is full")
	default:
		s.writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) queueState() QueueResponse {
	tasks := s.bridge.Tasks()
	current, busy := tasks.Busy()
	return QueueResponse{
		Length:      tasks.Len(),
		Busy:        busy,
		CurrentTask: current,
	}
}

func resolveSyntax(req DocumentRequest) document.Syntax {
	if req.Syntax != "" {
		return document.Syntax(req.Syntax)
	}
	return document.DetectSyntax(req.Content)
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
