package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/keva/internal/journey"
	"github.com/MeKo-Tech/keva/internal/store"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	s.writeJSON(w, http.StatusOK, response)
}

// keysHandler lists all stored keys.
func (s *Server) keysHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	keys := s.store.Keys()
	response := KeysResponse{
		Keys:     keys,
		Count:    len(keys),
		Revision: s.store.Revision(),
	}
	s.writeJSON(w, http.StatusOK, response)
}

// kvHandler dispatches /kv/<key> requests. This is the instrumented request
// pipeline: each internal checkpoint enters the matching journey stage, and
// scoped stages resume the enclosing stage afterward, error paths included.
func (s *Server) kvHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	if key == "" || strings.Contains(key, "/") {
		s.writeErrorResponse(w, "Invalid key", http.StatusBadRequest)
		return
	}

	auth := journey.BeginScoped(ctx, journey.StageCheckAuth)
	authorized := s.checkAuth(r)
	auth.End()
	if !authorized {
		s.writeErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, key)
	case http.MethodPut, http.MethodPost:
		s.handlePut(w, r, key)
	case http.MethodDelete:
		s.handleDelete(w, r, key)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGet reads one entry.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, key string) {
	ctx := r.Context()

	scope := journey.BeginScoped(ctx, journey.StageApply)
	entry, ok := s.store.Get(key)
	scope.End()

	if !ok {
		storeOperationsTotal.WithLabelValues("get", "not_found").Inc()
		s.writeErrorResponse(w, "Key not found", http.StatusNotFound)
		return
	}
	storeOperationsTotal.WithLabelValues("get", "ok").Inc()

	journey.EnterStage(ctx, journey.StageEgress)
	s.writeJSON(w, http.StatusOK, EntryResponse{
		Key:       key,
		Value:     string(entry.Value),
		Revision:  entry.Revision,
		UpdatedAt: entry.UpdatedAt.Format(time.RFC3339Nano),
	})
}

// handlePut stores the request body under key.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request, key string) {
	ctx := r.Context()

	parse := journey.BeginScoped(ctx, journey.StageParse)
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyMB*1024*1024)
	value, err := io.ReadAll(r.Body)
	parse.End()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeErrorResponse(w, "Value too large", http.StatusRequestEntityTooLarge)
			return
		}
		s.writeErrorResponse(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	apply := journey.BeginScoped(ctx, journey.StageApply)
	entry, err := s.store.Put(key, value)
	apply.End()
	if err != nil {
		slog.Error("Store put failed", "key", key, "error", err)
		storeOperationsTotal.WithLabelValues("put", "error").Inc()
		s.writeErrorResponse(w, "Failed to store value", http.StatusInternalServerError)
		return
	}
	storeOperationsTotal.WithLabelValues("put", "ok").Inc()
	storeKeys.Set(float64(s.store.Len()))

	if err := s.syncJournal(ctx); err != nil {
		slog.Error("Journal sync failed", "key", key, "error", err)
		s.writeErrorResponse(w, "Failed to persist value", http.StatusInternalServerError)
		return
	}

	mirror := journey.BeginScoped(ctx, journey.StageMirror)
	s.hub.Publish(store.Event{Type: store.EventPut, Key: key, Revision: entry.Revision})
	mirror.End()

	journey.EnterStage(ctx, journey.StageEgress)
	s.writeJSON(w, http.StatusOK, PutResponse{Key: key, Revision: entry.Revision})
}

// handleDelete removes one entry.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, key string) {
	ctx := r.Context()

	apply := journey.BeginScoped(ctx, journey.StageApply)
	revision, existed, err := s.store.Delete(key)
	apply.End()
	if err != nil {
		slog.Error("Store delete failed", "key", key, "error", err)
		storeOperationsTotal.WithLabelValues("delete", "error").Inc()
		s.writeErrorResponse(w, "Failed to delete value", http.StatusInternalServerError)
		return
	}

	if !existed {
		storeOperationsTotal.WithLabelValues("delete", "not_found").Inc()
		s.writeErrorResponse(w, "Key not found", http.StatusNotFound)
		return
	}
	storeOperationsTotal.WithLabelValues("delete", "ok").Inc()
	storeKeys.Set(float64(s.store.Len()))

	if err := s.syncJournal(ctx); err != nil {
		slog.Error("Journal sync failed", "key", key, "error", err)
		s.writeErrorResponse(w, "Failed to persist delete", http.StatusInternalServerError)
		return
	}

	mirror := journey.BeginScoped(ctx, journey.StageMirror)
	s.hub.Publish(store.Event{Type: store.EventDelete, Key: key, Revision: revision})
	mirror.End()

	journey.EnterStage(ctx, journey.StageEgress)
	s.writeJSON(w, http.StatusOK, DeleteResponse{Key: key, Revision: revision, Deleted: true})
}

// syncJournal flushes the journal under the waitForJournal stage.
func (s *Server) syncJournal(ctx context.Context) error {
	scope := journey.BeginScoped(ctx, journey.StageJournal)
	defer scope.End()

	start := time.Now()
	err := s.store.Sync()
	journalSyncDuration.Observe(time.Since(start).Seconds())
	return err
}

// journeysHandler exposes the aggregated per-stage latency summary.
func (s *Server) journeysHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.tracker.Enabled() {
		s.writeErrorResponse(w, "Operation journey tracking is disabled", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, s.tracker.Report())
}

// checkAuth validates the request's API key. An empty configured key leaves
// the server open.
func (s *Server) checkAuth(r *http.Request) bool {
	if s.apiKey == "" {
		return true
	}
	provided := r.Header.Get("X-API-Key")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.apiKey)) == 1
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
