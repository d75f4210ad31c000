package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/skphelp/internal/graph"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/troubleshoot"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

type advanceRequest struct {
	NextID string `json:"next_id"`
}

type unknownNodeBody struct {
	Error string             `json:"error"`
	View  *troubleshoot.View `json:"view"`
}

// StartSession handles POST /troubleshoot/sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Troubleshoot.Start(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GetSession handles GET /troubleshoot/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.deps.Troubleshoot.Get)
}

// Advance handles POST /troubleshoot/sessions/{id}/advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	var body advanceRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.NextID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "next_id is required"})
		return
	}
	s.mutate(w, r, func(ctx context.Context, id string) (*troubleshoot.View, error) {
		return s.deps.Troubleshoot.Advance(ctx, id, body.NextID)
	})
}

// Back handles POST /troubleshoot/sessions/{id}/back.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.deps.Troubleshoot.Back)
}

// Reset handles POST /troubleshoot/sessions/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, s.deps.Troubleshoot.Reset)
}

// EndSession handles DELETE /troubleshoot/sessions/{id}.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Troubleshoot.End(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// mutate runs op on the session in the URL and writes the view.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*troubleshoot.View, error)) {
	view, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrUnknownNode) && view != nil {
			writeJSON(w, http.StatusConflict, unknownNodeBody{Error: err.Error(), View: view})
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// publish forwards a committed path change to the SSE subscribers of its session.
func (s *Server) publish(_ context.Context, diff *domain.StateDiff) {
	if !s.Streams.HasSubscribers(diff.SessionID) {
		return
	}
	if bytes, err := json.Marshal(diff); err == nil {
		s.Streams.Broadcast(diff.SessionID, string(bytes))
	}
}

// SubscribeEvents handles GET /troubleshoot/sessions/{id}/events (SSE).
// The optional watch parameter ("node", "path") filters the diffs sent.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var watch string
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &watch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.deps.Troubleshoot.Get(r.Context(), id); errors.Is(err, domain.ErrSessionNotFound) {
		s.fail(w, r, err)
		return
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", id)

	var watchList []string
	if watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				fmt.Fprintf(w, "event: end\ndata: %s\n\n", id)
				flusher.Flush()
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func watched(msg string, fields []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "node":
			if diff.CurrentNodeID != nil {
				return true
			}
		case "path":
			if diff.Path != nil {
				return true
			}
		}
	}
	return false
}

// GetGraph handles GET /troubleshoot/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	nodes := s.deps.Troubleshoot.Graph().Nodes()
	views := make([]troubleshoot.NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, troubleshoot.NewNodeView(n))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetGraphMermaid handles GET /troubleshoot/graph.mmd.
func (s *Server) GetGraphMermaid(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if err := runtime.BindQueryParameter("form", true, false, "session_id", r.URL.Query(), &sessionID); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	var overlay *graph.Overlay
	if sessionID != "" {
		view, err := s.deps.Troubleshoot.Get(r.Context(), sessionID)
		if err != nil && view == nil {
			s.fail(w, r, err)
			return
		}
		overlay = &graph.Overlay{Visited: view.Path, Current: view.Path.Current()}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.Mermaid(s.deps.Troubleshoot.Graph(), overlay)))
}

// ListContacts handles GET /contacts.
func (s *Server) ListContacts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Troubleshoot.Contacts().All())
}
