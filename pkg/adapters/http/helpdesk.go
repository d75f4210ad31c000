package http

import (
	"net/http"

	"github.com/aretw0/skphelp/pkg/auth"
	"github.com/aretw0/skphelp/pkg/events"
	"github.com/aretw0/skphelp/pkg/helpdesk"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

type loginRequest struct {
	NIP      string `json:"nip"`
	Password string `json:"password"`
}

type askRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type adminStats struct {
	helpdesk.TicketStats
	Troubleshooting *events.Snapshot `json:"troubleshooting,omitempty"`
}

// Login handles POST /auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	session, err := s.deps.Auth.SignIn(r.Context(), body.NIP, body.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("user logged in", "nip", session.Profile.NIP, "role", session.Profile.Role)
	writeJSON(w, http.StatusOK, session)
}

// SearchFAQs handles GET /faqs?q=&category=.
func (s *Server) SearchFAQs(w http.ResponseWriter, r *http.Request) {
	var q, category string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "category", r.URL.Query(), &category); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	items, err := s.deps.FAQs.Search(r.Context(), q, category)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// FAQCategories handles GET /faqs/categories.
func (s *Server) FAQCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, helpdesk.Categories)
}

// ViewFAQ handles GET /faqs/{id}. Each read counts as a view.
func (s *Server) ViewFAQ(w http.ResponseWriter, r *http.Request) {
	item, err := s.deps.FAQs.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Ask handles POST /assistant/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var body askRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Question == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "question is required"})
		return
	}
	answer, err := s.deps.Assistant.Ask(r.Context(), body.Question, body.Context)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// SyncSKP handles POST /sync for the logged-in employee.
func (s *Server) SyncSKP(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	snap, err := s.deps.Sync.Sync(r.Context(), claims.Subject)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// MyTickets handles GET /tickets/mine.
func (s *Server) MyTickets(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	tickets, err := s.deps.Tickets.Mine(r.Context(), claims.Subject)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// SubmitTicket handles POST /tickets.
func (s *Server) SubmitTicket(w http.ResponseWriter, r *http.Request) {
	var body helpdesk.TicketInput
	if !decodeJSON(w, r, &body) {
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())
	ticket, err := s.deps.Tickets.Submit(r.Context(), claims.Profile(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// CreateFAQ handles POST /admin/faqs.
func (s *Server) CreateFAQ(w http.ResponseWriter, r *http.Request) {
	var body helpdesk.FAQInput
	if !decodeJSON(w, r, &body) {
		return
	}
	item, err := s.deps.FAQs.Create(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateFAQ handles PUT /admin/faqs/{id}.
func (s *Server) UpdateFAQ(w http.ResponseWriter, r *http.Request) {
	var body helpdesk.FAQInput
	if !decodeJSON(w, r, &body) {
		return
	}
	item, err := s.deps.FAQs.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteFAQ handles DELETE /admin/faqs/{id}.
func (s *Server) DeleteFAQ(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.FAQs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchUsers handles GET /admin/users?q=.
func (s *Server) SearchUsers(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	users, err := s.deps.Users.Search(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser handles POST /admin/users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body helpdesk.UserInput
	if !decodeJSON(w, r, &body) {
		return
	}
	profile, err := s.deps.Users.Create(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// DeleteUser handles DELETE /admin/users/{nip}.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Users.Delete(r.Context(), chi.URLParam(r, "nip")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AllTickets handles GET /admin/tickets.
func (s *Server) AllTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.deps.Tickets.All(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// RespondTicket handles POST /admin/tickets/{id}/respond.
func (s *Server) RespondTicket(w http.ResponseWriter, r *http.Request) {
	var body helpdesk.ResponseInput
	if !decodeJSON(w, r, &body) {
		return
	}
	ticket, err := s.deps.Tickets.Respond(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// AdminStats handles GET /admin/stats.
func (s *Server) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Tickets.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := adminStats{TicketStats: stats}
	if s.deps.Stats != nil {
		snap := s.deps.Stats.Snapshot()
		out.Troubleshooting = &snap
	}
	writeJSON(w, http.StatusOK, out)
}

// ListTemplates handles GET /admin/templates.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Templates.All())
}
