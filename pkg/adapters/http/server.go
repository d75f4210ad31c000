package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/skphelp/internal/logging"
	"github.com/aretw0/skphelp/pkg/auth"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/events"
	"github.com/aretw0/skphelp/pkg/helpdesk"
	"github.com/aretw0/skphelp/pkg/metrics"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/aretw0/skphelp/pkg/troubleshoot"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Dependencies are the services exposed over HTTP. Troubleshoot is required;
// the route groups of nil services are not mounted.
type Dependencies struct {
	Troubleshoot *troubleshoot.Service
	Auth         *auth.Service
	FAQs         *helpdesk.FAQService
	Tickets      *helpdesk.TicketService
	Users        *helpdesk.UserService
	Templates    *helpdesk.TemplateCatalog
	Assistant    ports.Assistant
	Sync         ports.SyncService
	Stats        *events.Stats
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	Version      string
}

// Server holds the handlers.
type Server struct {
	deps       Dependencies
	Streams    *StreamManager
	logger     *slog.Logger
	apiVersion string
}

// Login messages.
const (
	msgMissingCredentials = "NIP dan Password wajib diisi."
	msgInvalidCredentials = "NIP atau Password salah."
	msgDuplicateUser      = "NIP/Username sudah terdaftar."
)

// NewHandler creates the HTTP handler. It fails if the embedded OpenAPI
// document is invalid.
func NewHandler(deps Dependencies) (http.Handler, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	server := &Server{
		deps:       deps,
		Streams:    NewStreamManager(logger),
		logger:     logger,
		apiVersion: doc.Info.Version,
	}
	// The watch lives as long as the service.
	deps.Troubleshoot.Watch(server.publish)
	return server.routes(), nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})

	r.Route("/troubleshoot", func(r chi.Router) {
		r.Post("/sessions", s.StartSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.EndSession)
			r.Post("/advance", s.Advance)
			r.Post("/back", s.Back)
			r.Post("/reset", s.Reset)
			r.Get("/events", s.SubscribeEvents)
		})
		r.Get("/graph", s.GetGraph)
		r.Get("/graph.mmd", s.GetGraphMermaid)
	})
	r.Get("/contacts", s.ListContacts)

	if s.deps.FAQs != nil {
		r.Get("/faqs", s.SearchFAQs)
		r.Get("/faqs/categories", s.FAQCategories)
		r.Get("/faqs/{id}", s.ViewFAQ)
	}

	if s.deps.Auth == nil {
		return r
	}
	r.Post("/auth/login", s.Login)

	issuer := s.deps.Auth.Issuer()
	r.Group(func(r chi.Router) {
		r.Use(issuer.Authenticate)
		if s.deps.Assistant != nil {
			r.Post("/assistant/ask", s.Ask)
		}
		if s.deps.Sync != nil {
			r.Post("/sync", s.SyncSKP)
		}
		if s.deps.Tickets != nil {
			r.Get("/tickets/mine", s.MyTickets)
			r.Post("/tickets", s.SubmitTicket)
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleAdmin))
			if s.deps.FAQs != nil {
				r.Post("/faqs", s.CreateFAQ)
				r.Put("/faqs/{id}", s.UpdateFAQ)
				r.Delete("/faqs/{id}", s.DeleteFAQ)
			}
			if s.deps.Users != nil {
				r.Get("/users", s.SearchUsers)
				r.Post("/users", s.CreateUser)
				r.Delete("/users/{nip}", s.DeleteUser)
			}
			if s.deps.Tickets != nil {
				r.Get("/tickets", s.AllTickets)
				r.Post("/tickets/{id}/respond", s.RespondTicket)
				r.Get("/stats", s.AdminStats)
			}
			if s.deps.Templates != nil {
				r.Get("/templates", s.ListTemplates)
			}
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	version := strings.TrimSpace(s.deps.Version)
	if version == "" {
		version = "unknown"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "skphelp-http",
		"version":     version,
		"api_version": s.apiVersion,
	})
}

// -- Helpers --

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// userMessenger is implemented by upstream failures that carry text for the end user.
type userMessenger interface {
	UserMessage() string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

// fail maps err to a status code and a JSON error body.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *helpdesk.ValidationError
		um   userMessenger
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Message, Fields: verr.Fields})
	case errors.Is(err, domain.ErrMissingCredentials):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgMissingCredentials})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: msgInvalidCredentials})
	case errors.Is(err, domain.ErrDuplicateUser):
		writeJSON(w, http.StatusConflict, errorBody{Error: msgDuplicateUser})
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrSyncTimeout):
		msg := err.Error()
		if errors.As(err, &um) {
			msg = um.UserMessage()
		}
		s.logger.Warn("upstream unavailable", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: msg})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "request timed out"})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
