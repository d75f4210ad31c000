package skphelp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/skphelp/internal/config"
	"github.com/aretw0/skphelp/internal/graph"
	"github.com/aretw0/skphelp/internal/logging"
	assistantAdapter "github.com/aretw0/skphelp/pkg/adapters/assistant"
	"github.com/aretw0/skphelp/pkg/adapters/bkn"
	httpAdapter "github.com/aretw0/skphelp/pkg/adapters/http"
	"github.com/aretw0/skphelp/pkg/adapters/mcp"
	"github.com/aretw0/skphelp/pkg/adapters/memory"
	"github.com/aretw0/skphelp/pkg/adapters/redis"
	"github.com/aretw0/skphelp/pkg/assistant"
	"github.com/aretw0/skphelp/pkg/auth"
	"github.com/aretw0/skphelp/pkg/directory"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/events"
	"github.com/aretw0/skphelp/pkg/helpdesk"
	"github.com/aretw0/skphelp/pkg/metrics"
	"github.com/aretw0/skphelp/pkg/persistence/middleware"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/aretw0/skphelp/pkg/session"
	"github.com/aretw0/skphelp/pkg/troubleshoot"
)

// lockPrefix namespaces the Redis session locks.
const lockPrefix = "skphelp:lock:"

// App is the fully wired helpdesk: every service the HTTP, MCP and CLI surfaces expose.
type App struct {
	Config       *config.Config
	Graph        ports.GraphStore
	Troubleshoot *troubleshoot.Service
	Auth         *auth.Service
	FAQs         *helpdesk.FAQService
	Tickets      *helpdesk.TicketService
	Users        *helpdesk.UserService
	Templates    *helpdesk.TemplateCatalog
	Assistant    *assistant.Service
	Sync         *bkn.Client
	Bus          *events.Bus
	Stats        *events.Stats
	Metrics      *metrics.Metrics
	Logger       *slog.Logger

	cancel  context.CancelFunc
	closers []io.Closer
}

type settings struct {
	cfg      *config.Config
	store    ports.StateStore
	logger   *slog.Logger
	model    assistant.ChatModel
	modelSet bool
	graph    ports.GraphStore
	contacts []domain.Contact
}

// Option configures New.
type Option func(*settings)

// WithConfig replaces the configuration read from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

// WithStateStore sets the session store, bypassing the Redis/memory selection.
func WithStateStore(store ports.StateStore) Option {
	return func(s *settings) {
		s.store = store
	}
}

// WithGraph replaces the decision tree and its contacts, for example with a
// tree built by pkg/dsl. GRAPH_FILE is ignored.
func WithGraph(g ports.GraphStore, contacts ...domain.Contact) Option {
	return func(s *settings) {
		s.graph = g
		s.contacts = contacts
	}
}

// WithLogger sets the logger shared by every service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithChatModel sets the assistant model instead of building one from the config.
// A nil model leaves the assistant unconfigured.
func WithChatModel(m assistant.ChatModel) Option {
	return func(s *settings) {
		s.model = m
		s.modelSet = true
	}
}

// New builds the application. The configuration comes from the environment
// (and .env) unless WithConfig is given.
func New(ctx context.Context, opts ...Option) (*App, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.cfg == nil {
		s.cfg = config.Load()
	}
	cfg := s.cfg

	app := &App{Config: cfg, Logger: s.logger}
	if app.Logger == nil {
		level := logging.ParseLevel(cfg.App.LogLevel)
		if cfg.App.LogFile != "" {
			logger, closer := logging.NewFile(level, cfg.App.LogFile)
			app.Logger = logger
			app.closers = append(app.closers, closer)
		} else {
			app.Logger = logging.New(level)
		}
	}
	logger := app.Logger

	app.Graph = s.graph
	contacts := s.contacts
	if app.Graph == nil {
		doc, err := graph.Open(cfg.App.GraphFile)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("error loading decision tree: %w", err)
		}
		app.Graph, contacts = doc.Graph, doc.Contacts
	}

	sessionOpts := []session.Option{session.WithLogger(logger)}
	store := s.store
	if store == nil && cfg.Session.RedisURL != "" {
		rs, err := redis.NewFromURL(cfg.Session.RedisURL, redis.WithTTL(cfg.Session.TTL))
		if err != nil {
			app.closeStores()
			return nil, err
		}
		app.closers = append(app.closers, rs)
		sessionOpts = append(sessionOpts, session.WithLocker(redis.NewLocker(rs.Client(), lockPrefix)))
		store = rs
		logger.Info("using redis session store")
	}
	if store == nil {
		store = memory.NewStore(memory.WithTTL(cfg.Session.TTL))
	}
	if cfg.Session.EncryptionKey != "" {
		keys, err := middleware.ParseKeys(cfg.Session.EncryptionKey, cfg.Session.FallbackKeys)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("invalid session encryption settings: %w", err)
		}
		store = middleware.NewEncryptionMiddleware(keys)(store)
		logger.Info("session encryption enabled", "fallback_keys", len(keys.FallbackKeys))
	}

	app.Metrics = metrics.New()
	app.Bus = events.NewBus(logger)
	app.Stats = events.NewStats(logger)
	// The stats consumer lives until Close, not until ctx is done.
	consumeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	app.cancel = cancel
	if err := app.Stats.Consume(consumeCtx, app.Bus); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to subscribe stats: %w", err)
	}

	app.Troubleshoot = troubleshoot.New(app.Graph, directory.New(contacts),
		session.NewManager(store, sessionOpts...),
		troubleshoot.WithLogger(logger),
		troubleshoot.WithLifecycleHooks(app.Metrics.Hooks().Merge(app.Bus.Hooks())),
	)

	seed, err := helpdesk.LoadSeed()
	if err != nil {
		app.Close()
		return nil, err
	}
	users := memory.NewUserStore(seed.Users...)
	app.Auth = auth.NewService(users, auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
	app.Users = helpdesk.NewUserService(users, logger)
	app.FAQs = helpdesk.NewFAQService(memory.NewFAQStore(seed.FAQs...), helpdesk.WithFAQLogger(logger))
	app.Tickets = helpdesk.NewTicketService(memory.NewTicketStore(seed.Tickets...),
		helpdesk.WithNotifier(app.Bus),
		helpdesk.WithTicketLogger(logger),
		helpdesk.WithReferenceStats(seed.IssueStats, seed.MonthlyStats),
	)
	app.Templates = helpdesk.NewTemplateCatalog(seed.Templates)
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET is not set; using the development secret")
	}

	model := s.model
	if !s.modelSet {
		model, err = assistantAdapter.NewChatModel(ctx, assistantAdapter.Config{
			Provider: cfg.Assistant.Provider,
			APIKey:   cfg.Assistant.APIKey,
			BaseURL:  cfg.Assistant.BaseURL,
			Model:    cfg.Assistant.Model,
		})
		if err != nil {
			app.Close()
			return nil, err
		}
	}
	app.Assistant = assistant.New(model,
		assistant.WithLogger(logger),
		assistant.WithObserver(app.Metrics.ObserveExternal),
	)

	app.Sync = bkn.New(
		bkn.WithDelay(cfg.Sync.MinDelay, cfg.Sync.MaxDelay),
		bkn.WithFailureRate(cfg.Sync.FailureRate),
		bkn.WithLogger(logger),
		bkn.WithObserver(app.Metrics.ObserveExternal),
	)

	return app, nil
}

// HTTPHandler returns the REST API over every service.
func (a *App) HTTPHandler() (http.Handler, error) {
	return httpAdapter.NewHandler(httpAdapter.Dependencies{
		Troubleshoot: a.Troubleshoot,
		Auth:         a.Auth,
		FAQs:         a.FAQs,
		Tickets:      a.Tickets,
		Users:        a.Users,
		Templates:    a.Templates,
		Assistant:    a.Assistant,
		Sync:         a.Sync,
		Stats:        a.Stats,
		Metrics:      a.Metrics,
		Logger:       a.Logger,
		Version:      Version,
	})
}

// MCPServer returns the MCP adapter over the troubleshooting flow and the FAQ.
func (a *App) MCPServer() *mcp.Server {
	return mcp.NewServer(a.Troubleshoot, a.FAQs, Version, mcp.WithLogger(a.Logger))
}

// Close stops the event consumers and releases the session store and log file.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
	}
	errs = append(errs, a.closeStores())
	return errors.Join(errs...)
}

// closeStores releases the session store and the log file.
func (a *App) closeStores() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
