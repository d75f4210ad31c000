// Package troubleshoot runs guided troubleshooting sessions over the decision graph.
package troubleshoot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/skphelp/internal/logging"
	"github.com/aretw0/skphelp/internal/runtime"
	"github.com/aretw0/skphelp/pkg/directory"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/aretw0/skphelp/pkg/session"
	"github.com/google/uuid"
)

// Service is the session-level API over the navigator.
// Every mutation is a locked read-modify-write through the session manager.
type Service struct {
	graph    ports.GraphStore
	contacts *directory.Directory
	sessions *session.Manager
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithIDGenerator replaces the random session id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service.
func New(g ports.GraphStore, contacts *directory.Directory, sessions *session.Manager, opts ...Option) *Service {
	s := &Service{
		graph:    g,
		contacts: contacts,
		sessions: sessions,
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Graph returns the graph sessions walk over.
func (s *Service) Graph() ports.GraphStore {
	return s.graph
}

// Contacts returns the escalation directory.
func (s *Service) Contacts() *directory.Directory {
	return s.contacts
}

// Watch calls fn with the path change of every committed Advance, Back or
// Reset, whichever surface made it. Diffs of one session arrive in commit
// order, each against the state it replaced. The returned func stops the watch.
func (s *Service) Watch(fn func(context.Context, *domain.StateDiff)) func() {
	return s.sessions.OnChange(func(ctx context.Context, before, after *domain.State) {
		if diff := domain.Diff(before, after); diff != nil {
			fn(ctx, diff)
		}
	})
}

// Start opens a new session at the root.
func (s *Service) Start(ctx context.Context) (*View, error) {
	return s.Open(ctx, s.newID())
}

// Open resumes sessionID, creating it at the root when it does not exist yet.
func (s *Service) Open(ctx context.Context, sessionID string) (*View, error) {
	if sessionID == "" {
		sessionID = s.newID()
	}
	state, err := s.sessions.Load(ctx, sessionID)
	if err == nil {
		return s.render(ctx, state)
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}

	state, err = s.sessions.LoadOrStart(ctx, sessionID, s.graph.Root())
	if err != nil {
		return nil, err
	}
	s.logger.Info("troubleshooting session started", "session_id", sessionID)
	s.emitEnter(ctx, state)
	return s.render(ctx, state)
}

// Get returns the current view of a session.
func (s *Service) Get(ctx context.Context, sessionID string) (*View, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, state)
}

// Advance follows the option leading to nextID.
// An invalid choice leaves the session unchanged and returns ErrInvalidTransition.
func (s *Service) Advance(ctx context.Context, sessionID, nextID string) (*View, error) {
	state, err := s.sessions.Update(ctx, sessionID, func(st *domain.State) error {
		nav := runtime.Resume(s.graph, st.Path)
		if err := nav.Advance(nextID); err != nil {
			return err
		}
		st.Path = nav.Path()
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownNode) {
			return s.resetAfter(ctx, sessionID, err)
		}
		if errors.Is(err, domain.ErrInvalidTransition) {
			s.logger.Debug("rejected transition", "session_id", sessionID, "err", err)
		}
		return nil, err
	}

	s.logger.Debug("advanced", "session_id", sessionID, "node_id", state.Path.Current())
	s.emitEnter(ctx, state)
	return s.render(ctx, state)
}

// Back returns to the previous node. It is a no-op at the root.
func (s *Service) Back(ctx context.Context, sessionID string) (*View, error) {
	var moved bool
	state, err := s.sessions.Update(ctx, sessionID, func(st *domain.State) error {
		nav := runtime.Resume(s.graph, st.Path)
		moved = nav.Depth() > 1
		nav.Back()
		st.Path = nav.Path()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if moved {
		s.emitEnter(ctx, state)
	}
	return s.render(ctx, state)
}

// Reset moves the session back to the root.
func (s *Service) Reset(ctx context.Context, sessionID string) (*View, error) {
	state, err := s.sessions.Update(ctx, sessionID, func(st *domain.State) error {
		nav := runtime.Resume(s.graph, st.Path)
		nav.Reset()
		st.Path = nav.Path()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitEnter(ctx, state)
	return s.render(ctx, state)
}

// End deletes the session.
func (s *Service) End(ctx context.Context, sessionID string) error {
	if _, err := s.sessions.Load(ctx, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	s.logger.Info("troubleshooting session ended", "session_id", sessionID)
	return nil
}

// render builds the view of state. A path pointing outside the graph is fatal
// to the session: it is reset to the root and the error is returned with the reset view.
func (s *Service) render(ctx context.Context, state *domain.State) (*View, error) {
	node, err := runtime.Resume(s.graph, state.Path).Current()
	if err != nil {
		return s.resetAfter(ctx, state.SessionID, err)
	}

	return &View{
		SessionID: state.SessionID,
		Path:      state.Path.Clone(),
		Node:      NewNodeView(node),
		Contacts:  s.contacts.ContactsFor(node),
		Progress:  Progress(len(state.Path)),
		CanGoBack: len(state.Path) > 1,
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.UpdatedAt,
	}, nil
}

func (s *Service) resetAfter(ctx context.Context, sessionID string, cause error) (*View, error) {
	s.logger.Error("session references a node missing from the graph; resetting to root",
		"session_id", sessionID,
		"err", cause,
	)

	root := s.graph.Root()
	state, err := s.sessions.Update(ctx, sessionID, func(st *domain.State) error {
		st.Path = domain.Path{root}
		return nil
	})
	if err != nil {
		return nil, errors.Join(cause, err)
	}

	node, ok := s.graph.Lookup(root)
	if !ok {
		return nil, errors.Join(cause, &domain.UnknownNodeError{ID: root})
	}
	return &View{
		SessionID: state.SessionID,
		Path:      state.Path.Clone(),
		Node:      NewNodeView(node),
		Contacts:  s.contacts.ContactsFor(node),
		Progress:  Progress(1),
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.UpdatedAt,
	}, cause
}

func (s *Service) emitEnter(ctx context.Context, state *domain.State) {
	node, ok := s.graph.Lookup(state.Path.Current())
	if !ok {
		return
	}
	evt := &domain.NodeEvent{
		Timestamp: s.now().UTC(),
		Type:      domain.EventNodeEnter,
		SessionID: state.SessionID,
		NodeID:    node.NodeID(),
		Kind:      node.Kind(),
		Depth:     len(state.Path),
	}
	if s.hooks.OnNodeEnter != nil {
		s.hooks.OnNodeEnter(ctx, evt)
	}
	if node.Kind() != domain.KindTerminal {
		return
	}

	final := *evt
	if domain.IsContactTrigger(node) {
		final.Type = domain.EventEscalation
		if s.hooks.OnEscalation != nil {
			s.hooks.OnEscalation(ctx, &final)
		}
		return
	}
	final.Type = domain.EventResolved
	if s.hooks.OnResolved != nil {
		s.hooks.OnResolved(ctx, &final)
	}
}
