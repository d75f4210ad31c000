package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter  EventType = "node_enter"
	EventResolved   EventType = "resolved"
	EventEscalation EventType = "escalation"
)

// NodeEvent is emitted when a session lands on a node.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	NodeID    string    `json:"node_id"`
	Kind      NodeKind  `json:"kind"`
	Depth     int       `json:"depth"`
}

// LifecycleHooks defines callbacks for troubleshooting observability.
// OnResolved fires for terminals without a contact trigger, OnEscalation for those with one.
type LifecycleHooks struct {
	OnNodeEnter  func(context.Context, *NodeEvent)
	OnResolved   func(context.Context, *NodeEvent)
	OnEscalation func(context.Context, *NodeEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:  chain(h.OnNodeEnter, other.OnNodeEnter),
		OnResolved:   chain(h.OnResolved, other.OnResolved),
		OnEscalation: chain(h.OnEscalation, other.OnEscalation),
	}
}

func chain(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
