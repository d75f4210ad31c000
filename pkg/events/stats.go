package events

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/bytedance/sonic"
)

// Snapshot is a point-in-time copy of the aggregated counters.
type Snapshot struct {
	Resolved         map[string]int `json:"resolved"`
	Escalated        map[string]int `json:"escalated"`
	TotalResolved    int            `json:"total_resolved"`
	TotalEscalated   int            `json:"total_escalated"`
	TicketsSubmitted int            `json:"tickets_submitted"`
	TicketsResponded int            `json:"tickets_responded"`
}

// Stats counts outcomes and ticket activity seen on a Bus.
type Stats struct {
	mu        sync.RWMutex
	resolved  map[string]int
	escalated map[string]int
	tickets   map[TicketEventType]int
	logger    *slog.Logger
}

// NewStats creates an empty aggregator.
func NewStats(logger *slog.Logger) *Stats {
	return &Stats{
		resolved:  make(map[string]int),
		escalated: make(map[string]int),
		tickets:   make(map[TicketEventType]int),
		logger:    logger,
	}
}

// Consume subscribes to both topics and aggregates in the background until ctx is done.
func (s *Stats) Consume(ctx context.Context, bus *Bus) error {
	outcomes, err := bus.Subscribe(ctx, TopicOutcomes)
	if err != nil {
		return err
	}
	tickets, err := bus.Subscribe(ctx, TopicTickets)
	if err != nil {
		return err
	}

	go s.drain(outcomes, s.applyOutcome)
	go s.drain(tickets, s.applyTicket)
	return nil
}

func (s *Stats) drain(messages <-chan *message.Message, apply func([]byte) error) {
	for msg := range messages {
		if err := apply(msg.Payload); err != nil && s.logger != nil {
			s.logger.Warn("discarding malformed event", "uuid", msg.UUID, "err", err)
		}
		// Malformed payloads are acked too; redelivery would fail the same way.
		msg.Ack()
	}
}

func (s *Stats) applyOutcome(payload []byte) error {
	var e domain.NodeEvent
	if err := sonic.Unmarshal(payload, &e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e.Type {
	case domain.EventEscalation:
		s.escalated[e.NodeID]++
	case domain.EventResolved:
		s.resolved[e.NodeID]++
	}
	return nil
}

func (s *Stats) applyTicket(payload []byte) error {
	var e TicketEvent
	if err := sonic.Unmarshal(payload, &e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[e.Type]++
	return nil
}

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Resolved:         maps.Clone(s.resolved),
		Escalated:        maps.Clone(s.escalated),
		TicketsSubmitted: s.tickets[TicketSubmitted],
		TicketsResponded: s.tickets[TicketResponded],
	}
	for _, n := range s.resolved {
		snap.TotalResolved += n
	}
	for _, n := range s.escalated {
		snap.TotalEscalated += n
	}
	return snap
}
