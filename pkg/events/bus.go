// Package events carries troubleshooting outcomes and ticket activity over an
// in-process watermill pub/sub, and aggregates them for the admin dashboard.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/aretw0/skphelp/internal/logging"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/bytedance/sonic"
)

// Topics.
const (
	TopicOutcomes = "troubleshoot.outcomes"
	TopicTickets  = "helpdesk.tickets"
)

// TicketEventType tags ticket activity.
type TicketEventType string

const (
	TicketSubmitted TicketEventType = "submitted"
	TicketResponded TicketEventType = "responded"
)

// TicketEvent is published whenever a ticket is created or answered.
type TicketEvent struct {
	Timestamp time.Time           `json:"timestamp"`
	Type      TicketEventType     `json:"type"`
	TicketID  string              `json:"ticket_id"`
	NIP       string              `json:"nip"`
	Category  string              `json:"category"`
	Status    domain.TicketStatus `json:"status"`
}

// Bus wraps a watermill GoChannel. Messages published with no subscriber are dropped.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
	now    func() time.Time
}

// NewBus creates an in-process bus. A nil logger discards watermill's own logs.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewSlogLogger(logger),
		),
		logger: logger,
		now:    time.Now,
	}
}

// Publish encodes payload as JSON and publishes it on topic.
func (b *Bus) Publish(topic string, payload any) error {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	return nil
}

// Subscribe returns the message stream of topic. The channel closes when ctx is done.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Hooks publishes every terminal outcome on TopicOutcomes.
func (b *Bus) Hooks() domain.LifecycleHooks {
	publish := func(ctx context.Context, e *domain.NodeEvent) {
		if err := b.Publish(TopicOutcomes, e); err != nil {
			b.logger.Warn("dropping outcome event", "session_id", e.SessionID, "err", err)
		}
	}
	return domain.LifecycleHooks{OnResolved: publish, OnEscalation: publish}
}

// TicketSubmitted publishes a TicketSubmitted event.
func (b *Bus) TicketSubmitted(ctx context.Context, t domain.Ticket) {
	b.publishTicket(TicketSubmitted, t)
}

// TicketResponded publishes a TicketResponded event.
func (b *Bus) TicketResponded(ctx context.Context, t domain.Ticket) {
	b.publishTicket(TicketResponded, t)
}

func (b *Bus) publishTicket(typ TicketEventType, t domain.Ticket) {
	evt := TicketEvent{
		Timestamp: b.now().UTC(),
		Type:      typ,
		TicketID:  t.ID,
		NIP:       t.NIP,
		Category:  t.Category,
		Status:    t.Status,
	}
	if err := b.Publish(TopicTickets, evt); err != nil {
		b.logger.Warn("dropping ticket event", "ticket_id", t.ID, "err", err)
	}
}

// Close stops the bus and closes every subscription.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
