package pipeline

import (
	"context"
	"log"
	"time"

	"road-monitor/internal/domain"
)

// StateSink receives live position/speed snapshots.
type StateSink interface {
	UpdateSessionState(ctx context.Context, st *domain.StateUpdate) error
}

// FeedSink mirrors feed messages onto an external channel (Redis).
type FeedSink interface {
	PublishFeed(ctx context.Context, msg *domain.FeedMessage) error
}

// Broadcaster pushes feed messages to connected WebSocket clients.
type Broadcaster interface {
	Broadcast(msg *domain.FeedMessage)
}

// AuditSink persists alert activations and dismissals.
type AuditSink interface {
	InsertAlertEvent(ctx context.Context, ev *domain.AlertEvent) error
	MarkDismissed(ctx context.Context, ev *domain.AlertEvent) error
}

// StatePublisher drains the state channel into Redis and the WebSocket
// hub. A failed Redis write is logged and skipped; the next sample
// supersedes it anyway.
type StatePublisher struct {
	ch    <-chan *domain.StateUpdate
	redis StateSink
	hub   Broadcaster
}

func NewStatePublisher(ch <-chan *domain.StateUpdate, redis StateSink, hub Broadcaster) *StatePublisher {
	return &StatePublisher{ch: ch, redis: redis, hub: hub}
}

func (p *StatePublisher) Run(ctx context.Context) {
	for {
		select {
		case st, ok := <-p.ch:
			if !ok {
				return
			}
			if p.hub != nil {
				p.hub.Broadcast(&domain.FeedMessage{
					Type:      domain.FeedState,
					SessionID: st.SessionID,
					SentAt:    time.Now(),
					Payload:   st,
				})
			}
			if p.redis != nil {
				if err := p.redis.UpdateSessionState(ctx, st); err != nil {
					log.Printf("state publish failed for %s: %v", st.SessionID, err)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// FeedPublisher drains the feed channel (alert channel payloads,
// dismissals, weather updates) to the hub and the Redis mirror.
type FeedPublisher struct {
	ch    <-chan *domain.FeedMessage
	redis FeedSink
	hub   Broadcaster
}

func NewFeedPublisher(ch <-chan *domain.FeedMessage, redis FeedSink, hub Broadcaster) *FeedPublisher {
	return &FeedPublisher{ch: ch, redis: redis, hub: hub}
}

func (p *FeedPublisher) Run(ctx context.Context) {
	for {
		select {
		case msg, ok := <-p.ch:
			if !ok {
				return
			}
			if p.hub != nil {
				p.hub.Broadcast(msg)
			}
			if p.redis != nil {
				if err := p.redis.PublishFeed(ctx, msg); err != nil {
					log.Printf("feed publish failed (%s): %v", msg.Type, err)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// AuditWriter drains alert audit ops into Postgres, retrying once before
// giving up on a write.
type AuditWriter struct {
	ch <-chan AuditOp
	db AuditSink
}

func NewAuditWriter(ch <-chan AuditOp, db AuditSink) *AuditWriter {
	return &AuditWriter{ch: ch, db: db}
}

func (w *AuditWriter) Run(ctx context.Context) {
	for {
		select {
		case op, ok := <-w.ch:
			if !ok {
				return
			}
			w.write(ctx, op)

		case <-ctx.Done():
			return
		}
	}
}

func (w *AuditWriter) write(ctx context.Context, op AuditOp) {
	if err := w.apply(ctx, op); err != nil {
		log.Printf("alert audit write failed, retrying: %v", err)
		time.Sleep(500 * time.Millisecond)
		if err := w.apply(ctx, op); err != nil {
			log.Printf("alert audit write permanently failed for %s: %v", op.Event.AlertID, err)
		}
	}
}

func (w *AuditWriter) apply(ctx context.Context, op AuditOp) error {
	if op.Kind == AuditDismiss {
		return w.db.MarkDismissed(ctx, op.Event)
	}
	return w.db.InsertAlertEvent(ctx, op.Event)
}
