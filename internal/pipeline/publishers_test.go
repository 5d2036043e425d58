package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road-monitor/internal/domain"
)

type recordingHub struct {
	mu   sync.Mutex
	msgs []*domain.FeedMessage
}

func (h *recordingHub) Broadcast(msg *domain.FeedMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
}

func (h *recordingHub) messages() []*domain.FeedMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*domain.FeedMessage(nil), h.msgs...)
}

type recordingStateSink struct {
	mu      sync.Mutex
	updates []*domain.StateUpdate
	err     error
}

func (s *recordingStateSink) UpdateSessionState(ctx context.Context, st *domain.StateUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, st)
	return s.err
}

type recordingFeedSink struct {
	mu   sync.Mutex
	msgs []*domain.FeedMessage
}

func (s *recordingFeedSink) PublishFeed(ctx context.Context, msg *domain.FeedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

type recordingAuditSink struct {
	mu        sync.Mutex
	inserts   []*domain.AlertEvent
	dismissed []*domain.AlertEvent
	failures  int
}

func (s *recordingAuditSink) InsertAlertEvent(ctx context.Context, ev *domain.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	s.inserts = append(s.inserts, ev)
	return nil
}

func (s *recordingAuditSink) MarkDismissed(ctx context.Context, ev *domain.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed = append(s.dismissed, ev)
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestStatePublisherFansOut(t *testing.T) {
	ch := make(chan *domain.StateUpdate, 4)
	sink := &recordingStateSink{}
	hub := &recordingHub{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewStatePublisher(ch, sink, hub).Run(ctx)

	score := 42
	ch <- &domain.StateUpdate{SessionID: "s1", Lat: 26.9, Lon: 75.8, SpeedKmh: 54, RiskScore: &score}

	waitFor(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.updates) == 1
	})

	msgs := hub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.FeedState, msgs[0].Type)
	assert.Equal(t, "s1", msgs[0].SessionID)
}

func TestStatePublisherSurvivesSinkError(t *testing.T) {
	ch := make(chan *domain.StateUpdate, 4)
	sink := &recordingStateSink{err: errors.New("redis down")}
	hub := &recordingHub{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewStatePublisher(ch, sink, hub).Run(ctx)

	ch <- &domain.StateUpdate{SessionID: "s1", SpeedKmh: 10}
	ch <- &domain.StateUpdate{SessionID: "s1", SpeedKmh: 20}

	waitFor(t, func() bool { return len(hub.messages()) == 2 })
}

func TestFeedPublisherFansOut(t *testing.T) {
	ch := make(chan *domain.FeedMessage, 4)
	sink := &recordingFeedSink{}
	hub := &recordingHub{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewFeedPublisher(ch, sink, hub).Run(ctx)

	ch <- &domain.FeedMessage{Type: domain.FeedBanner, SessionID: "s1"}

	waitFor(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.msgs) == 1
	})
	require.Len(t, hub.messages(), 1)
	assert.Equal(t, domain.FeedBanner, hub.messages()[0].Type)
}

func TestAuditWriterRetriesOnce(t *testing.T) {
	ch := make(chan AuditOp, 4)
	sink := &recordingAuditSink{failures: 1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewAuditWriter(ch, sink).Run(ctx)

	ch <- AuditOp{Kind: AuditActivate, Event: &domain.AlertEvent{AlertID: "a1", Score: 88}}

	waitFor(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.inserts) == 1
	})
}

func TestAuditWriterDismiss(t *testing.T) {
	ch := make(chan AuditOp, 4)
	sink := &recordingAuditSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewAuditWriter(ch, sink).Run(ctx)

	now := time.Now()
	ch <- AuditOp{Kind: AuditDismiss, Event: &domain.AlertEvent{AlertID: "a1", DismissedAt: &now, AutoDismissed: true}}

	waitFor(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.dismissed) == 1
	})
	assert.True(t, sink.dismissed[0].AutoDismissed)
}
