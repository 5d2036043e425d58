package pipeline

import (
	"road-monitor/internal/domain"
	"road-monitor/internal/metrics"
)

// AuditKind distinguishes the two writes made to the alert audit log.
type AuditKind int

const (
	AuditActivate AuditKind = iota
	AuditDismiss
)

type AuditOp struct {
	Kind  AuditKind
	Event *domain.AlertEvent
}

// Dispatcher fans pipeline output onto the downstream worker channels.
// Sends never block the event loop: a full channel drops the message and
// bumps the corresponding counter.
type Dispatcher struct {
	StateChan chan *domain.StateUpdate
	FeedChan  chan *domain.FeedMessage
	AuditChan chan AuditOp
}

func NewDispatcher(stateSize, feedSize, auditSize int) *Dispatcher {
	return &Dispatcher{
		StateChan: make(chan *domain.StateUpdate, stateSize),
		FeedChan:  make(chan *domain.FeedMessage, feedSize),
		AuditChan: make(chan AuditOp, auditSize),
	}
}

func (d *Dispatcher) DispatchState(st *domain.StateUpdate) {
	select {
	case d.StateChan <- st:
	default:
		metrics.StateChannelDrops.Add(1)
	}
}

func (d *Dispatcher) DispatchFeed(msg *domain.FeedMessage) {
	select {
	case d.FeedChan <- msg:
	default:
		metrics.FeedChannelDrops.Add(1)
	}
}

func (d *Dispatcher) DispatchAudit(op AuditOp) {
	select {
	case d.AuditChan <- op:
	default:
		metrics.AuditChannelDrops.Add(1)
	}
}
