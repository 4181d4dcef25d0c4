package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/afiatamanna06/csedu-web-sub001/internal/events"
)

// DefaultAuditTrailSize bounds the number of events kept for the admin view.
const DefaultAuditTrailSize = 200

// AuditService records session and account events to the log and keeps the
// most recent ones in memory.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu    sync.Mutex
	trail []events.Event
	next  int
	full  bool
}

// NewAuditService creates the service. size <= 0 uses DefaultAuditTrailSize.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, size int) *AuditService {
	if size <= 0 {
		size = DefaultAuditTrailSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		trail:      make([]events.Event, size),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventSessionEstablished, a.handleSessionEstablished)
	a.dispatcher.Subscribe(events.EventSessionCleared, a.handleSessionCleared)
	a.dispatcher.Subscribe(events.EventSessionDiscarded, a.handleSessionDiscarded)
	a.dispatcher.Subscribe(events.EventAuthFailed, a.handleAuthFailed)
	a.dispatcher.Subscribe(events.EventManagedUserAdded, a.handleManagedUserAdded)
}

func (a *AuditService) handleSessionEstablished(_ context.Context, event events.Event) error {
	a.logger.Info("SessionEstablished",
		zap.String("session_id", event.SessionID),
		zap.String("user_id", event.Identity.ID),
		zap.String("role", event.Identity.Role.String()))
	a.record(event)
	return nil
}

func (a *AuditService) handleSessionCleared(_ context.Context, event events.Event) error {
	a.logger.Info("SessionCleared",
		zap.String("session_id", event.SessionID),
		zap.String("user_id", event.Identity.ID))
	a.record(event)
	return nil
}

func (a *AuditService) handleSessionDiscarded(_ context.Context, event events.Event) error {
	a.logger.Warn("SessionDiscarded", zap.String("session_id", event.SessionID), zap.Any("payload", event.Payload))
	a.record(event)
	return nil
}

func (a *AuditService) handleAuthFailed(_ context.Context, event events.Event) error {
	a.logger.Info("AuthFailed", zap.Any("payload", event.Payload))
	a.record(event)
	return nil
}

func (a *AuditService) handleManagedUserAdded(_ context.Context, event events.Event) error {
	a.logger.Info("ManagedUserAdded",
		zap.String("admin_id", event.Identity.ID),
		zap.Any("payload", event.Payload))
	a.record(event)
	return nil
}

func (a *AuditService) record(event events.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trail[a.next] = event
	a.next = (a.next + 1) % len(a.trail)
	if a.next == 0 {
		a.full = true
	}
}

// Recent returns up to limit events, newest first. limit <= 0 returns all
// retained events.
func (a *AuditService) Recent(limit int) []events.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := a.next
	if a.full {
		count = len(a.trail)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]events.Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (a.next - i + len(a.trail)) % len(a.trail)
		out = append(out, a.trail[idx])
	}
	return out
}
