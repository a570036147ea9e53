package tracking

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// SinkFactory builds the event sink for one session, typically a stream
// hub broadcaster keyed by the session id.
type SinkFactory func(sessionID string) EventSink

// Manager owns the live engines, one per running or paused session. Each
// engine exclusively owns its TrackingState; the manager only routes
// commands and fixes to it.
type Manager struct {
	sinks    SinkFactory
	provider Provider

	mu          sync.RWMutex
	engines     map[string]*Engine
	positioning map[string]*PositioningSession
}

func NewManager(sinks SinkFactory, provider Provider) *Manager {
	return &Manager{
		sinks:       sinks,
		provider:    provider,
		engines:     map[string]*Engine{},
		positioning: map[string]*PositioningSession{},
	}
}

// StartSession allocates a fresh engine, starts its timer and, when a
// provider is configured, opens the positioning subscription.
func (m *Manager) StartSession(ctx context.Context, activityType string) (*Engine, error) {
	if activityType == "" {
		activityType = "Outdoor Run"
	}

	id := uuid.NewString()
	var sink EventSink
	if m.sinks != nil {
		sink = m.sinks(id)
	}
	engine := NewEngine(id, activityType, sink)
	if err := engine.Start(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.engines[id] = engine
	m.mu.Unlock()

	if m.provider != nil {
		ps, err := StartPositioning(ctx, m.provider, engine)
		if err != nil {
			// Fixes can still arrive over HTTP or MQTT; the session
			// stays up in a searching state.
			engine.MarkSearching()
		} else {
			m.mu.Lock()
			m.positioning[id] = ps
			m.mu.Unlock()
		}
	}
	return engine, nil
}

func (m *Manager) Session(id string) (*Engine, error) {
	m.mu.RLock()
	engine, ok := m.engines[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return engine, nil
}

// Dispatch forwards a raw fix to a live session.
func (m *Manager) Dispatch(sessionID string, fix GeoFix) error {
	engine, err := m.Session(sessionID)
	if err != nil {
		return err
	}
	engine.HandleFix(fix)
	return nil
}

// Finish ends a paused session, tears down its positioning subscription
// before the record escapes, and forgets the engine.
func (m *Manager) Finish(id string) (SessionRecord, error) {
	engine, err := m.Session(id)
	if err != nil {
		return SessionRecord{}, err
	}
	record, err := engine.Finish()
	if err != nil {
		return SessionRecord{}, err
	}
	// The engine is already done, so any fix racing this teardown is a
	// no-op before the subscription actually closes.
	m.stopPositioning(id)
	m.forget(id)
	return record, nil
}

// Cancel discards a session without creating a record.
func (m *Manager) Cancel(id string) error {
	engine, err := m.Session(id)
	if err != nil {
		return err
	}
	if err := engine.Cancel(); err != nil {
		return err
	}
	m.stopPositioning(id)
	m.forget(id)
	return nil
}

// Shutdown cancels every live session, for process teardown.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.engines))
	for id := range m.engines {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		_ = m.Cancel(id)
	}
}

func (m *Manager) stopPositioning(id string) {
	m.mu.Lock()
	ps := m.positioning[id]
	delete(m.positioning, id)
	m.mu.Unlock()
	if ps != nil {
		ps.Stop()
	}
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	delete(m.engines, id)
	m.mu.Unlock()
}
