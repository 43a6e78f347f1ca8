package session

import (
	"sync"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/gateway"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// latestSource is implemented by gateways that cache pushed telemetry.
type latestSource interface {
	Latest() (models.DeviceStatusSnapshot, bool)
}

// Manager owns every live session and fans device events out to them.
type Manager struct {
	gateway  gateway.Gateway
	recorder Recorder
	ttl      time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	sessions cmap.ConcurrentMap[string, *Session]

	pumpMu   sync.Mutex
	lastPump *models.PumpState
}

// NewManager creates a Manager. A non-positive ttl uses the default idle timeout.
func NewManager(gw gateway.Gateway, recorder Recorder, ttl time.Duration, logger zerolog.Logger) *Manager {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &Manager{
		gateway:  gw,
		recorder: recorder,
		ttl:      ttl,
		logger:   logger.With().Str("component", "session_manager").Logger(),
		now:      time.Now,
		sessions: cmap.New[*Session](),
	}
}

// GetOrCreate returns the session for id, creating a new one when id is
// unknown or not a valid session id. The bool reports whether it was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err == nil {
		if s, ok := m.sessions.Get(id); ok {
			s.Touch()
			return s, false
		}
	}

	s := m.newSession(uuid.NewString())
	m.sessions.Set(s.ID(), s)
	m.logger.Debug().Str("session", s.ID()).Msg("Session created")
	return s, true
}

func (m *Manager) newSession(id string) *Session {
	s := New(id, m.gateway, m.recorder, m.logger)
	s.now = m.now
	s.lastSeen = m.now()
	s.onPump = m.NotePump
	if src, ok := m.gateway.(latestSource); ok {
		if snapshot, ok := src.Latest(); ok {
			s.Ingest(snapshot)
		}
	}
	return s
}

// Get returns an existing session.
func (m *Manager) Get(id string) (*Session, bool) {
	return m.sessions.Get(id)
}

func (m *Manager) Count() int {
	return m.sessions.Count()
}

// Broadcast records a device status once and applies it to every session.
// A change of the device-reported pump state is logged as a device action.
func (m *Manager) Broadcast(snapshot models.DeviceStatusSnapshot) {
	m.recorder.RecordReading(snapshot)

	m.pumpMu.Lock()
	changed := m.lastPump != nil && *m.lastPump != snapshot.PumpState
	state := snapshot.PumpState
	m.lastPump = &state
	m.pumpMu.Unlock()
	if changed {
		m.recorder.RecordPumpAction(snapshot.PumpState, constants.TriggerDevice, snapshot.MoisturePercent)
	}

	for item := range m.sessions.IterBuffered() {
		item.Val.Ingest(snapshot)
	}
}

// NotePump records a pump state commanded from the dashboard, so the
// device confirming it is not logged again as a device action.
func (m *Manager) NotePump(state models.PumpState) {
	m.pumpMu.Lock()
	m.lastPump = &state
	m.pumpMu.Unlock()
}

// SetConnected propagates a gateway connectivity transition to every session.
func (m *Manager) SetConnected(connected bool) {
	m.logger.Info().Bool("connected", connected).Msg("Gateway connectivity changed")
	for item := range m.sessions.IterBuffered() {
		item.Val.SetConnected(connected)
	}
}

// Expire removes sessions idle for longer than the TTL and returns how many were removed.
func (m *Manager) Expire() int {
	cutoff := m.now().Add(-m.ttl)
	removed := 0
	for item := range m.sessions.IterBuffered() {
		if !item.Val.LastSeen().Before(cutoff) {
			continue
		}
		expired := m.sessions.RemoveCb(item.Key, func(_ string, s *Session, exists bool) bool {
			return exists && s.LastSeen().Before(cutoff)
		})
		if expired {
			item.Val.Close()
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug().Int("removed", removed).Int("remaining", m.sessions.Count()).Msg("Expired idle sessions")
	}
	return removed
}

// Close tears down every session.
func (m *Manager) Close() {
	for item := range m.sessions.IterBuffered() {
		m.sessions.Remove(item.Key)
		item.Val.Close()
	}
}
