// Package session holds the dashboard state of one browser session and
// coordinates it with the device gateway.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/gateway"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/benmeehan/hydro-controller/internal/readings"
	"github.com/benmeehan/hydro-controller/internal/schedule"
	"github.com/benmeehan/hydro-controller/internal/status"
	"github.com/rs/zerolog"
)

// Notice levels.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// Notice is the last user-visible outcome of an action.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Session is the explicit per-user dashboard state. The reading buffer,
// pump state and connectivity flag are only touched under mu, so device
// pushes and user requests never interleave.
type Session struct {
	id       string
	gateway  gateway.Gateway
	recorder Recorder
	logger   zerolog.Logger
	now      func() time.Time

	buffer *readings.Buffer
	store  *schedule.Store
	onPump func(models.PumpState) // set by Manager

	mu        sync.RWMutex
	pump      models.PumpState
	latest    *models.DeviceStatusSnapshot
	connected bool
	notice    *Notice
	lastSeen  time.Time
	closed    bool
	watchers  map[chan struct{}]struct{}
}

// New creates a session bound to gw. recorder may be nil.
func New(id string, gw gateway.Gateway, recorder Recorder, logger zerolog.Logger) *Session {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	s := &Session{
		id:       id,
		gateway:  gw,
		recorder: recorder,
		logger:   logger.With().Str("session", id).Logger(),
		now:      time.Now,
		buffer:   readings.NewBuffer(constants.ReadingBufferCapacity),
		store:    schedule.NewStore(),
		pump:     models.PumpOff,
		watchers: make(map[chan struct{}]struct{}),
	}
	s.lastSeen = s.now()
	s.connected = gw.Connected()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Ingest applies a device status: the reading is buffered and the reported
// pump state replaces the current one.
func (s *Session) Ingest(snapshot models.DeviceStatusSnapshot) {
	s.mu.Lock()
	s.buffer.Append(snapshot.Reading())
	s.pump = snapshot.PumpState
	s.latest = &snapshot
	s.mu.Unlock()

	s.notify()
}

// Refresh fetches the device status once. On failure the session state is left as it was.
func (s *Session) Refresh(ctx context.Context) error {
	snapshot, err := s.gateway.FetchStatus(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Status refresh failed")
		s.setNotice(NoticeError, fmt.Sprintf("Could not read device status: %v", err))
		return err
	}

	// A cached snapshot already in the buffer is not a new reading.
	s.mu.RLock()
	stale := s.latest != nil && !snapshot.ReceivedAt.After(s.latest.ReceivedAt)
	s.mu.RUnlock()
	if stale {
		s.setNotice(NoticeInfo, fmt.Sprintf("No new readings since %s", snapshot.ReceivedAt.Format("15:04:05")))
		return nil
	}

	s.recorder.RecordReading(snapshot)
	s.Ingest(snapshot)
	return nil
}

// SetPump commands the pump. On success the pump state is updated
// optimistically; the device is not asked to confirm.
func (s *Session) SetPump(ctx context.Context, state models.PumpState) error {
	if err := s.gateway.SendPumpCommand(ctx, state); err != nil {
		s.logger.Warn().Err(err).Str("action", state.String()).Msg("Pump command failed")
		s.setNotice(NoticeError, fmt.Sprintf("Error controlling pump: %v", err))
		return err
	}

	s.mu.Lock()
	s.pump = state
	moisture := s.moistureLocked()
	s.mu.Unlock()

	s.recorder.RecordPumpAction(state, constants.TriggerManual, moisture)
	if s.onPump != nil {
		s.onPump(state)
	}
	s.logger.Info().Str("action", state.String()).Msg("Pump command sent")
	s.setNotice(NoticeSuccess, fmt.Sprintf("Pump turned %s successfully", state))
	return nil
}

// SetConnected records a gateway connectivity transition.
func (s *Session) SetConnected(connected bool) {
	s.mu.Lock()
	changed := s.connected != connected
	s.connected = connected
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Session) PumpState() models.PumpState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pump
}

func (s *Session) Readings() []models.Reading {
	return s.buffer.Readings()
}

// AddSchedule adds a watering window to the session's list.
func (s *Session) AddSchedule(day, start, end string, enabled bool) (models.ScheduleEntry, error) {
	entry, err := s.store.AddSchedule(day, start, end, enabled)
	if err != nil {
		return entry, err
	}
	s.recorder.RecordSchedule(entry)
	s.setNotice(NoticeSuccess, fmt.Sprintf("Schedule added for %s %s-%s", entry.Day, entry.StartTime, entry.EndTime))
	return entry, nil
}

// DeleteSchedule removes the schedule at its current list position.
func (s *Session) DeleteSchedule(index int) (models.ScheduleEntry, error) {
	entry, err := s.store.DeleteSchedule(index)
	if err != nil {
		return entry, err
	}
	s.recorder.ForgetSchedule(entry.ID)
	s.setNotice(NoticeInfo, "Schedule deleted")
	return entry, nil
}

// DeleteScheduleByID removes the schedule carrying id.
func (s *Session) DeleteScheduleByID(id string) (models.ScheduleEntry, error) {
	entry, err := s.store.DeleteScheduleByID(id)
	if err != nil {
		return entry, err
	}
	s.recorder.ForgetSchedule(entry.ID)
	s.setNotice(NoticeInfo, "Schedule deleted")
	return entry, nil
}

// SetScheduleEnabled enables or disables the schedule carrying id.
func (s *Session) SetScheduleEnabled(id string, enabled bool) (models.ScheduleEntry, error) {
	entry, err := s.store.SetScheduleEnabled(id, enabled)
	if err != nil {
		return entry, err
	}
	s.recorder.RecordSchedule(entry)
	s.notify()
	return entry, nil
}

func (s *Session) Schedules() []models.ScheduleEntry {
	return s.store.Schedules()
}

// AddAlarm adds an alarm time to the session's list.
func (s *Session) AddAlarm(at string) (models.AlarmEntry, error) {
	alarm, err := s.store.AddAlarm(at)
	if err != nil {
		return alarm, err
	}
	s.setNotice(NoticeSuccess, fmt.Sprintf("Alarm set for %s", alarm.Time))
	return alarm, nil
}

// DeleteAlarm removes the alarm at its current list position.
func (s *Session) DeleteAlarm(index int) (models.AlarmEntry, error) {
	alarm, err := s.store.DeleteAlarm(index)
	if err != nil {
		return alarm, err
	}
	s.setNotice(NoticeInfo, "Alarm deleted")
	return alarm, nil
}

// DeleteAlarmByID removes the alarm carrying id.
func (s *Session) DeleteAlarmByID(id string) (models.AlarmEntry, error) {
	alarm, err := s.store.DeleteAlarmByID(id)
	if err != nil {
		return alarm, err
	}
	s.setNotice(NoticeInfo, "Alarm deleted")
	return alarm, nil
}

func (s *Session) Alarms() []models.AlarmEntry {
	return s.store.Alarms()
}

// View is an immutable snapshot of the session for rendering.
type View struct {
	SessionID     string                 `json:"session_id"`
	PumpState     models.PumpState       `json:"pump_status"`
	Moisture      int                    `json:"moisture"`
	Band          status.Band            `json:"band"`
	BandClass     string                 `json:"band_class"`
	Connected     bool                   `json:"connected"`
	WifiSignal    *int                   `json:"wifi_rssi,omitempty"`
	UptimeSeconds *int64                 `json:"uptime,omitempty"`
	LastUpdated   *time.Time             `json:"last_updated,omitempty"`
	History       []models.Reading       `json:"history"`
	Schedules     []models.ScheduleEntry `json:"schedules"`
	Alarms        []models.AlarmEntry    `json:"alarms"`
	Notice        *Notice                `json:"notice,omitempty"`
}

// View renders the current state.
func (s *Session) View() View {
	s.mu.RLock()
	moisture := s.moistureLocked()
	band := status.Classify(moisture)
	v := View{
		SessionID: s.id,
		PumpState: s.pump,
		Moisture:  moisture,
		Band:      band,
		BandClass: band.CSSClass(),
		Connected: s.connected,
		History:   s.buffer.Readings(),
		Schedules: s.store.Schedules(),
		Alarms:    s.store.Alarms(),
	}
	if s.latest != nil {
		v.WifiSignal = s.latest.WifiSignal
		v.UptimeSeconds = s.latest.UptimeSeconds
		at := s.latest.ReceivedAt
		v.LastUpdated = &at
	}
	if s.notice != nil {
		n := *s.notice
		v.Notice = &n
	}
	s.mu.RUnlock()
	return v
}

// moistureLocked is the latest known moisture, 0 before any reading.
func (s *Session) moistureLocked() int {
	if r, ok := s.buffer.Latest(); ok {
		return r.MoisturePercent
	}
	return 0
}

// Watch returns a channel that receives a signal after every state change,
// and a function that stops watching. Signals coalesce when the reader is slow.
func (s *Session) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.watchers[ch]; ok {
				delete(s.watchers, ch)
				close(ch)
			}
		})
	}
}

func (s *Session) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Session) setNotice(level, message string) {
	s.mu.Lock()
	s.notice = &Notice{Level: level, Message: message, At: s.now()}
	s.mu.Unlock()
	s.notify()
}

// Touch marks the session as used at the current time.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// Close releases all watchers. The session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}
}
