package session

import (
	"context"
	"testing"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/benmeehan/hydro-controller/tests/mocks"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// cachingGateway adds the cached-telemetry capability to the mock gateway.
type cachingGateway struct {
	*mocks.MockGateway
	latest models.DeviceStatusSnapshot
}

func (g *cachingGateway) Latest() (models.DeviceStatusSnapshot, bool) {
	return g.latest, true
}

func newTestManager(t *testing.T) (*Manager, *mocks.MockGateway, *mocks.MockRecorder) {
	t.Helper()
	gw := new(mocks.MockGateway)
	gw.On("Connected").Return(false).Maybe()
	rec := new(mocks.MockRecorder)
	return NewManager(gw, rec, time.Minute, zerolog.Nop()), gw, rec
}

func TestGetOrCreate(t *testing.T) {
	m, _, _ := newTestManager(t)

	s, created := m.GetOrCreate("")
	require.True(t, created)
	_, err := uuid.Parse(s.ID())
	require.NoError(t, err)
	assert.False(t, s.View().Connected)

	again, created := m.GetOrCreate(s.ID())
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := m.GetOrCreate("not-a-session-id")
	assert.True(t, created)
	assert.NotEqual(t, s.ID(), other.ID())

	unknown, created := m.GetOrCreate(uuid.NewString())
	assert.True(t, created)
	assert.NotSame(t, s, unknown)
	assert.Equal(t, 3, m.Count())
}

func TestGetOrCreate_SeedsFromCachedTelemetry(t *testing.T) {
	mg := new(mocks.MockGateway)
	mg.On("Connected").Return(true).Maybe()
	gw := &cachingGateway{MockGateway: mg, latest: snapshotAt(66, models.PumpOn, time.Now())}
	m := NewManager(gw, nil, time.Minute, zerolog.Nop())

	s, _ := m.GetOrCreate("")
	v := s.View()
	assert.Equal(t, 66, v.Moisture)
	assert.Equal(t, models.PumpOn, v.PumpState)
	assert.Len(t, v.History, 1)
}

func TestBroadcast_FansOutToEverySession(t *testing.T) {
	m, _, rec := newTestManager(t)
	rec.On("RecordReading", mock.Anything)

	a, _ := m.GetOrCreate("")
	b, _ := m.GetOrCreate("")

	m.Broadcast(snapshotAt(35, models.PumpOff, time.Now()))

	assert.Equal(t, 35, a.View().Moisture)
	assert.Equal(t, 35, b.View().Moisture)
	rec.AssertNumberOfCalls(t, "RecordReading", 1)
}

func TestBroadcast_LogsDeviceReportedPumpChanges(t *testing.T) {
	m, _, rec := newTestManager(t)
	rec.On("RecordReading", mock.Anything)
	rec.On("RecordPumpAction", models.PumpOn, constants.TriggerDevice, 20).Once()

	m.Broadcast(snapshotAt(22, models.PumpOff, time.Now()))
	m.Broadcast(snapshotAt(21, models.PumpOff, time.Now()))
	m.Broadcast(snapshotAt(20, models.PumpOn, time.Now()))

	rec.AssertExpectations(t)
	rec.AssertNumberOfCalls(t, "RecordPumpAction", 1)
}

func TestBroadcast_ManualCommandIsNotLoggedTwice(t *testing.T) {
	m, gw, rec := newTestManager(t)
	gw.On("SendPumpCommand", mock.Anything, models.PumpOn).Return(nil).Once()
	rec.On("RecordReading", mock.Anything)
	rec.On("RecordPumpAction", models.PumpOn, constants.TriggerManual, 30).Once()

	s, _ := m.GetOrCreate("")
	m.Broadcast(snapshotAt(30, models.PumpOff, time.Now()))
	require.NoError(t, s.SetPump(context.Background(), models.PumpOn))
	m.Broadcast(snapshotAt(29, models.PumpOn, time.Now()))

	rec.AssertExpectations(t)
	rec.AssertNumberOfCalls(t, "RecordPumpAction", 1)
}

func TestSessionsAreIsolated(t *testing.T) {
	m, gw, rec := newTestManager(t)
	gw.On("SendPumpCommand", mock.Anything, models.PumpOn).Return(nil)
	rec.On("RecordPumpAction", mock.Anything, mock.Anything, mock.Anything)
	rec.On("RecordSchedule", mock.Anything)

	a, _ := m.GetOrCreate("")
	b, _ := m.GetOrCreate("")

	require.NoError(t, a.SetPump(context.Background(), models.PumpOn))
	_, err := a.AddSchedule("Everyday", "06:00", "06:30", true)
	require.NoError(t, err)

	assert.Equal(t, models.PumpOn, a.PumpState())
	assert.Equal(t, models.PumpOff, b.PumpState())
	assert.Len(t, a.Schedules(), 1)
	assert.Empty(t, b.Schedules())
}

func TestSetConnected_Propagates(t *testing.T) {
	m, _, _ := newTestManager(t)
	a, _ := m.GetOrCreate("")
	b, _ := m.GetOrCreate("")

	m.SetConnected(true)

	assert.True(t, a.View().Connected)
	assert.True(t, b.View().Connected)
}

func TestExpire_RemovesIdleSessions(t *testing.T) {
	m, _, _ := newTestManager(t)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	idle, _ := m.GetOrCreate("")
	watch, _ := idle.Watch()

	now = now.Add(30 * time.Second)
	active, _ := m.GetOrCreate("")

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, m.Expire())

	_, ok := m.Get(idle.ID())
	assert.False(t, ok)
	_, ok = m.Get(active.ID())
	assert.True(t, ok)

	_, open := <-watch
	assert.False(t, open)
}

func TestClose_RemovesEverySession(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.GetOrCreate("")
	m.GetOrCreate("")

	m.Close()
	assert.Equal(t, 0, m.Count())
}
