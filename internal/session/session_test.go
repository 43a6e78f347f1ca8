package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/gateway"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/benmeehan/hydro-controller/internal/schedule"
	"github.com/benmeehan/hydro-controller/internal/status"
	"github.com/benmeehan/hydro-controller/tests/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*Session, *mocks.MockGateway, *mocks.MockRecorder) {
	t.Helper()
	gw := new(mocks.MockGateway)
	gw.On("Connected").Return(true).Maybe()
	rec := new(mocks.MockRecorder)
	return New("test-session", gw, rec, zerolog.Nop()), gw, rec
}

func snapshotAt(moisture int, pump models.PumpState, at time.Time) models.DeviceStatusSnapshot {
	return models.DeviceStatusSnapshot{PumpState: pump, MoisturePercent: moisture, ReceivedAt: at}
}

func TestNew_Defaults(t *testing.T) {
	s, _, _ := newTestSession(t)

	v := s.View()
	assert.Equal(t, "test-session", v.SessionID)
	assert.Equal(t, models.PumpOff, v.PumpState)
	assert.Equal(t, 0, v.Moisture)
	assert.Equal(t, status.BandLow, v.Band)
	assert.True(t, v.Connected)
	assert.Empty(t, v.History)
	assert.Nil(t, v.LastUpdated)
	assert.Nil(t, v.Notice)
}

func TestIngest_AppendsReadingAndAppliesPumpState(t *testing.T) {
	s, _, _ := newTestSession(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s.Ingest(snapshotAt(72, models.PumpOn, at))

	v := s.View()
	assert.Equal(t, models.PumpOn, v.PumpState)
	assert.Equal(t, 72, v.Moisture)
	assert.Equal(t, status.BandGood, v.Band)
	assert.Equal(t, "moisture-good", v.BandClass)
	require.Len(t, v.History, 1)
	assert.Equal(t, at, v.History[0].Timestamp)
	require.NotNil(t, v.LastUpdated)
	assert.Equal(t, at, *v.LastUpdated)
}

func TestIngest_HistoryIsBounded(t *testing.T) {
	s, _, _ := newTestSession(t)
	start := time.Now()

	for i := 0; i < constants.ReadingBufferCapacity+20; i++ {
		s.Ingest(snapshotAt(i%101, models.PumpOff, start.Add(time.Duration(i)*time.Second)))
	}

	history := s.Readings()
	require.Len(t, history, constants.ReadingBufferCapacity)
	assert.Equal(t, 20, history[0].MoisturePercent)
}

func TestRefresh_Success(t *testing.T) {
	s, gw, rec := newTestSession(t)
	snapshot := snapshotAt(45, models.PumpOn, time.Now())
	gw.On("FetchStatus", mock.Anything).Return(snapshot, nil).Once()
	rec.On("RecordReading", snapshot).Once()

	require.NoError(t, s.Refresh(context.Background()))

	assert.Equal(t, models.PumpOn, s.PumpState())
	assert.Equal(t, 45, s.View().Moisture)
	assert.Equal(t, status.BandModerate, s.View().Band)
	gw.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestRefresh_SameSnapshotIsNotReadingAgain(t *testing.T) {
	s, gw, rec := newTestSession(t)
	cached := snapshotAt(42, models.PumpOff, time.Now())
	gw.On("FetchStatus", mock.Anything).Return(cached, nil).Times(3)
	rec.On("RecordReading", cached).Once()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Refresh(context.Background()))
	}

	assert.Len(t, s.Readings(), 1)
	v := s.View()
	require.NotNil(t, v.Notice)
	assert.Equal(t, NoticeInfo, v.Notice.Level)
	assert.True(t, v.Connected)
	rec.AssertNumberOfCalls(t, "RecordReading", 1)

	newer := snapshotAt(43, models.PumpOff, cached.ReceivedAt.Add(time.Second))
	gw.On("FetchStatus", mock.Anything).Return(newer, nil).Once()
	rec.On("RecordReading", newer).Once()

	require.NoError(t, s.Refresh(context.Background()))
	assert.Len(t, s.Readings(), 2)
	assert.Equal(t, 43, s.View().Moisture)
}

func TestRefresh_TimeoutLeavesStateUnchanged(t *testing.T) {
	s, gw, rec := newTestSession(t)
	s.Ingest(snapshotAt(50, models.PumpOn, time.Now()))
	before := s.View()

	timeoutErr := &gateway.GatewayError{Op: "fetch_status", Kind: gateway.ErrTimeout, Err: context.DeadlineExceeded}
	gw.On("FetchStatus", mock.Anything).Return(models.DeviceStatusSnapshot{}, timeoutErr).Once()

	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrTimeout))

	after := s.View()
	assert.Equal(t, before.PumpState, after.PumpState)
	assert.Equal(t, before.Moisture, after.Moisture)
	assert.Equal(t, before.History, after.History)
	require.NotNil(t, after.Notice)
	assert.Equal(t, NoticeError, after.Notice.Level)
	rec.AssertNotCalled(t, "RecordReading", mock.Anything)
}

func TestSetPump_OptimisticOnSuccess(t *testing.T) {
	s, gw, rec := newTestSession(t)
	s.Ingest(snapshotAt(25, models.PumpOff, time.Now()))

	gw.On("SendPumpCommand", mock.Anything, models.PumpOn).Return(nil).Once()
	rec.On("RecordPumpAction", models.PumpOn, constants.TriggerManual, 25).Once()

	require.NoError(t, s.SetPump(context.Background(), models.PumpOn))

	v := s.View()
	assert.Equal(t, models.PumpOn, v.PumpState)
	require.NotNil(t, v.Notice)
	assert.Equal(t, NoticeSuccess, v.Notice.Level)
	assert.Contains(t, v.Notice.Message, "ON")
	gw.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestSetPump_ErrorLeavesStateUnchanged(t *testing.T) {
	s, gw, rec := newTestSession(t)
	unreachable := &gateway.GatewayError{Op: "pump_command", Kind: gateway.ErrUnreachable}
	gw.On("SendPumpCommand", mock.Anything, models.PumpOn).Return(unreachable).Once()

	err := s.SetPump(context.Background(), models.PumpOn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrUnreachable))
	assert.Equal(t, models.PumpOff, s.PumpState())
	rec.AssertNotCalled(t, "RecordPumpAction", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetConnected(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.SetConnected(false)
	assert.False(t, s.View().Connected)
	s.SetConnected(true)
	assert.True(t, s.View().Connected)
}

func TestSchedules_PersistedThroughRecorder(t *testing.T) {
	s, _, rec := newTestSession(t)
	rec.On("RecordSchedule", mock.AnythingOfType("models.ScheduleEntry")).Twice()
	rec.On("ForgetSchedule", mock.AnythingOfType("string")).Once()

	entry, err := s.AddSchedule("Monday", "07:00", "07:05", true)
	require.NoError(t, err)
	assert.Equal(t, 5, entry.DurationMinutes)

	updated, err := s.SetScheduleEnabled(entry.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	_, err = s.DeleteSchedule(3)
	assert.ErrorIs(t, err, schedule.ErrIndexOutOfRange)

	deleted, err := s.DeleteSchedule(0)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, deleted.ID)
	assert.Empty(t, s.Schedules())
	rec.AssertExpectations(t)
	rec.AssertCalled(t, "ForgetSchedule", entry.ID)
}

func TestSchedules_InvalidInputNotRecorded(t *testing.T) {
	s, _, rec := newTestSession(t)

	_, err := s.AddSchedule("Someday", "07:00", "07:05", true)
	assert.ErrorIs(t, err, schedule.ErrInvalidDay)
	rec.AssertNotCalled(t, "RecordSchedule", mock.Anything)
}

func TestAlarms(t *testing.T) {
	s, _, _ := newTestSession(t)

	first, err := s.AddAlarm("06:30")
	require.NoError(t, err)
	second, err := s.AddAlarm("18:00")
	require.NoError(t, err)

	_, err = s.DeleteAlarmByID(first.ID)
	require.NoError(t, err)
	alarms := s.Alarms()
	require.Len(t, alarms, 1)
	assert.Equal(t, second.ID, alarms[0].ID)

	_, err = s.DeleteAlarm(0)
	require.NoError(t, err)
	_, err = s.DeleteAlarm(0)
	assert.ErrorIs(t, err, schedule.ErrIndexOutOfRange)
}

func TestWatch_SignalsAndCoalesces(t *testing.T) {
	s, _, _ := newTestSession(t)
	ch, stop := s.Watch()
	defer stop()

	s.Ingest(snapshotAt(40, models.PumpOff, time.Now()))
	s.Ingest(snapshotAt(41, models.PumpOff, time.Now()))

	select {
	case _, ok := <-ch:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}
}

func TestWatch_ClosedOnSessionClose(t *testing.T) {
	s, _, _ := newTestSession(t)
	ch, stop := s.Watch()

	s.Close()
	_, ok := <-ch
	assert.False(t, ok)

	stop()
	late, _ := s.Watch()
	_, ok = <-late
	assert.False(t, ok)
}
