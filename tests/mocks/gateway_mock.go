package mocks

import (
	"context"

	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of gateway.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Kind() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockGateway) Connected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockGateway) SendPumpCommand(ctx context.Context, state models.PumpState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockGateway) FetchStatus(ctx context.Context) (models.DeviceStatusSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.DeviceStatusSnapshot), args.Error(1)
}

// MockRecorder is a mock implementation of session.Recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordReading(snapshot models.DeviceStatusSnapshot) {
	m.Called(snapshot)
}

func (m *MockRecorder) RecordPumpAction(action models.PumpState, trigger string, moisture int) {
	m.Called(action, trigger, moisture)
}

func (m *MockRecorder) RecordSchedule(entry models.ScheduleEntry) {
	m.Called(entry)
}

func (m *MockRecorder) ForgetSchedule(entryID string) {
	m.Called(entryID)
}
