package gateway_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benmeehan/hydro-controller/internal/gateway"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/benmeehan/hydro-controller/tests/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	commandTopic   = "smart-hydro/pump-control"
	telemetryTopic = "smart-hydro/sensor-data"
)

func newMQTTGateway(client *mocks.MockMQTTClient, timeout time.Duration) *gateway.MQTTGateway {
	return gateway.NewMQTTGateway(commandTopic, telemetryTopic, 1, timeout, client, zerolog.Nop())
}

// TestMQTTGateway_Start_Success subscribes to telemetry and picks up the open connection.
func TestMQTTGateway_Start_Success(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Subscribe", telemetryTopic, byte(1), mock.Anything).Return(mocks.CompletedToken(nil))
	client.On("IsConnectionOpen").Return(true)

	gw := newMQTTGateway(client, time.Second)

	require.NoError(t, gw.Start())
	assert.True(t, gw.Connected())
	assert.Equal(t, "mqtt", gw.Kind())
	client.AssertExpectations(t)
}

func TestMQTTGateway_Start_Failure(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Subscribe", telemetryTopic, byte(1), mock.Anything).Return(mocks.CompletedToken(errors.New("subscribe failed")))

	gw := newMQTTGateway(client, time.Second)

	err := gw.Start()
	assert.EqualError(t, err, "subscribe failed")
	client.AssertExpectations(t)
}

func TestMQTTGateway_Stop(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Unsubscribe", []string{telemetryTopic}).Return(mocks.CompletedToken(nil))

	gw := newMQTTGateway(client, time.Second)

	assert.NoError(t, gw.Stop())
	client.AssertExpectations(t)
}

func TestMQTTGateway_SendPumpCommand(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Publish", commandTopic, byte(1), false, []byte("ON")).Return(mocks.CompletedToken(nil))

	gw := newMQTTGateway(client, time.Second)
	gw.HandleConnect()

	require.NoError(t, gw.SendPumpCommand(context.Background(), models.PumpOn))
	client.AssertExpectations(t)
}

func TestMQTTGateway_SendPumpCommand_NotConnected(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	gw := newMQTTGateway(client, time.Second)

	err := gw.SendPumpCommand(context.Background(), models.PumpOn)

	assert.ErrorIs(t, err, gateway.ErrUnreachable)
	client.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMQTTGateway_SendPumpCommand_PublishError(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Publish", commandTopic, byte(1), false, []byte("OFF")).Return(mocks.CompletedToken(errors.New("not authorized")))

	gw := newMQTTGateway(client, time.Second)
	gw.HandleConnect()

	err := gw.SendPumpCommand(context.Background(), models.PumpOff)
	assert.ErrorIs(t, err, gateway.ErrUnreachable)
	assert.Contains(t, err.Error(), "not authorized")
}

func TestMQTTGateway_SendPumpCommand_Timeout(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Publish", commandTopic, byte(1), false, []byte("ON")).Return(mocks.PendingToken())

	gw := newMQTTGateway(client, 30*time.Millisecond)
	gw.HandleConnect()

	err := gw.SendPumpCommand(context.Background(), models.PumpOn)
	assert.ErrorIs(t, err, gateway.ErrTimeout)
}

// TestMQTTGateway_HandleTelemetry normalizes pushed payloads and notifies listeners.
func TestMQTTGateway_HandleTelemetry(t *testing.T) {
	gw := newMQTTGateway(new(mocks.MockMQTTClient), time.Second)
	gw.HandleConnect()

	var received []models.DeviceStatusSnapshot
	gw.OnStatus(func(s models.DeviceStatusSnapshot) { received = append(received, s) })

	gw.HandleTelemetry(nil, mocks.NewMockMessage(telemetryTopic, []byte(`{"moisture":72,"pump_status":"ON"}`)))
	gw.HandleTelemetry(nil, mocks.NewMockMessage(telemetryTopic, []byte(`{}`)))
	gw.HandleTelemetry(nil, mocks.NewMockMessage(telemetryTopic, []byte(`not json`)))

	require.Len(t, received, 2)
	assert.Equal(t, 72, received[0].MoisturePercent)
	assert.Equal(t, models.PumpOn, received[0].PumpState)
	assert.Equal(t, 0, received[1].MoisturePercent)
	assert.Equal(t, models.PumpOff, received[1].PumpState)

	latest, err := gw.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, received[1], latest)
}

// TestMQTTGateway_FetchStatus_WaitsForTelemetry blocks until the first message arrives.
func TestMQTTGateway_FetchStatus_WaitsForTelemetry(t *testing.T) {
	gw := newMQTTGateway(new(mocks.MockMQTTClient), time.Second)
	gw.HandleConnect()

	go func() {
		time.Sleep(20 * time.Millisecond)
		gw.HandleTelemetry(nil, mocks.NewMockMessage(telemetryTopic, []byte(`{"moisture":33}`)))
	}()

	snapshot, err := gw.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 33, snapshot.MoisturePercent)
}

func TestMQTTGateway_FetchStatus_Timeout(t *testing.T) {
	gw := newMQTTGateway(new(mocks.MockMQTTClient), 30*time.Millisecond)
	gw.HandleConnect()

	_, err := gw.FetchStatus(context.Background())
	assert.ErrorIs(t, err, gateway.ErrTimeout)
}

func TestMQTTGateway_FetchStatus_Disconnected(t *testing.T) {
	gw := newMQTTGateway(new(mocks.MockMQTTClient), time.Second)
	gw.HandleConnect()
	gw.HandleTelemetry(nil, mocks.NewMockMessage(telemetryTopic, []byte(`{"moisture":40}`)))
	gw.HandleConnectionLost(errors.New("EOF"))

	_, err := gw.FetchStatus(context.Background())
	assert.ErrorIs(t, err, gateway.ErrUnreachable)
}

// TestMQTTGateway_ConnectionTransitions reports only real changes.
func TestMQTTGateway_ConnectionTransitions(t *testing.T) {
	gw := newMQTTGateway(new(mocks.MockMQTTClient), time.Second)

	var mu sync.Mutex
	var transitions []bool
	gw.OnConnectionChange(func(c bool) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, c)
	})

	gw.HandleConnect()
	gw.HandleConnect()
	gw.HandleConnectionLost(errors.New("EOF"))
	gw.HandleConnect()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false, true}, transitions)
}

// TestMQTTGateway_ReconnectRenewsSubscription resubscribes once the gateway is started.
func TestMQTTGateway_ReconnectRenewsSubscription(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Subscribe", telemetryTopic, byte(1), mock.Anything).Return(mocks.CompletedToken(nil))
	client.On("IsConnectionOpen").Return(true)

	gw := newMQTTGateway(client, time.Second)
	require.NoError(t, gw.Start())

	gw.HandleConnectionLost(errors.New("EOF"))
	gw.HandleConnect()

	client.AssertNumberOfCalls(t, "Subscribe", 2)
}
