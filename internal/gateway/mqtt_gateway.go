package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/benmeehan/hydro-controller/pkg/mqtt"
	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MQTTGateway publishes pump commands on a command topic and receives
// device status pushed on a telemetry topic.
type MQTTGateway struct {
	// Configuration Fields
	commandTopic   string
	telemetryTopic string
	qos            byte
	timeout        time.Duration

	// Dependencies
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger
	now        func() time.Time

	// Internal state management
	mu        sync.RWMutex
	started   bool
	connected bool
	latest    *models.DeviceStatusSnapshot
	updated   chan struct{} // closed and replaced whenever latest changes

	listenersMu     sync.RWMutex
	statusListeners []func(models.DeviceStatusSnapshot)
	connListeners   []func(bool)
}

// NewMQTTGateway initializes a new MQTTGateway with given parameters.
func NewMQTTGateway(commandTopic, telemetryTopic string, qos int, timeout time.Duration,
	mqttClient mqtt.MQTTClient, logger zerolog.Logger) *MQTTGateway {
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	return &MQTTGateway{
		commandTopic:   commandTopic,
		telemetryTopic: telemetryTopic,
		qos:            byte(qos),
		timeout:        timeout,
		mqttClient:     mqttClient,
		logger:         logger.With().Str("gateway", constants.TransportMQTT).Logger(),
		now:            time.Now,
		updated:        make(chan struct{}),
	}
}

func (g *MQTTGateway) Kind() string {
	return constants.TransportMQTT
}

func (g *MQTTGateway) Connected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.connected
}

// OnStatus registers a listener for every telemetry snapshot received.
func (g *MQTTGateway) OnStatus(fn func(models.DeviceStatusSnapshot)) {
	g.listenersMu.Lock()
	defer g.listenersMu.Unlock()
	g.statusListeners = append(g.statusListeners, fn)
}

// OnConnectionChange registers a listener for broker connect and disconnect transitions.
func (g *MQTTGateway) OnConnectionChange(fn func(connected bool)) {
	g.listenersMu.Lock()
	defer g.listenersMu.Unlock()
	g.connListeners = append(g.connListeners, fn)
}

// Start subscribes to the telemetry topic.
func (g *MQTTGateway) Start() error {
	g.logger.Info().Str("topic", g.telemetryTopic).Msg("Starting MQTT gateway and subscribing to telemetry")

	if err := g.subscribe(); err != nil {
		return err
	}

	g.mu.Lock()
	g.started = true
	g.mu.Unlock()

	if g.mqttClient.IsConnectionOpen() {
		g.setConnected(true)
	}

	g.logger.Info().Str("topic", g.telemetryTopic).Msg("Successfully subscribed to telemetry topic")
	return nil
}

// Stop unsubscribes from the telemetry topic.
func (g *MQTTGateway) Stop() error {
	g.mu.Lock()
	g.started = false
	g.mu.Unlock()

	token := g.mqttClient.Unsubscribe(g.telemetryTopic)
	if !token.WaitTimeout(g.timeout) {
		return newError("unsubscribe", ErrTimeout, nil)
	}
	if err := token.Error(); err != nil {
		g.logger.Error().Err(err).Str("topic", g.telemetryTopic).Msg("Failed to unsubscribe from telemetry topic")
		return err
	}

	g.logger.Info().Msg("MQTT gateway stopped successfully")
	return nil
}

func (g *MQTTGateway) subscribe() error {
	token := g.mqttClient.Subscribe(g.telemetryTopic, g.qos, g.HandleTelemetry)
	if !token.WaitTimeout(g.timeout) {
		g.logger.Error().Str("topic", g.telemetryTopic).Msg("Timed out subscribing to telemetry topic")
		return newError("subscribe", ErrTimeout, nil)
	}
	if err := token.Error(); err != nil {
		g.logger.Error().Err(err).Str("topic", g.telemetryTopic).Msg("Failed to subscribe to telemetry topic")
		return err
	}
	return nil
}

// HandleConnect is wired as the client's on-connect handler. Subscriptions
// are renewed after a reconnect because the broker session is not persistent.
func (g *MQTTGateway) HandleConnect() {
	g.logger.Info().Msg("Connected to MQTT broker")
	g.setConnected(true)

	g.mu.RLock()
	started := g.started
	g.mu.RUnlock()

	if started {
		if err := g.subscribe(); err != nil {
			g.logger.Error().Err(err).Msg("Failed to renew telemetry subscription after reconnect")
		}
	}
}

// HandleConnectionLost is wired as the client's connection-lost handler.
func (g *MQTTGateway) HandleConnectionLost(err error) {
	g.logger.Warn().Err(err).Msg("Lost connection to MQTT broker")
	g.setConnected(false)
}

func (g *MQTTGateway) setConnected(connected bool) {
	g.mu.Lock()
	changed := g.connected != connected
	g.connected = connected
	g.mu.Unlock()

	if !changed {
		return
	}

	g.listenersMu.RLock()
	listeners := append([]func(bool){}, g.connListeners...)
	g.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(connected)
	}
}

// HandleTelemetry processes an incoming device payload.
func (g *MQTTGateway) HandleTelemetry(_ MQTT.Client, msg MQTT.Message) {
	snapshot, err := ParseStatusPayload(msg.Payload(), g.now())
	if err != nil {
		g.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("Dropping unreadable telemetry payload")
		return
	}

	g.logger.Debug().
		Int("moisture", snapshot.MoisturePercent).
		Str("pump_status", snapshot.PumpState.String()).
		Msg("Received telemetry")

	g.mu.Lock()
	g.latest = &snapshot
	close(g.updated)
	g.updated = make(chan struct{})
	g.mu.Unlock()

	g.listenersMu.RLock()
	listeners := append([]func(models.DeviceStatusSnapshot){}, g.statusListeners...)
	g.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// SendPumpCommand publishes "ON" or "OFF" to the command topic.
func (g *MQTTGateway) SendPumpCommand(ctx context.Context, state models.PumpState) error {
	const op = "pump_command"

	if !g.Connected() {
		return newError(op, ErrUnreachable, errors.New("not connected to broker"))
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	token := g.mqttClient.Publish(g.commandTopic, g.qos, false, []byte(state.String()))
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			g.logger.Error().Err(err).Str("topic", g.commandTopic).Msg("Failed to publish pump command")
			return newError(op, ErrUnreachable, err)
		}
	case <-ctx.Done():
		g.logger.Warn().Str("topic", g.commandTopic).Msg("Pump command publish timed out")
		return fromTransport(op, ctx.Err())
	}

	g.logger.Info().Str("topic", g.commandTopic).Str("action", state.String()).Msg("Pump command published")
	return nil
}

// FetchStatus returns the most recent telemetry, waiting for the first
// message if none has arrived yet.
func (g *MQTTGateway) FetchStatus(ctx context.Context) (models.DeviceStatusSnapshot, error) {
	const op = "fetch_status"

	g.mu.RLock()
	connected, latest, updated := g.connected, g.latest, g.updated
	g.mu.RUnlock()

	if !connected {
		return models.DeviceStatusSnapshot{}, newError(op, ErrUnreachable, errors.New("not connected to broker"))
	}
	if latest != nil {
		return *latest, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	select {
	case <-updated:
		g.mu.RLock()
		defer g.mu.RUnlock()
		return *g.latest, nil
	case <-ctx.Done():
		return models.DeviceStatusSnapshot{}, fromTransport(op, ctx.Err())
	}
}

// Latest returns the most recent telemetry without waiting.
func (g *MQTTGateway) Latest() (models.DeviceStatusSnapshot, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.latest == nil {
		return models.DeviceStatusSnapshot{}, false
	}
	return *g.latest, true
}
