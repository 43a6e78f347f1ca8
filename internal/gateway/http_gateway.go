package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/rs/zerolog"
)

// maxBodySize caps how much of a device response is read.
const maxBodySize = 64 << 10

// HTTPGateway talks to the device's built-in web server with plain GET requests.
type HTTPGateway struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  zerolog.Logger
	now     func() time.Time

	connected atomic.Bool
}

// NewHTTPGateway creates a gateway for the device at baseURL, e.g. http://192.168.4.1.
func NewHTTPGateway(baseURL string, timeout time.Duration, logger zerolog.Logger) *HTTPGateway {
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger.With().Str("gateway", constants.TransportHTTP).Logger(),
		now:     time.Now,
	}
}

func (g *HTTPGateway) Kind() string {
	return constants.TransportHTTP
}

func (g *HTTPGateway) Connected() bool {
	return g.connected.Load()
}

// SendPumpCommand calls /pump_on or /pump_off.
func (g *HTTPGateway) SendPumpCommand(ctx context.Context, state models.PumpState) error {
	endpoint := constants.EndpointPumpOff
	if state == models.PumpOn {
		endpoint = constants.EndpointPumpOn
	}

	if _, err := g.get(ctx, "pump_command", endpoint); err != nil {
		return err
	}

	g.logger.Info().Str("action", state.String()).Msg("Pump command acknowledged by device")
	return nil
}

// FetchStatus calls /status and normalizes the response.
func (g *HTTPGateway) FetchStatus(ctx context.Context) (models.DeviceStatusSnapshot, error) {
	body, err := g.get(ctx, "fetch_status", constants.EndpointStatus)
	if err != nil {
		return models.DeviceStatusSnapshot{}, err
	}

	snapshot, err := ParseStatusPayload(body, g.now())
	if err != nil {
		g.logger.Warn().Err(err).Msg("Device returned an unreadable status")
		return models.DeviceStatusSnapshot{}, err
	}
	return snapshot, nil
}

// FetchMoisture calls /moisture, which only reports the sensor value.
func (g *HTTPGateway) FetchMoisture(ctx context.Context) (int, error) {
	body, err := g.get(ctx, "fetch_moisture", constants.EndpointMoisture)
	if err != nil {
		return 0, err
	}
	return ParseMoisturePayload(body)
}

func (g *HTTPGateway) get(ctx context.Context, op, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, newError(op, ErrUnreachable, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.connected.Store(false)
		gwErr := fromTransport(op, err)
		g.logger.Warn().Err(gwErr).Str("path", path).Msg("Device request failed")
		return nil, gwErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// the device answered, so the link itself is up
		g.connected.Store(true)
		g.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("Device rejected request")
		return nil, newError(op, ErrUnreachable, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		g.connected.Store(false)
		return nil, fromTransport(op, err)
	}

	g.connected.Store(true)
	return body, nil
}
