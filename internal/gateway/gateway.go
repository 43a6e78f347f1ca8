// Package gateway reaches the pump controller over MQTT or HTTP behind one contract.
package gateway

import (
	"context"

	"github.com/benmeehan/hydro-controller/internal/models"
)

// Gateway commands the remote pump controller and reads its status.
// Every call is bounded by the gateway's request timeout.
type Gateway interface {
	// Kind names the transport, "mqtt" or "http".
	Kind() string
	// Connected reports whether the device was reachable at last contact.
	Connected() bool
	// SendPumpCommand asks the device to switch the pump. Success does not
	// confirm that the device complied.
	SendPumpCommand(ctx context.Context, state models.PumpState) error
	// FetchStatus returns the current device status.
	FetchStatus(ctx context.Context) (models.DeviceStatusSnapshot, error)
}
