package constants

import "time"

// Pump command payloads, as understood by the device firmware.
const (
	PumpCommandOn  = "ON"
	PumpCommandOff = "OFF"
)

// Pump action trigger types recorded in the action log.
const (
	TriggerManual = "manual"
	TriggerDevice = "device"
)

const (
	// ReadingBufferCapacity is the number of moisture samples kept per session.
	ReadingBufferCapacity = 100

	// DefaultRequestTimeout bounds every gateway round trip.
	DefaultRequestTimeout = 5 * time.Second

	// DefaultPollInterval is the status refresh interval for the HTTP transport.
	DefaultPollInterval = 5 * time.Second
)
