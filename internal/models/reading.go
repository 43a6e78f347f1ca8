package models

import "time"

// Reading is a single soil moisture sample. It is never modified after creation.
type Reading struct {
	Timestamp       time.Time `json:"timestamp"`
	MoisturePercent int       `json:"moisture"`
}

// DeviceStatusSnapshot is the normalized view of a device status payload,
// whether it was pushed over MQTT or polled over HTTP.
type DeviceStatusSnapshot struct {
	PumpState       PumpState `json:"pump_status"`
	MoisturePercent int       `json:"moisture"`
	WifiSignal      *int      `json:"wifi_rssi,omitempty"`
	UptimeSeconds   *int64    `json:"uptime,omitempty"`
	MoistureRaw     *int      `json:"moisture_raw,omitempty"`
	FreeMemory      *int64    `json:"free_heap,omitempty"`
	ReceivedAt      time.Time `json:"received_at"`
}

// Reading derives the moisture sample carried by the snapshot.
func (s DeviceStatusSnapshot) Reading() Reading {
	return Reading{Timestamp: s.ReceivedAt, MoisturePercent: s.MoisturePercent}
}
