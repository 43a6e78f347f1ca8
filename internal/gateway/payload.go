package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/benmeehan/hydro-controller/internal/models"
)

// Keys of the device status payload.
const (
	keyPumpStatus  = "pump_status"
	keyMoisture    = "moisture"
	keyUptime      = "uptime"
	keyWifiRSSI    = "wifi_rssi"
	keyMoistureRaw = "moisture_raw"
	keyFreeHeap    = "free_heap"
)

// ParseStatusPayload normalizes a device status or telemetry payload.
// Every field is optional: a missing pump status reads as OFF and a missing
// moisture as 0. Only a body that is not a JSON object is rejected.
func ParseStatusPayload(body []byte, receivedAt time.Time) (models.DeviceStatusSnapshot, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return models.DeviceStatusSnapshot{}, newError("decode_status", ErrMalformedPayload, err)
	}

	snapshot := models.DeviceStatusSnapshot{
		PumpState:  pumpField(fields[keyPumpStatus]),
		ReceivedAt: receivedAt,
	}

	if v, ok := numberField(fields[keyMoisture]); ok {
		snapshot.MoisturePercent = clampPercent(v)
	}
	if v, ok := numberField(fields[keyWifiRSSI]); ok {
		rssi := int(v)
		snapshot.WifiSignal = &rssi
	}
	if v, ok := numberField(fields[keyUptime]); ok {
		uptime := int64(v)
		snapshot.UptimeSeconds = &uptime
	}
	if v, ok := numberField(fields[keyMoistureRaw]); ok {
		raw := int(v)
		snapshot.MoistureRaw = &raw
	}
	if v, ok := numberField(fields[keyFreeHeap]); ok {
		heap := int64(v)
		snapshot.FreeMemory = &heap
	}

	return snapshot, nil
}

// ParseMoisturePayload reads the body of the /moisture endpoint, either
// {"moisture": n} or a bare number.
func ParseMoisturePayload(body []byte) (int, error) {
	trimmed := bytes.TrimSpace(body)
	if v, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
		return clampPercent(v), nil
	}

	fields, err := decodeObject(trimmed)
	if err != nil {
		return 0, newError("decode_moisture", ErrMalformedPayload, err)
	}
	v, _ := numberField(fields[keyMoisture])
	return clampPercent(v), nil
}

func decodeObject(body []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("payload is not a JSON object")
	}
	return fields, nil
}

func pumpField(v interface{}) models.PumpState {
	switch t := v.(type) {
	case string:
		return models.ParsePumpState(t)
	case bool:
		if t {
			return models.PumpOn
		}
	case json.Number:
		if n, err := t.Float64(); err == nil && n != 0 {
			return models.PumpOn
		}
	}
	return models.PumpOff
}

// numberField accepts JSON numbers and numeric strings. NaN and infinities
// ("NaN", "Inf") are treated as missing.
func numberField(v interface{}) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	case float64:
		f = t
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clampPercent(v float64) int {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 100:
		return 100
	}
	p := int(math.Round(v))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
