package models

import (
	"strings"

	"github.com/benmeehan/hydro-controller/internal/constants"
)

// PumpState is the last known or commanded state of the pump actuator.
type PumpState string

const (
	PumpOn  PumpState = constants.PumpCommandOn
	PumpOff PumpState = constants.PumpCommandOff
)

// ParsePumpState maps a device or user supplied value to a PumpState.
// Anything that is not "on" (case-insensitive) is treated as off.
func ParsePumpState(s string) PumpState {
	if strings.EqualFold(strings.TrimSpace(s), constants.PumpCommandOn) {
		return PumpOn
	}
	return PumpOff
}

// ParsePumpAction validates a pump action coming from the dashboard.
func ParsePumpAction(s string) (PumpState, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case constants.PumpCommandOn:
		return PumpOn, true
	case constants.PumpCommandOff:
		return PumpOff, true
	}
	return "", false
}

func (p PumpState) String() string {
	return string(p)
}
