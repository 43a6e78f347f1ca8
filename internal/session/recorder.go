package session

import "github.com/benmeehan/hydro-controller/internal/models"

// Recorder receives the events worth persisting. Implementations must not block.
type Recorder interface {
	RecordReading(snapshot models.DeviceStatusSnapshot)
	RecordPumpAction(action models.PumpState, trigger string, moisture int)
	RecordSchedule(entry models.ScheduleEntry)
	ForgetSchedule(entryID string)
}

// NopRecorder discards everything; used when storage is disabled.
type NopRecorder struct{}

func (NopRecorder) RecordReading(models.DeviceStatusSnapshot)      {}
func (NopRecorder) RecordPumpAction(models.PumpState, string, int) {}
func (NopRecorder) RecordSchedule(models.ScheduleEntry)            {}
func (NopRecorder) ForgetSchedule(string)                          {}
