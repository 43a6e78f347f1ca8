package models

import "time"

// Metric is a single host measurement shown on the system status panel.
type Metric struct {
	Value interface{} `json:"value"`
	Unit  string      `json:"unit"`
}

// MetricsConfig toggles the host metric collectors.
type MetricsConfig struct {
	Interval          time.Duration `yaml:"interval"` // sampling period, 0 uses the default
	MonitorCPU        bool          `yaml:"monitor_cpu"`
	MonitorMemory     bool          `yaml:"monitor_memory"`
	MonitorGoroutines bool          `yaml:"monitor_goroutines"`
	MonitorDisk       bool          `yaml:"monitor_disk"`
	DiskPath          string        `yaml:"disk_path"` // filesystem holding the database, "/" when empty
}

// SystemStatus is the payload of the system status panel.
type SystemStatus struct {
	Timestamp        time.Time         `json:"timestamp"`
	DeviceID         string            `json:"device_id"`
	Transport        string            `json:"transport"`
	GatewayConnected bool              `json:"gateway_connected"`
	StorageEnabled   bool              `json:"storage_enabled"`
	Sessions         int               `json:"sessions"`
	Metrics          map[string]Metric `json:"metrics"`
}
