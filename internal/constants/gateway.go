package constants

// Gateway transports.
const (
	TransportMQTT = "mqtt"
	TransportHTTP = "http"
)

// Default MQTT settings, matching the device firmware.
const (
	DefaultMQTTBroker     = "tcp://broker.hivemq.com:1883"
	DefaultCommandTopic   = "smart-hydro/pump-control"
	DefaultTelemetryTopic = "smart-hydro/sensor-data"
	DefaultMQTTClientID   = "smart-hydro-dashboard"
)

// Device HTTP endpoints.
const (
	EndpointPumpOn   = "/pump_on"
	EndpointPumpOff  = "/pump_off"
	EndpointStatus   = "/status"
	EndpointMoisture = "/moisture"
)
