package main

import (
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/dashboard"
	"github.com/benmeehan/hydro-controller/internal/gateway"
	"github.com/benmeehan/hydro-controller/internal/service_registry"
	"github.com/benmeehan/hydro-controller/internal/session"
	"github.com/benmeehan/hydro-controller/internal/storage"
	"github.com/benmeehan/hydro-controller/internal/utils"
	"github.com/benmeehan/hydro-controller/pkg/file"
	"github.com/benmeehan/hydro-controller/pkg/identity"
	"github.com/benmeehan/hydro-controller/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	envPath := flag.String("env", ".env", "optional .env file with HYDRO_* overrides")
	flag.Parse()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := utils.LoadEnvFile(*envPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to load environment file")
	}

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = newLogger(config)

	// Initialize DeviceInfo
	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load device information")
	}
	deviceID := deviceInfo.GetDeviceID()
	log = log.With().Str("device_id", deviceID).Logger()

	deps := service_registry.Dependencies{}
	var mqttClient *mqtt.MqttService

	// Select the device transport
	switch config.Gateway.Transport {
	case constants.TransportMQTT:
		mqttClient = mqtt.NewMqttService(fileClient)
		mqttGateway := gateway.NewMQTTGateway(
			config.Gateway.MQTT.CommandTopic,
			config.Gateway.MQTT.TelemetryTopic,
			config.Gateway.MQTT.QOS,
			config.Gateway.RequestTimeout,
			mqttClient,
			log,
		)

		// Generate a unique MQTT Client ID per dashboard instance
		clientID := config.Gateway.MQTT.ClientID + "-" + deviceID + "-" + uuid.New().String()[:8]
		log.Info().Str("client_id", clientID).Str("broker", config.Gateway.MQTT.Broker).Msg("Connecting to MQTT broker")

		err = mqttClient.Initialize(mqtt.Options{
			Broker:           config.Gateway.MQTT.Broker,
			ClientID:         clientID,
			CACertPath:       config.Gateway.MQTT.CACertificate,
			Username:         config.Gateway.MQTT.Username,
			Password:         config.Gateway.MQTT.Password,
			ConnectTimeout:   config.Gateway.MQTT.ConnectTimeout,
			OnConnect:        mqttGateway.HandleConnect,
			OnConnectionLost: mqttGateway.HandleConnectionLost,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
		}
		deps.Gateway = mqttGateway
		deps.MQTTGateway = mqttGateway
	case constants.TransportHTTP:
		deps.Gateway = gateway.NewHTTPGateway(config.Gateway.HTTP.BaseURL, config.Gateway.RequestTimeout, log)
	}

	// Optional persistence
	var recorder session.Recorder
	var history dashboard.History
	if config.Storage.Enabled {
		db, err := storage.Open(config.Storage.Driver, config.Storage.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open storage")
		}
		store := storage.NewStore(db, deviceID, log)
		asyncRecorder := storage.NewAsyncRecorder(store, config.Storage.Workers, log)
		recorder = asyncRecorder
		history = store
		deps.Storage = asyncRecorder
	}

	deps.Sessions = session.NewManager(deps.Gateway, recorder, config.Dashboard.SessionTTL, log)
	if deps.MQTTGateway != nil {
		deps.MQTTGateway.OnStatus(deps.Sessions.Broadcast)
		deps.MQTTGateway.OnConnectionChange(deps.Sessions.SetConnected)
	}

	deps.Metrics = service_registry.NewMetricsService(config, log)
	var metrics dashboard.MetricsSource
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}

	server, err := dashboard.NewServer(dashboard.Options{
		ListenAddr:     config.Dashboard.ListenAddr,
		AllowedOrigins: config.Dashboard.AllowedOrigins,
		SessionTTL:     config.Dashboard.SessionTTL,
		DeviceID:       deviceID,
	}, deps.Sessions, deps.Gateway, history, metrics, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create dashboard")
	}
	deps.Dashboard = server

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(log)
	if err := serviceRegistry.RegisterServices(config, deps); err != nil {
		log.Fatal().Err(err).Msg("Failed to register services")
	}

	if err := serviceRegistry.StartServices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start services")
	}
	log.Info().Str("transport", deps.Gateway.Kind()).Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Some services failed to stop")
	}
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
}

func newLogger(config *utils.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(config.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if config.Logging.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
