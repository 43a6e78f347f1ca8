package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/gateway"
	"github.com/benmeehan/hydro-controller/internal/metrics_collectors"
	"github.com/benmeehan/hydro-controller/internal/registry"
	"github.com/benmeehan/hydro-controller/internal/services"
	"github.com/benmeehan/hydro-controller/internal/session"
	"github.com/benmeehan/hydro-controller/internal/utils"
	"github.com/rs/zerolog"
)

// Dependencies are the shared components the services are built from.
// Storage and MQTTGateway are nil when the configuration does not use them.
type Dependencies struct {
	Gateway     gateway.Gateway
	MQTTGateway *gateway.MQTTGateway
	Sessions    *session.Manager
	Storage     registry.Service
	Metrics     *services.MetricsService
	Dashboard   registry.Service
}

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	started     []string
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes an empty service registry.
func NewServiceRegistry(logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]registry.Service),
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Names returns the registered service names in start order.
func (sr *ServiceRegistry) Names() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	sr.started = sr.started[:0]

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(sr.started) - 1; i >= 0; i-- {
				_ = sr.services[sr.started[i]].Stop()
			}
			sr.started = sr.started[:0]
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		sr.started = append(sr.started, name)
	}

	return nil
}

// StopServices stops the started services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.started) - 1; i >= 0; i-- {
		name := sr.started[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	sr.started = sr.started[:0]

	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices registers the services the configuration enables, in start order.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, deps Dependencies) error {
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "storage",
			enabled: config.Storage.Enabled,
			constructor: func() (registry.Service, error) {
				if deps.Storage == nil {
					return nil, errors.New("storage is enabled but no recorder was provided")
				}
				return deps.Storage, nil
			},
		},
		{
			name:    "telemetry",
			enabled: config.Gateway.Transport == constants.TransportMQTT,
			constructor: func() (registry.Service, error) {
				if deps.MQTTGateway == nil {
					return nil, errors.New("mqtt transport selected but no mqtt gateway was provided")
				}
				return deps.MQTTGateway, nil
			},
		},
		{
			name:    "status_poll",
			enabled: config.Gateway.Transport == constants.TransportHTTP,
			constructor: func() (registry.Service, error) {
				return services.NewStatusPollService(
					config.Gateway.HTTP.PollInterval,
					deps.Gateway,
					deps.Sessions,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "session_reaper",
			enabled: true,
			constructor: func() (registry.Service, error) {
				return services.NewSessionReaperService(
					config.Dashboard.ReapInterval,
					deps.Sessions,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "metrics",
			enabled: deps.Metrics != nil,
			constructor: func() (registry.Service, error) {
				return deps.Metrics, nil
			},
		},
		{
			name:    "dashboard",
			enabled: deps.Dashboard != nil,
			constructor: func() (registry.Service, error) {
				return deps.Dashboard, nil
			},
		},
	}

	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}

// NewMetricsService builds the host metrics sampler when any metric is enabled.
func NewMetricsService(config *utils.Config, logger zerolog.Logger) *services.MetricsService {
	collectors := metrics_collectors.NewDefaultRegistry(config.Metrics, logger)
	if len(collectors.GetCollectors()) == 0 {
		return nil
	}
	return services.NewMetricsService(config.Metrics.Interval, collectors, logger)
}
