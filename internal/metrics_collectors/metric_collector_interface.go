package metrics_collectors

import (
	"context"

	"github.com/benmeehan/hydro-controller/internal/models"
)

// MetricCollector samples one host metric for the system status panel.
type MetricCollector interface {
	Name() string                                 // Key in the status payload, e.g. "cpu"
	Collect(ctx context.Context) (float64, error) // Take one sample
	IsEnabled(config *models.MetricsConfig) bool  // Whether the config turns this collector on
	Unit() string                                 // e.g. "percentage", "count"
}
