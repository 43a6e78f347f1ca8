package metrics_collectors

import (
	"context"
	"errors"
	"fmt"

	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/shirou/gopsutil/cpu"
)

// CPUMetricCollector samples overall CPU utilization.
type CPUMetricCollector struct{}

func (c *CPUMetricCollector) Name() string {
	return "cpu"
}

func (c *CPUMetricCollector) Collect(ctx context.Context) (float64, error) {
	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU usage: %w", err)
	}
	if len(percentages) == 0 {
		return 0, errors.New("CPU usage data is empty")
	}
	return percentages[0], nil
}

func (c *CPUMetricCollector) IsEnabled(config *models.MetricsConfig) bool {
	return config.MonitorCPU
}

func (c *CPUMetricCollector) Unit() string {
	return "percentage"
}
