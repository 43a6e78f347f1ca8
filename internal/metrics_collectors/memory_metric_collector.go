package metrics_collectors

import (
	"context"
	"fmt"

	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/shirou/gopsutil/mem"
)

// MemoryMetricCollector samples the percentage of used virtual memory.
type MemoryMetricCollector struct{}

func (m *MemoryMetricCollector) Name() string {
	return "memory"
}

func (m *MemoryMetricCollector) Collect(ctx context.Context) (float64, error) {
	stats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get memory statistics: %w", err)
	}
	return stats.UsedPercent, nil
}

func (m *MemoryMetricCollector) IsEnabled(config *models.MetricsConfig) bool {
	return config.MonitorMemory
}

func (m *MemoryMetricCollector) Unit() string {
	return "percentage"
}
