package metrics_collectors

import (
	"context"
	"fmt"

	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/shirou/gopsutil/disk"
)

// DiskMetricCollector samples usage of the filesystem at Path.
type DiskMetricCollector struct {
	Path string
}

func (d *DiskMetricCollector) Name() string {
	return "disk"
}

func (d *DiskMetricCollector) Collect(ctx context.Context) (float64, error) {
	path := d.Path
	if path == "" {
		path = "/"
	}
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk usage of %s: %w", path, err)
	}
	return usage.UsedPercent, nil
}

func (d *DiskMetricCollector) IsEnabled(config *models.MetricsConfig) bool {
	return config.MonitorDisk
}

func (d *DiskMetricCollector) Unit() string {
	return "percentage"
}
