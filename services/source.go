package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jorge1125/mycodo-plant-analyzer/config"
	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// ErrNoData indicates a source had no readings for a sensor in the window.
var ErrNoData = errors.New("no readings for sensor in window")

// SeriesSource fetches raw readings for one Mycodo measurement over a
// time window. Implementations return ErrNoData (wrapped) when the sensor
// is unknown or the window is empty.
type SeriesSource interface {
	FetchSeries(ctx context.Context, sensorID string, window models.Window) ([]models.Reading, error)
}

// NewSeriesSource builds the source selected by data_source.method.
func NewSeriesSource(cfg *config.Config) (SeriesSource, error) {
	switch cfg.DataSource.Method {
	case "export", "":
		return NewExportSource(cfg.DataSource.ExportDir), nil
	case "memory":
		return NewMemorySource(), nil
	case "api", "influxdb", "daemon":
		return nil, fmt.Errorf("data source method %q is not supported by this build", cfg.DataSource.Method)
	default:
		return nil, fmt.Errorf("unknown data source method %q", cfg.DataSource.Method)
	}
}
