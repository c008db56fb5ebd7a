package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// ExportSource reads Mycodo measurement exports from a directory of CSV
// files, one file per sensor named <sensor_id>.csv. Rows are
// "timestamp,value"; timestamps may be RFC 3339 or unix seconds, and an
// empty value column becomes NaN so the preprocessor can interpolate it.
type ExportSource struct {
	dir string
}

func NewExportSource(dir string) *ExportSource {
	return &ExportSource{dir: dir}
}

func (s *ExportSource) FetchSeries(ctx context.Context, sensorID string, window models.Window) ([]models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, filepath.Base(sensorID)+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("sensor %s: %w", sensorID, ErrNoData)
		}
		return nil, fmt.Errorf("open export for sensor %s: %w", sensorID, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	readings := make([]models.Reading, 0, 256)
	row := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read export for sensor %s: %w", sensorID, err)
		}
		row++

		if len(record) < 2 {
			continue
		}

		ts, err := parseExportTimestamp(record[0])
		if err != nil {
			// First row is usually a header, anything else is noise
			if row > 1 {
				log.Printf("Skipping row %d of %s: %v", row, path, err)
			}
			continue
		}
		if !window.Contains(ts) {
			continue
		}

		value := math.NaN()
		if raw := strings.TrimSpace(record[1]); raw != "" {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				value = parsed
			}
		}

		readings = append(readings, models.Reading{Timestamp: ts, Value: value})
	}

	if len(readings) == 0 {
		return nil, fmt.Errorf("sensor %s: %w", sensorID, ErrNoData)
	}
	return readings, nil
}

func parseExportTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		sec := int64(secs)
		nsec := int64((secs - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
