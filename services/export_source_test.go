package services

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

func writeExport(t *testing.T, dir, sensorID, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, sensorID+".csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}
}

func TestExportSourceParsesBothTimestampFormats(t *testing.T) {
	dir := t.TempDir()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	content := "timestamp,value\n" +
		base.Format(time.RFC3339) + ",21.5\n" +
		"1773151200,22.0\n" // 2026-03-10T14:00:00Z as unix seconds
	writeExport(t, dir, "sensor-a", content)

	window := models.Window{From: base.Add(-time.Hour), To: base.Add(6 * time.Hour)}
	readings, err := NewExportSource(dir).FetchSeries(context.Background(), "sensor-a", window)
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}

	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if !readings[0].Timestamp.Equal(base) {
		t.Fatalf("first timestamp %v, want %v", readings[0].Timestamp, base)
	}
	if readings[0].Value != 21.5 || readings[1].Value != 22.0 {
		t.Fatalf("unexpected values: %v, %v", readings[0].Value, readings[1].Value)
	}
}

func TestExportSourceWindowFilter(t *testing.T) {
	dir := t.TempDir()

	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	content := "timestamp,value\n"
	for i := 0; i < 48; i++ {
		content += base.Add(time.Duration(i)*time.Hour).Format(time.RFC3339) + ",50\n"
	}
	writeExport(t, dir, "sensor-b", content)

	// Second day only
	window := models.Window{From: base.Add(24 * time.Hour), To: base.Add(47 * time.Hour)}
	readings, err := NewExportSource(dir).FetchSeries(context.Background(), "sensor-b", window)
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if len(readings) != 24 {
		t.Fatalf("expected 24 readings in window, got %d", len(readings))
	}
}

func TestExportSourceEmptyValueBecomesNaN(t *testing.T) {
	dir := t.TempDir()

	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	content := "timestamp,value\n" +
		base.Format(time.RFC3339) + ",20\n" +
		base.Add(time.Hour).Format(time.RFC3339) + ",\n" +
		base.Add(2*time.Hour).Format(time.RFC3339) + ",22\n"
	writeExport(t, dir, "sensor-c", content)

	window := models.Window{From: base, To: base.Add(3 * time.Hour)}
	readings, err := NewExportSource(dir).FetchSeries(context.Background(), "sensor-c", window)
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(readings))
	}
	if !math.IsNaN(readings[1].Value) {
		t.Fatalf("empty value should parse as NaN, got %v", readings[1].Value)
	}
}

func TestExportSourceSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()

	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	content := "timestamp,value\n" +
		"not-a-timestamp,99\n" +
		"only-one-field\n" +
		base.Format(time.RFC3339) + ",20\n"
	writeExport(t, dir, "sensor-d", content)

	window := models.Window{From: base.Add(-time.Hour), To: base.Add(time.Hour)}
	readings, err := NewExportSource(dir).FetchSeries(context.Background(), "sensor-d", window)
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("expected only the valid row, got %d readings", len(readings))
	}
}

func TestExportSourceMissingSensor(t *testing.T) {
	dir := t.TempDir()

	window := models.Window{From: time.Now().Add(-time.Hour), To: time.Now()}
	_, err := NewExportSource(dir).FetchSeries(context.Background(), "ghost", window)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for a missing sensor, got %v", err)
	}
}

func TestExportSourceNothingInWindow(t *testing.T) {
	dir := t.TempDir()

	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	writeExport(t, dir, "sensor-e", "timestamp,value\n"+base.Format(time.RFC3339)+",20\n")

	window := models.Window{From: base.Add(24 * time.Hour), To: base.Add(48 * time.Hour)}
	_, err := NewExportSource(dir).FetchSeries(context.Background(), "sensor-e", window)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for an empty window, got %v", err)
	}
}

func TestParseExportTimestamp(t *testing.T) {
	want := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)

	got, err := parseExportTimestamp("2026-03-10T12:30:00Z")
	if err != nil {
		t.Fatalf("RFC 3339 parse: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got, err = parseExportTimestamp("1773145800")
	if err != nil {
		t.Fatalf("unix seconds parse: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, err := parseExportTimestamp("yesterday"); err == nil {
		t.Fatal("expected an error for an unrecognized timestamp")
	}
}
