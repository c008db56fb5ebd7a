package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jorge1125/mycodo-plant-analyzer/config"
	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// Seeds the export directory with sample sensor CSVs so the analyzer has
// something to chew on without a live Mycodo install.
// Usage: go run scripts/seed.go -profiles config/profiles.json -dir exports -days 7

func main() {
	profilesPath := flag.String("profiles", "config/profiles.json", "Plant profile file to seed sensors for")
	dir := flag.String("dir", "exports", "Export directory to write CSVs into")
	days := flag.Int("days", 7, "Days of hourly history to generate")
	flag.Parse()

	fmt.Println("=== Export Data Seeder ===")
	fmt.Printf("Profiles: %s\n", *profilesPath)
	fmt.Printf("Output:   %s\n", *dir)
	fmt.Printf("Window:   %d days (hourly readings)\n", *days)
	fmt.Println()

	profiles, err := config.LoadProfiles(*profilesPath)
	if err != nil {
		fmt.Printf("❌ Failed to load profiles: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		fmt.Printf("❌ Failed to create %s: %v\n", *dir, err)
		os.Exit(1)
	}

	start := time.Now().Add(-time.Duration(*days) * 24 * time.Hour)
	hours := *days * 24
	written := 0

	for name, profile := range profiles {
		fmt.Printf("Profile %s (%s):\n", name, profile.Type)
		for param, sensorID := range profile.SensorMapping {
			rng, ok := profile.OptimalRanges[param]
			if !ok {
				continue
			}
			path := filepath.Join(*dir, sensorID+".csv")
			n, err := writeSeries(path, param, rng, start, hours)
			if err != nil {
				fmt.Printf("❌ %s -> %s: %v\n", param, path, err)
				os.Exit(1)
			}
			fmt.Printf("✅ %s -> %s (%d readings)\n", param, path, n)
			written++
		}
		fmt.Println()
	}

	fmt.Printf("Done: %d sensor files in %s\n", written, *dir)
}

func writeSeries(path, param string, rng models.OptimalRange, start time.Time, hours int) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "value"}); err != nil {
		return 0, err
	}

	lastWatering := start.Add(-12 * time.Hour)
	count := 0

	for i := 0; i < hours; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		var value float64

		switch param {
		case "temperature":
			// Daily cycle: warmer by day, cooler by night, with a slow upward drift.
			daily := 3 * math.Sin(float64(ts.Hour())*math.Pi/12)
			value = 22 + daily + float64(i)*0.001 + rand.NormFloat64()*0.5

		case "humidity":
			// Inverse of the temperature cycle, drifting slightly down.
			daily := -5 * math.Sin(float64(ts.Hour())*math.Pi/12)
			value = 70 + daily - float64(i)*0.0005 + rand.NormFloat64()

		case "light":
			// Daylight bell between 06:00 and 20:00, near zero at night.
			hour := ts.Hour()
			if hour >= 6 && hour <= 20 {
				frac := float64(hour-6) / 14
				value = 20000*math.Sin(frac*math.Pi) + rand.NormFloat64()*1000
			} else {
				value = rand.NormFloat64() * 100
			}
			value = math.Max(0, value)

		case "soil_moisture":
			// Exponential dry-down between waterings, rewatered below 50%.
			since := ts.Sub(lastWatering).Hours()
			moisture := 40 + 35*math.Exp(-since/48) + rand.NormFloat64()
			if moisture < 50 {
				lastWatering = ts
				moisture = 75
			}
			value = math.Max(0, math.Min(100, moisture))

		default:
			// Unknown parameter: hover around the middle of its optimal range.
			mid := (rng.Min + rng.Max) / 2
			span := (rng.Max - rng.Min) / 2
			daily := 0.4 * span * math.Sin(float64(ts.Hour())*math.Pi/12)
			value = mid + daily + rand.NormFloat64()*0.1*span
		}

		row := []string{ts.UTC().Format(time.RFC3339), strconv.FormatFloat(value, 'f', 2, 64)}
		if err := w.Write(row); err != nil {
			return count, err
		}
		count++
	}

	w.Flush()
	return count, w.Error()
}
