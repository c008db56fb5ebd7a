package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// profilesFile mirrors the documented profile config layout:
//
//	{"plant_profiles": {"tomato": {
//	    "type": "vegetable",
//	    "base_growth_rate": 1.2,
//	    "sensor_mapping": {"temperature": "<input id>"},
//	    "optimal_ranges": {"temperature": {"min": 20, "max": 26, "unit": "°C"}}}}}
type profilesFile struct {
	PlantProfiles map[string]profileEntry `json:"plant_profiles"`
}

type profileEntry struct {
	Type           string                         `json:"type"`
	BaseGrowthRate float64                        `json:"base_growth_rate"`
	SensorMapping  map[string]string              `json:"sensor_mapping"`
	OptimalRanges  map[string]models.OptimalRange `json:"optimal_ranges"`
	Weights        map[string]float64             `json:"weights"`
}

// LoadProfiles reads and validates the plant profile file. Malformed ranges
// fail the load; a parameter without a sensor mapping only logs a warning
// since its analysis fails later with a clear insufficient-data error.
func LoadProfiles(path string) (map[string]models.PlantProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var pf profilesFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(pf.PlantProfiles) == 0 {
		return nil, fmt.Errorf("no plant profiles defined in %s", path)
	}

	profiles := make(map[string]models.PlantProfile, len(pf.PlantProfiles))
	for name, entry := range pf.PlantProfiles {
		for param, rng := range entry.OptimalRanges {
			if rng.Min > rng.Max {
				return nil, fmt.Errorf("profile %s parameter %s: min %g greater than max %g", name, param, rng.Min, rng.Max)
			}
			if _, ok := entry.SensorMapping[param]; !ok {
				log.Printf("Warning: profile %s has no sensor mapped for %s", name, param)
			}
		}
		profiles[name] = models.PlantProfile{
			Name:           name,
			Type:           entry.Type,
			BaseGrowthRate: entry.BaseGrowthRate,
			SensorMapping:  entry.SensorMapping,
			OptimalRanges:  entry.OptimalRanges,
			Weights:        entry.Weights,
		}
	}
	return profiles, nil
}
