package models

// Parameter names with dedicated recommendation wording. Profiles may map
// any parameter name; unknown ones get generic wording.
const (
	ParamTemperature  = "temperature"
	ParamHumidity     = "humidity"
	ParamLight        = "light"
	ParamSoilMoisture = "soil_moisture"
)

// OptimalRange is the acceptable band for one environmental parameter
type OptimalRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

// PlantProfile maps a named plant to its optimal ranges and sensor bindings
type PlantProfile struct {
	Name           string                  `json:"name"`
	Type           string                  `json:"type"`
	BaseGrowthRate float64                 `json:"base_growth_rate"` // cm/day, informational
	SensorMapping  map[string]string       `json:"sensor_mapping"`   // parameter -> Mycodo input ID
	OptimalRanges  map[string]OptimalRange `json:"optimal_ranges"`
	Weights        map[string]float64      `json:"weights,omitempty"` // optional aggregation weights
}
