package analyzer

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

func tomatoProfile() models.PlantProfile {
	return models.PlantProfile{
		Name: "tomato",
		Type: "vegetable",
		OptimalRanges: map[string]models.OptimalRange{
			"temperature": {Min: 20, Max: 26, Unit: "°C"},
		},
	}
}

func TestAnalyzeDocumentedExample(t *testing.T) {
	a := New(DefaultThresholds())
	report, err := a.Analyze(tomatoProfile(), map[string][]models.Reading{
		"temperature": series(18, 19, 21, 23, 25),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Assessments) != 1 {
		t.Fatalf("expected 1 assessment, got %d", len(report.Assessments))
	}
	as := report.Assessments[0]
	if as.InRangeFraction != 0.6 {
		t.Fatalf("3 of 5 readings in range, fraction = %v", as.InRangeFraction)
	}
	if as.Status != models.StatusAcceptable {
		t.Fatalf("fraction 0.6 is acceptable (boundary inclusive), got %s", as.Status)
	}
	if report.OverallScore < 40 || report.OverallScore > 59 {
		t.Fatalf("overall score %v outside the acceptable band [40,59]", report.OverallScore)
	}
	if report.Band != models.BandAcceptable {
		t.Fatalf("expected acceptable band, got %s", report.Band)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("non-optimal parameter must produce a recommendation, got %d", len(report.Recommendations))
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := New(DefaultThresholds())
	profile := models.PlantProfile{
		Name: "greenhouse",
		OptimalRanges: map[string]models.OptimalRange{
			"temperature":   {Min: 20, Max: 26, Unit: "°C"},
			"humidity":      {Min: 40, Max: 60, Unit: "%"},
			"light":         {Min: 1000, Max: 5000, Unit: "lux"},
			"soil_moisture": {Min: 30, Max: 70, Unit: "%"},
		},
	}
	input := map[string][]models.Reading{
		"temperature":   series(18, 21, 23, 27, 22),
		"humidity":      series(45, 52, 61, 48, 50),
		"light":         series(900, 1500, 2200, 3100, 800),
		"soil_moisture": series(33, 35, 38, 41, 44),
	}

	first, err := a.Analyze(profile, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Analyze(profile, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs produced different reports")
	}

	b1, _ := json.Marshal(first)
	b2, _ := json.Marshal(second)
	if string(b1) != string(b2) {
		t.Fatal("identical inputs produced different serialized reports")
	}
}

func TestAnalyzeAssessmentOrderFixed(t *testing.T) {
	a := New(DefaultThresholds())
	profile := models.PlantProfile{
		Name: "greenhouse",
		OptimalRanges: map[string]models.OptimalRange{
			"temperature": {Min: 20, Max: 26},
			"humidity":    {Min: 40, Max: 60},
			"light":       {Min: 1000, Max: 5000},
		},
	}
	input := map[string][]models.Reading{
		"temperature": series(22),
		"humidity":    series(50),
		"light":       series(2000),
	}
	report, err := a.Analyze(profile, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"humidity", "light", "temperature"}
	for i, as := range report.Assessments {
		if as.Parameter != want[i] {
			t.Fatalf("assessment %d = %s, want %s", i, as.Parameter, want[i])
		}
	}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	a := New(DefaultThresholds())
	profile := models.PlantProfile{
		Name: "greenhouse",
		OptimalRanges: map[string]models.OptimalRange{
			"temperature": {Min: 20, Max: 26},
			"humidity":    {Min: 40, Max: 60},
		},
	}
	report, err := a.Analyze(profile, map[string][]models.Reading{
		"temperature": series(22, 23),
		// humidity deliberately missing
	})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if len(report.Assessments) != 0 {
		t.Fatal("failed analysis must not return a partial report")
	}
}

func TestAnalyzeEmptyProfile(t *testing.T) {
	a := New(DefaultThresholds())
	_, err := a.Analyze(models.PlantProfile{Name: "bare"}, nil)
	if !errors.Is(err, ErrEmptyProfile) {
		t.Fatalf("expected ErrEmptyProfile, got %v", err)
	}
}

func TestAnalyzeInvalidRange(t *testing.T) {
	a := New(DefaultThresholds())
	profile := models.PlantProfile{
		Name: "broken",
		OptimalRanges: map[string]models.OptimalRange{
			"temperature": {Min: 26, Max: 20},
		},
	}
	_, err := a.Analyze(profile, map[string][]models.Reading{"temperature": series(22)})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestAnalyzeAllOptimalNoRecommendations(t *testing.T) {
	a := New(DefaultThresholds())
	profile := models.PlantProfile{
		Name: "happy",
		OptimalRanges: map[string]models.OptimalRange{
			"temperature": {Min: 20, Max: 26},
			"humidity":    {Min: 40, Max: 60},
		},
	}
	report, err := a.Analyze(profile, map[string][]models.Reading{
		"temperature": series(22, 23, 24),
		"humidity":    series(50, 52, 55),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OverallScore != 100 || report.Band != models.BandExcellent {
		t.Fatalf("all optimal should score 100/excellent, got %v/%s", report.OverallScore, report.Band)
	}
	if len(report.Recommendations) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(report.Recommendations))
	}
}

func TestAnalyzeWeightedAggregate(t *testing.T) {
	a := New(DefaultThresholds())
	profile := models.PlantProfile{
		Name: "weighted",
		OptimalRanges: map[string]models.OptimalRange{
			"temperature": {Min: 20, Max: 30},
			"humidity":    {Min: 40, Max: 60},
		},
		Weights: map[string]float64{"temperature": 3, "humidity": 1},
	}
	report, err := a.Analyze(profile, map[string][]models.Reading{
		"temperature": series(25, 26, 24), // fully in range -> 100
		"humidity":    series(80, 85, 90), // fully out of range -> 0
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OverallScore != 75 {
		t.Fatalf("3:1 weighting of 100 and 0 should give 75, got %v", report.OverallScore)
	}
	if report.Band != models.BandGood {
		t.Fatalf("expected good band, got %s", report.Band)
	}
}
