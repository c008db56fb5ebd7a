package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/jorge1125/mycodo-plant-analyzer/models"
)

// MemorySource serves readings from an in-process map. Used by tests and
// seeded demo setups.
type MemorySource struct {
	mu     sync.RWMutex
	series map[string][]models.Reading
}

func NewMemorySource() *MemorySource {
	return &MemorySource{series: make(map[string][]models.Reading)}
}

// Put replaces the stored readings for a sensor.
func (s *MemorySource) Put(sensorID string, readings []models.Reading) {
	cp := make([]models.Reading, len(readings))
	copy(cp, readings)

	s.mu.Lock()
	s.series[sensorID] = cp
	s.mu.Unlock()
}

func (s *MemorySource) FetchSeries(_ context.Context, sensorID string, window models.Window) ([]models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, ok := s.series[sensorID]
	if !ok {
		return nil, fmt.Errorf("sensor %s: %w", sensorID, ErrNoData)
	}

	out := make([]models.Reading, 0, len(all))
	for _, r := range all {
		if window.Contains(r.Timestamp) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sensor %s: %w", sensorID, ErrNoData)
	}
	return out, nil
}
