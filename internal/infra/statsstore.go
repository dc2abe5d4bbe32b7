package infra

import (
	"fmt"
	"path/filepath"

	"github.com/akatools/aka/internal/domain"
)

// StatsStore implements domain.StatsRepository as a YAML file holding the
// whole name -> usage stat map.
type StatsStore struct {
	path string
}

// NewStatsStore creates a stats store inside the config directory.
func NewStatsStore(dir string) *StatsStore {
	return &StatsStore{path: filepath.Join(dir, "stats.yaml")}
}

// Path returns the store file location.
func (s *StatsStore) Path() string {
	return s.path
}

// Load returns the full stats map. A missing store reads as empty.
func (s *StatsStore) Load() (domain.StatsMap, error) {
	stats := domain.StatsMap{}
	if err := loadYAML(s.path, &stats); err != nil {
		return nil, fmt.Errorf("load stats store: %w", err)
	}
	return stats, nil
}

// Save writes back the full stats map.
func (s *StatsStore) Save(stats domain.StatsMap) error {
	if err := saveYAML(s.path, stats); err != nil {
		return fmt.Errorf("save stats store: %w", err)
	}
	return nil
}

// Ensure StatsStore implements domain.StatsRepository.
var _ domain.StatsRepository = (*StatsStore)(nil)
