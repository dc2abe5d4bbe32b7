package infra

import (
	"fmt"
	"path/filepath"

	"github.com/akatools/aka/internal/domain"
)

// MtimeStore implements domain.MtimeRepository as a YAML snapshot of
// monitored-file modification times.
type MtimeStore struct {
	path string
}

// NewMtimeStore creates an mtime store inside the config directory.
func NewMtimeStore(dir string) *MtimeStore {
	return &MtimeStore{path: filepath.Join(dir, "mtimes.yaml")}
}

// Path returns the store file location.
func (s *MtimeStore) Path() string {
	return s.path
}

// Load returns the last recorded snapshot. A missing store reads as empty.
func (s *MtimeStore) Load() (map[string]int64, error) {
	mtimes := map[string]int64{}
	if err := loadYAML(s.path, &mtimes); err != nil {
		return nil, fmt.Errorf("load mtime snapshot: %w", err)
	}
	return mtimes, nil
}

// Save replaces the snapshot.
func (s *MtimeStore) Save(mtimes map[string]int64) error {
	if err := saveYAML(s.path, mtimes); err != nil {
		return fmt.Errorf("save mtime snapshot: %w", err)
	}
	return nil
}

// Ensure MtimeStore implements domain.MtimeRepository.
var _ domain.MtimeRepository = (*MtimeStore)(nil)
