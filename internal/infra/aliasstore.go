package infra

import (
	"fmt"
	"path/filepath"

	"github.com/akatools/aka/internal/domain"
)

// AliasStore implements domain.AliasRepository as a YAML file holding the
// whole name -> entry map.
type AliasStore struct {
	path string
}

// NewAliasStore creates an alias store inside the config directory.
func NewAliasStore(dir string) *AliasStore {
	return &AliasStore{path: filepath.Join(dir, "aliases.yaml")}
}

// Path returns the store file location.
func (s *AliasStore) Path() string {
	return s.path
}

// Load returns the full alias map. A missing store reads as empty.
// Entries with an empty name or command are dropped at the load boundary.
func (s *AliasStore) Load() (domain.AliasMap, error) {
	aliases := domain.AliasMap{}
	if err := loadYAML(s.path, &aliases); err != nil {
		return nil, fmt.Errorf("load alias store: %w", err)
	}

	for name, entry := range aliases {
		if name == "" || entry.Command == "" {
			delete(aliases, name)
		}
	}
	return aliases, nil
}

// Save writes back the full alias map.
func (s *AliasStore) Save(aliases domain.AliasMap) error {
	if err := saveYAML(s.path, aliases); err != nil {
		return fmt.Errorf("save alias store: %w", err)
	}
	return nil
}

// Ensure AliasStore implements domain.AliasRepository.
var _ domain.AliasRepository = (*AliasStore)(nil)
