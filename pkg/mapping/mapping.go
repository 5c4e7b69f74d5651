// Package mapping builds and persists the per-object-type field mappings
// that pair destination properties with source fields.
package mapping

import (
	"context"
	"fmt"

	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
)

// Backend is the slice of the record store the mapping layer needs.
type Backend interface {
	ImportantDestinationFields(ctx context.Context, objectType common.ObjectType) ([]string, error)
	ImportantSourceFields(ctx context.Context, objectType common.ObjectType) ([]string, error)
	LoadMapping(ctx context.Context, objectType common.ObjectType) (common.FieldMapping, error)
	SaveMapping(ctx context.Context, objectType common.ObjectType, mapping common.FieldMapping) error
}

// Store generates, persists and loads field mappings.
type Store struct {
	backend Backend
	log     *logger.Logger
}

// NewStore creates a new mapping store.
func NewStore(backend Backend, log *logger.Logger) *Store {
	return &Store{backend: backend, log: log}
}

// Generate pairs the destination and source importance lists positionally:
// the i-th destination field maps to the i-th source field. When the lists
// differ in length, the longer list's tail is left unmapped and the mismatch
// is logged so an operator can fix the lists.
func (s *Store) Generate(ctx context.Context, objectType common.ObjectType) (common.FieldMapping, error) {
	destFields, err := s.backend.ImportantDestinationFields(ctx, objectType)
	if err != nil {
		return nil, fmt.Errorf("failed to load destination fields for %s: %w", objectType, err)
	}
	srcFields, err := s.backend.ImportantSourceFields(ctx, objectType)
	if err != nil {
		return nil, fmt.Errorf("failed to load source fields for %s: %w", objectType, err)
	}

	n := len(destFields)
	if len(srcFields) < n {
		n = len(srcFields)
	}
	if len(destFields) != len(srcFields) {
		s.log.Warnf("importance lists for %s differ in length (%d destination, %d source), pairing first %d",
			objectType, len(destFields), len(srcFields), n)
	}

	mapping := make(common.FieldMapping, 0, n)
	for i := 0; i < n; i++ {
		mapping = append(mapping, common.FieldPair{
			Destination: destFields[i],
			Source:      srcFields[i],
		})
	}
	return mapping, nil
}

// Persist replaces the stored mapping for an object type.
func (s *Store) Persist(ctx context.Context, objectType common.ObjectType, mapping common.FieldMapping) error {
	return s.backend.SaveMapping(ctx, objectType, mapping)
}

// Load returns the stored mapping for an object type. A missing mapping is a
// MappingError from the backend.
func (s *Store) Load(ctx context.Context, objectType common.ObjectType) (common.FieldMapping, error) {
	return s.backend.LoadMapping(ctx, objectType)
}

// GenerateAndPersist regenerates the mapping from the importance lists and
// stores it in one step.
func (s *Store) GenerateAndPersist(ctx context.Context, objectType common.ObjectType) (common.FieldMapping, error) {
	mapping, err := s.Generate(ctx, objectType)
	if err != nil {
		return nil, err
	}
	if err := s.Persist(ctx, objectType, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}
