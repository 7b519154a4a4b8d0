package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService lists and creates the signed-in user's collections.
// Nothing is cached; every call goes to the backend.
type CollectionService struct {
	backend
}

// NewCollectionService creates a new collection service.
func NewCollectionService(api driven.APIClient, tokens driven.TokenProvider) *CollectionService {
	return &CollectionService{backend{api: api, tokens: tokens}}
}

// List returns collections in the order the backend returns them.
func (s *CollectionService) List(ctx context.Context) ([]domain.Collection, error) {
	raw, err := s.call(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return nil, err
	}

	var collections []domain.Collection
	if raw == nil {
		return collections, nil
	}
	if err := decodeInto(raw, &collections, "collections"); err != nil {
		return nil, err
	}
	return collections, nil
}

// Create creates a collection with a trimmed, non-blank name.
// The result is nil when the backend answers 204.
func (s *CollectionService) Create(ctx context.Context, name string) (*domain.Collection, error) {
	name, err := domain.NormaliseCollectionName(name)
	if err != nil {
		return nil, fmt.Errorf("collection name is required: %w", err)
	}

	raw, err := s.call(ctx, http.MethodPost, "/collections", map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var created domain.Collection
	if err := decodeInto(raw, &created, "collection"); err != nil {
		return nil, err
	}
	return &created, nil
}
