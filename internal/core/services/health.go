package services

import (
	"context"
	"net/http"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// HealthService probes backend liveness. It sends no credentials.
type HealthService struct {
	api driven.APIClient
}

// NewHealthService creates a new health service.
func NewHealthService(api driven.APIClient) *HealthService {
	return &HealthService{api: api}
}

// Check calls the unauthenticated health endpoint.
func (s *HealthService) Check(ctx context.Context) (*domain.HealthStatus, error) {
	raw, err := s.api.Request(ctx, "/health", driven.RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	var status domain.HealthStatus
	if err := decodeInto(raw, &status, "health"); err != nil {
		return nil, err
	}
	return &status, nil
}
