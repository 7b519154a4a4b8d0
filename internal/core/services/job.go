package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure JobService implements the interface.
var _ driving.JobService = (*JobService)(nil)

// JobService reads ingestion jobs. It never polls.
type JobService struct {
	backend
}

// NewJobService creates a new job service.
func NewJobService(api driven.APIClient, tokens driven.TokenProvider) *JobService {
	return &JobService{backend{api: api, tokens: tokens}}
}

// Get retrieves a job by ID.
func (s *JobService) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("job id is required: %w", domain.ErrInvalidInput)
	}

	raw, err := s.call(ctx, http.MethodGet, "/ingestions/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}

	var job domain.Job
	if err := decodeInto(raw, &job, "job"); err != nil {
		return nil, err
	}
	return &job, nil
}
