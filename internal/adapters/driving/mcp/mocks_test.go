package mcp

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	collections []domain.Collection
	created     *domain.Collection
	err         error
	createdName string
}

func (m *mockCollectionService) List(_ context.Context) ([]domain.Collection, error) {
	return m.collections, m.err
}

func (m *mockCollectionService) Create(_ context.Context, name string) (*domain.Collection, error) {
	m.createdName = name
	return m.created, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	submission   *domain.Submission
	document     *domain.Document
	err          error
	collectionID string
	input        domain.DocumentInput
}

func (m *mockDocumentService) Submit(
	_ context.Context,
	collectionID string,
	input domain.DocumentInput,
) (*domain.Submission, error) {
	m.collectionID, m.input = collectionID, input
	return m.submission, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

// mockJobService is a mock implementation of driving.JobService.
type mockJobService struct {
	job *domain.Job
	err error
}

func (m *mockJobService) Get(_ context.Context, _ string) (*domain.Job, error) {
	return m.job, m.err
}

// mockHealthService is a mock implementation of driving.HealthService.
type mockHealthService struct {
	status string
	err    error
}

func (m *mockHealthService) Check(_ context.Context) (*domain.HealthStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.HealthStatus{Status: m.status}, nil
}

// stateOnlySession satisfies the parts of driving.SessionHolder the server reads.
type stateOnlySession struct {
	driving.SessionHolder
	state domain.SessionState
}

func (s *stateOnlySession) Current() domain.SessionState { return s.state }

func basePorts() *Ports {
	return &Ports{
		Collections: &mockCollectionService{},
		Documents:   &mockDocumentService{},
	}
}
