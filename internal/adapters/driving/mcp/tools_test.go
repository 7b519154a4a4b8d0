package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports, "test")
	require.NoError(t, err)
	return server
}

func TestServer_handleListCollections(t *testing.T) {
	ctx := context.Background()

	t.Run("returns collections in backend order", func(t *testing.T) {
		ports := basePorts()
		ports.Collections = &mockCollectionService{collections: []domain.Collection{
			{ID: "col-2", Name: "Product docs", CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
			{ID: "col-1", Name: "Notes"},
		}}
		server := newTestServer(t, ports)

		_, output, err := server.handleListCollections(ctx, nil, ListCollectionsInput{})
		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, CollectionOutput{ID: "col-2", Name: "Product docs", CreatedAt: "2026-03-01T09:00:00Z"},
			output.Collections[0])
		assert.Equal(t, "col-1", output.Collections[1].ID)
		assert.Empty(t, output.Collections[1].CreatedAt)
	})

	t.Run("empty list", func(t *testing.T) {
		server := newTestServer(t, basePorts())

		_, output, err := server.handleListCollections(ctx, nil, ListCollectionsInput{})
		require.NoError(t, err)
		assert.Zero(t, output.Count)
		assert.NotNil(t, output.Collections)
	})

	t.Run("signed out adds a hint", func(t *testing.T) {
		ports := basePorts()
		ports.Collections = &mockCollectionService{err: domain.ErrNotSignedIn}
		server := newTestServer(t, ports)

		_, _, err := server.handleListCollections(ctx, nil, ListCollectionsInput{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotSignedIn)
		assert.Contains(t, err.Error(), "ragdesk login")
	})

	t.Run("backend message is kept", func(t *testing.T) {
		ports := basePorts()
		ports.Collections = &mockCollectionService{err: domain.NewAPIError(domain.KindServer, "database unavailable")}
		server := newTestServer(t, ports)

		_, _, err := server.handleListCollections(ctx, nil, ListCollectionsInput{})
		require.Error(t, err)
		assert.Equal(t, "database unavailable", err.Error())
	})
}

func TestServer_handleCreateCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the created collection", func(t *testing.T) {
		mock := &mockCollectionService{created: &domain.Collection{ID: "col-1", Name: "Product docs"}}
		ports := basePorts()
		ports.Collections = mock
		server := newTestServer(t, ports)

		_, output, err := server.handleCreateCollection(ctx, nil, CreateCollectionInput{Name: "Product docs"})
		require.NoError(t, err)
		assert.Equal(t, "Product docs", mock.createdName)
		assert.True(t, output.Created)
		require.NotNil(t, output.Collection)
		assert.Equal(t, "col-1", output.Collection.ID)
	})

	t.Run("no content", func(t *testing.T) {
		server := newTestServer(t, basePorts())

		_, output, err := server.handleCreateCollection(ctx, nil, CreateCollectionInput{Name: "Notes"})
		require.NoError(t, err)
		assert.True(t, output.Created)
		assert.Nil(t, output.Collection)
	})

	t.Run("invalid name", func(t *testing.T) {
		ports := basePorts()
		ports.Collections = &mockCollectionService{err: domain.ErrInvalidInput}
		server := newTestServer(t, ports)

		_, _, err := server.handleCreateCollection(ctx, nil, CreateCollectionInput{Name: " "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleSubmitDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("returns document and job ids", func(t *testing.T) {
		mock := &mockDocumentService{submission: &domain.Submission{
			Document: domain.Document{ID: "doc-1"},
			Job:      domain.Job{ID: "job-1", Status: "pending"},
		}}
		ports := basePorts()
		ports.Documents = mock
		server := newTestServer(t, ports)

		_, output, err := server.handleSubmitDocument(ctx, nil, SubmitDocumentInput{
			CollectionID: "abc-123",
			Title:        "Notes",
			Content:      "hello",
		})
		require.NoError(t, err)
		assert.Equal(t, SubmitDocumentOutput{DocumentID: "doc-1", JobID: "job-1", JobStatus: "pending"}, output)
		assert.Equal(t, "abc-123", mock.collectionID)
		assert.Equal(t, domain.DocumentInput{Title: "Notes", Content: "hello"}, mock.input)
	})

	t.Run("contract violation surfaces", func(t *testing.T) {
		ports := basePorts()
		ports.Documents = &mockDocumentService{err: domain.NewContractError("submit response is missing the job")}
		server := newTestServer(t, ports)

		_, _, err := server.handleSubmitDocument(ctx, nil, SubmitDocumentInput{CollectionID: "abc-123", Title: "Notes"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrContractViolation)
	})
}

func TestServer_handleGetDocument(t *testing.T) {
	ports := basePorts()
	ports.Documents = &mockDocumentService{document: &domain.Document{
		ID: "doc-1", CollectionID: "abc-123", Title: "Notes", Status: "uploaded",
	}}
	server := newTestServer(t, ports)

	_, output, err := server.handleGetDocument(context.Background(), nil, GetDocumentInput{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Equal(t, DocumentOutput{ID: "doc-1", CollectionID: "abc-123", Title: "Notes", Status: "uploaded"}, output)
}

func TestServer_handleGetJob(t *testing.T) {
	ctx := context.Background()

	t.Run("running job", func(t *testing.T) {
		ports := basePorts()
		ports.Jobs = &mockJobService{job: &domain.Job{ID: "job-1", DocumentID: "doc-1", Status: "running", Progress: 40}}
		server := newTestServer(t, ports)

		_, output, err := server.handleGetJob(ctx, nil, GetJobInput{JobID: "job-1"})
		require.NoError(t, err)
		assert.Equal(t, JobOutput{ID: "job-1", DocumentID: "doc-1", Status: "running", Progress: 40}, output)
	})

	t.Run("failed job carries its error", func(t *testing.T) {
		msg := "unsupported format"
		ports := basePorts()
		ports.Jobs = &mockJobService{job: &domain.Job{ID: "job-1", Status: "failed", Error: &msg}}
		server := newTestServer(t, ports)

		_, output, err := server.handleGetJob(ctx, nil, GetJobInput{JobID: "job-1"})
		require.NoError(t, err)
		assert.Equal(t, "unsupported format", output.Error)
	})

	t.Run("no job service", func(t *testing.T) {
		server := newTestServer(t, basePorts())

		_, _, err := server.handleGetJob(ctx, nil, GetJobInput{JobID: "job-1"})
		assert.ErrorIs(t, err, errServiceUnavailable)
	})
}

func TestServer_handleHealth(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		ports := basePorts()
		ports.Health = &mockHealthService{status: "ok"}
		server := newTestServer(t, ports)

		_, output, err := server.handleHealth(ctx, nil, HealthInput{})
		require.NoError(t, err)
		assert.Equal(t, "ok", output.Status)
	})

	t.Run("unreachable", func(t *testing.T) {
		ports := basePorts()
		ports.Health = &mockHealthService{err: errors.New("connection refused")}
		server := newTestServer(t, ports)

		_, _, err := server.handleHealth(ctx, nil, HealthInput{})
		assert.EqualError(t, err, "connection refused")
	})
}
