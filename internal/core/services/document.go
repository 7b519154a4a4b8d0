package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService submits documents for ingestion and reads them back.
type DocumentService struct {
	backend
}

// NewDocumentService creates a new document service.
func NewDocumentService(api driven.APIClient, tokens driven.TokenProvider) *DocumentService {
	return &DocumentService{backend{api: api, tokens: tokens}}
}

// submitResponse mirrors the submit payload with pointers, so a missing
// document or job is distinguishable from an empty one.
type submitResponse struct {
	Document *domain.Document `json:"document"`
	Job      *domain.Job      `json:"job"`
}

// Submit creates a document in a collection and returns it with its ingestion job.
// The backend must return both objects with ids.
func (s *DocumentService) Submit(
	ctx context.Context,
	collectionID string,
	input domain.DocumentInput,
) (*domain.Submission, error) {
	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		return nil, fmt.Errorf("collection id is required: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}

	path := "/collections/" + url.PathEscape(collectionID) + "/docs"
	raw, err := s.call(ctx, http.MethodPost, path, input)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, domain.NewContractError("submit response is empty")
	}

	var resp submitResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, domain.NewContractError(fmt.Sprintf("unexpected submit response: %v", err))
	}
	switch {
	case resp.Document == nil || resp.Document.ID == "":
		return nil, domain.NewContractError("submit response is missing the document")
	case resp.Job == nil || resp.Job.ID == "":
		return nil, domain.NewContractError("submit response is missing the job")
	}

	return &domain.Submission{Document: *resp.Document, Job: *resp.Job}, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, fmt.Errorf("document id is required: %w", domain.ErrInvalidInput)
	}

	raw, err := s.call(ctx, http.MethodGet, "/docs/"+url.PathEscape(documentID), nil)
	if err != nil {
		return nil, err
	}

	var doc domain.Document
	if err := decodeInto(raw, &doc, "document"); err != nil {
		return nil, err
	}
	return &doc, nil
}
