package domain

import (
	"strings"
	"time"
)

// Collection is a named, user-owned container of documents.
type Collection struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// Name is the display name. Never blank.
	Name string `json:"name"`

	// OwnerUserID is the principal that owns the collection.
	OwnerUserID string `json:"owner_user_id,omitempty"`

	// CreatedAt is when the backend created the collection.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// NormaliseCollectionName trims a candidate name. An empty result is invalid.
func NormaliseCollectionName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidInput
	}
	return trimmed, nil
}

// Document is a unit of content submitted into a collection.
// Content is only ever sent; the backend never returns it.
type Document struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// CollectionID links to the owning collection.
	CollectionID string `json:"collection_id,omitempty"`

	// OwnerUserID is the principal that submitted the document.
	OwnerUserID string `json:"owner_user_id,omitempty"`

	// Title is the human-readable title.
	Title string `json:"title,omitempty"`

	// Status is the backend ingestion status of the document.
	Status string `json:"status,omitempty"`

	// CreatedAt is when the backend accepted the document.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DocumentInput is the payload of a document submission.
type DocumentInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Job tracks asynchronous ingestion of one document.
// Status is controlled by the backend and treated as opaque.
type Job struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Progress   int       `json:"progress"`
	Error      *string   `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Failed reports whether the backend recorded an ingestion error.
func (j *Job) Failed() bool {
	return j.Error != nil && *j.Error != ""
}

// Submission is the result of one ingestion submission: the created
// document and the job that will ingest it.
type Submission struct {
	Document Document `json:"document"`
	Job      Job      `json:"job"`
}

// HealthStatus is the backend liveness response.
type HealthStatus struct {
	Status string `json:"status"`
}
