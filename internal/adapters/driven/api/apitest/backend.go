// Package apitest provides an in-memory backend for exercising the API
// client and the resource services over real HTTP.
//
// It serves the same routes as the ingestion backend, authenticates bearer
// tokens against a fixed table, and records every request it sees.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Document and job statuses assigned at submission.
const (
	StatusUploaded = "uploaded"
	StatusPending  = "pending"
)

// Request is one call recorded by the backend.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// cannedResponse replaces the normal handling of one route.
type cannedResponse struct {
	status int
	body   string
}

// Backend is an in-memory ingestion backend.
type Backend struct {
	mu          sync.Mutex
	server      *httptest.Server
	users       map[string]string // token -> user id
	collections []domain.Collection
	documents   map[string]domain.Document
	jobs        map[string]domain.Job
	requests    []Request
	canned      map[string]cannedResponse
	seq         map[string]int
	now         func() time.Time
}

// NewBackend starts a backend. Close it with Close.
func NewBackend() *Backend {
	b := &Backend{
		users:     make(map[string]string),
		documents: make(map[string]domain.Document),
		jobs:      make(map[string]domain.Job),
		canned:    make(map[string]cannedResponse),
		seq:       make(map[string]int),
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", b.handleHealth)
	mux.HandleFunc("GET /collections", b.authed(b.handleListCollections))
	mux.HandleFunc("POST /collections", b.authed(b.handleCreateCollection))
	mux.HandleFunc("POST /collections/{id}/docs", b.authed(b.handleCreateDocument))
	mux.HandleFunc("GET /docs/{id}", b.authed(b.handleGetDocument))
	mux.HandleFunc("GET /ingestions/{jobId}", b.authed(b.handleGetJob))

	b.server = httptest.NewServer(b.record(mux))
	return b
}

// URL returns the backend's base address.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close shuts the backend down.
func (b *Backend) Close() {
	b.server.Close()
}

// AddUser makes token authenticate as userID.
func (b *Backend) AddUser(token, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[token] = userID
}

// Respond makes "METHOD /path" answer with status and body verbatim.
func (b *Backend) Respond(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.canned[method+" "+path] = cannedResponse{status: status, body: body}
}

// Requests returns a copy of every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// LastRequest returns the most recent request.
func (b *Backend) LastRequest() Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return Request{}
	}
	return b.requests[len(b.requests)-1]
}

// SeedCollection stores a collection owned by userID without an HTTP call.
func (b *Backend) SeedCollection(userID, id, name string) domain.Collection {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := domain.Collection{ID: id, Name: name, OwnerUserID: userID, CreatedAt: b.now()}
	b.collections = append(b.collections, c)
	return c
}

// SetJob replaces a job, e.g. to simulate ingestion progress.
func (b *Backend) SetJob(job domain.Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs[job.ID] = job
}

func (b *Backend) nextID(prefix string) string {
	b.seq[prefix]++
	return fmt.Sprintf("%s-%d", prefix, b.seq[prefix])
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		canned, ok := b.canned[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if ok {
			w.WriteHeader(canned.status)
			_, _ = io.WriteString(w, canned.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

func (b *Backend) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || len(r.Header.Values("Authorization")) != 1 {
			http.Error(w, "missing authorization token", http.StatusUnauthorized)
			return
		}

		b.mu.Lock()
		userID, known := b.users[token]
		b.mu.Unlock()
		if !known {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		h(w, r, userID)
	}
}

func (b *Backend) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.HealthStatus{Status: "ok"})
}

func (b *Backend) handleListCollections(w http.ResponseWriter, _ *http.Request, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Newest first.
	out := make([]domain.Collection, 0, len(b.collections))
	for i := len(b.collections) - 1; i >= 0; i-- {
		if b.collections[i].OwnerUserID == userID {
			out = append(out, b.collections[i])
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleCreateCollection(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	c := domain.Collection{
		ID:          b.nextID("col"),
		Name:        req.Name,
		OwnerUserID: userID,
		CreatedAt:   b.now(),
	}
	b.collections = append(b.collections, c)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, c)
}

func (b *Backend) handleCreateDocument(w http.ResponseWriter, r *http.Request, userID string) {
	collectionID := r.PathValue("id")
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	owned := false
	for _, c := range b.collections {
		if c.ID == collectionID && c.OwnerUserID == userID {
			owned = true
			break
		}
	}
	if !owned {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	now := b.now()
	doc := domain.Document{
		ID:           b.nextID("doc"),
		CollectionID: collectionID,
		OwnerUserID:  userID,
		Title:        req.Title,
		Status:       StatusUploaded,
		CreatedAt:    now,
	}
	job := domain.Job{
		ID:         b.nextID("job"),
		DocumentID: doc.ID,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.documents[doc.ID] = doc
	b.jobs[job.ID] = job

	writeJSON(w, http.StatusCreated, domain.Submission{Document: doc, Job: job})
}

func (b *Backend) handleGetDocument(w http.ResponseWriter, r *http.Request, userID string) {
	b.mu.Lock()
	doc, ok := b.documents[r.PathValue("id")]
	b.mu.Unlock()

	if !ok || doc.OwnerUserID != userID {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (b *Backend) handleGetJob(w http.ResponseWriter, r *http.Request, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, ok := b.jobs[r.PathValue("jobId")]
	if ok {
		doc, docOK := b.documents[job.DocumentID]
		ok = docOK && doc.OwnerUserID == userID
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
