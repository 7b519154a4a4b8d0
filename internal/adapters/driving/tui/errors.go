package tui

import "errors"

// ErrMissingSessionHolder is returned when the session holder is not provided.
var ErrMissingSessionHolder = errors.New("tui: session holder is required")

// ErrMissingGuard is returned when the route guard is not provided.
var ErrMissingGuard = errors.New("tui: route guard is required")

// ErrMissingCollectionService is returned when the collection service is not provided.
var ErrMissingCollectionService = errors.New("tui: collection service is required")

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("tui: document service is required")

// ErrInvalidPorts is returned when no ports are given.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
