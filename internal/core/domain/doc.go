// Package domain has the types every other ragdesk package shares:
// sessions and their states, backend resources (collections, documents,
// jobs), navigation routes with guard decisions, settings, and the
// normalised APIError.
//
// It imports nothing outside the standard library.
package domain
