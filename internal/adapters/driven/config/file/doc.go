// Package file provides the TOML-backed configuration store.
//
// Settings live in ~/.ragdesk/config.toml. Keys are addressed in dot
// notation ("api.base_url") and written back as nested TOML tables.
package file
