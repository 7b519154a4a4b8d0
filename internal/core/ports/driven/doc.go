// Package driven holds the interfaces core services need from the outside
// world: an identity provider, somewhere to keep the session and settings,
// and an authorised HTTP client for the backend.
//
// CodeExchanger and SessionWatcher are optional. A provider without
// CodeExchanger supports password sign-in only; without a SessionWatcher a
// sign-out in another process is noticed on the next run instead of live.
package driven
