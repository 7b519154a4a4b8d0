// Package driving holds the interfaces the CLI, TUI and MCP server call.
// internal/core/services implements every one of them; surfaces never
// reach past these interfaces into adapters.
package driving
