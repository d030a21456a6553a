// Package driving holds the use-case interfaces the CLI, TUI and MCP server
// call: asking, searching, settings and answer actions.
//
// internal/core/services implements them.
package driving
