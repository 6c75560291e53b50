// Package mcp exposes briefings to AI assistants over the Model Context
// Protocol. An assistant can read today's briefing, start a generation and
// check which providers are connected.
package mcp

import "errors"

var (
	// ErrMissingBriefingService is returned when the briefing service is not provided.
	ErrMissingBriefingService = errors.New("mcp: briefing service is required")

	// ErrMissingUser is returned when no user is configured.
	ErrMissingUser = errors.New("mcp: user id is required")
)
