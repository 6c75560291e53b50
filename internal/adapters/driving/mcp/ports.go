package mcp

import (
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
// The server acts on behalf of a single user.
type Ports struct {
	// UserID is the user every tool call acts for.
	UserID string

	// Briefings reads stored briefings.
	Briefings driving.BriefingService

	// Pipeline runs generations. Optional; generate_briefing is not
	// registered without it.
	Pipeline driving.BriefingPipeline

	// Connectors reports provider connections. Optional.
	Connectors driving.ConnectorRegistry
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Briefings == nil {
		return ErrMissingBriefingService
	}
	if p.UserID == "" {
		return ErrMissingUser
	}
	return nil
}
