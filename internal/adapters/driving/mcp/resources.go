package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for briefing resources.
	uriScheme = "briefcast://"

	historyScanLimit = 90
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "briefings/today",
		Name:        "today",
		Description: "Script of today's briefing",
		MIMEType:    "text/plain",
	}, s.handleTodayResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "briefings/{date}",
		Name:        "briefing-by-date",
		Description: "Script of the briefing for a day, formatted YYYY-MM-DD",
		MIMEType:    "text/plain",
	}, s.handleDateResource)
}

func (s *Server) handleTodayResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	rec, err := s.ports.Briefings.Today(ctx, s.ports.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading today's briefing: %w", err)
	}
	if rec == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return scriptResult(req.Params.URI, rec), nil
}

func (s *Server) handleDateResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	date := extractDate(req.Params.URI)
	if date == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	records, err := s.ports.Briefings.History(ctx, s.ports.UserID, historyScanLimit)
	if err != nil {
		return nil, fmt.Errorf("listing briefings: %w", err)
	}
	for i := range records {
		if records[i].DateKey == date {
			return scriptResult(req.Params.URI, &records[i]), nil
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func scriptResult(uri string, rec *domain.BriefingRecord) *mcp.ReadResourceResult {
	text := rec.Script
	if rec.Title != "" {
		text = rec.Title + "\n\n" + text
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}
}

// extractDate extracts the day from a URI like briefcast://briefings/2025-06-01.
func extractDate(uri string) string {
	const prefix = uriScheme + "briefings/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	date := strings.TrimPrefix(uri, prefix)
	if len(date) != len(domain.DateKeyLayout) || strings.Contains(date, "/") {
		return ""
	}
	return date
}
