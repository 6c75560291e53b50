package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
)

const (
	defaultHistoryLimit = 7
	maxHistoryLimit     = 30
)

// TodayInput is the input schema for the get_today_briefing tool.
type TodayInput struct{}

// BriefingOutput describes one stored briefing.
type BriefingOutput struct {
	Found           bool            `json:"found"`
	ID              string          `json:"id,omitempty"`
	Date            string          `json:"date,omitempty"`
	Title           string          `json:"title,omitempty"`
	Status          string          `json:"status,omitempty"`
	Script          string          `json:"script,omitempty"`
	Sections        []SectionOutput `json:"sections,omitempty"`
	AudioURL        string          `json:"audio_url,omitempty"`
	DurationSeconds int             `json:"duration_seconds,omitempty"`
}

// SectionOutput is one labelled part of a script.
type SectionOutput struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// HistoryInput is the input schema for the list_briefings tool.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of recent briefings to return (default 7, max 30)"`
}

// HistoryOutput lists recent briefings without their scripts.
type HistoryOutput struct {
	Briefings []BriefingOutput `json:"briefings"`
	Count     int              `json:"count"`
}

// GenerateInput is the input schema for the generate_briefing tool.
type GenerateInput struct {
	Providers []string `json:"providers,omitempty" jsonschema:"providers to include; defaults to the user's enabled providers"`
	Topics    []string `json:"topics,omitempty" jsonschema:"extra topics to cover in the briefing"`
}

// GenerateOutput summarises a finished generation.
type GenerateOutput struct {
	Briefing BriefingOutput `json:"briefing"`
	Stages   []string       `json:"stages"`
}

// ConnectorInput is the input schema for the connector_status tool.
type ConnectorInput struct{}

// ConnectorOutput lists provider connection states.
type ConnectorOutput struct {
	Connectors []ConnectorStateOutput `json:"connectors"`
}

// ConnectorStateOutput is the state of one provider.
type ConnectorStateOutput struct {
	Provider  string `json:"provider"`
	State     string `json:"state"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_today_briefing",
		Description: "Return today's briefing script and audio link, if one has been generated",
	}, s.handleToday)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_briefings",
		Description: "List recent briefings, newest first",
	}, s.handleHistory)

	if s.ports.Pipeline != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "generate_briefing",
			Description: "Generate today's briefing from connected providers. Takes several minutes.",
		}, s.handleGenerate)
	}

	if s.ports.Connectors != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "connector_status",
			Description: "Show which content providers are connected",
		}, s.handleConnectors)
	}
}

func (s *Server) handleToday(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ TodayInput,
) (*mcp.CallToolResult, BriefingOutput, error) {
	rec, err := s.ports.Briefings.Today(ctx, s.ports.UserID)
	if err != nil {
		return nil, BriefingOutput{}, err
	}
	return nil, toBriefingOutput(rec, true), nil
}

func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.ports.Briefings.History(ctx, s.ports.UserID, limit)
	if err != nil {
		return nil, HistoryOutput{}, err
	}

	out := HistoryOutput{Briefings: make([]BriefingOutput, len(records)), Count: len(records)}
	for i := range records {
		out.Briefings[i] = toBriefingOutput(&records[i], false)
	}
	return nil, out, nil
}

func (s *Server) handleGenerate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateInput,
) (*mcp.CallToolResult, GenerateOutput, error) {
	providers, err := domain.ParseProviders(input.Providers)
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	sink := &stageRecorder{}
	rec, err := s.ports.Pipeline.Generate(ctx, driving.GenerateRequest{
		UserID:      s.ports.UserID,
		Providers:   providers,
		TrendTopics: input.Topics,
	}, sink)
	if err != nil {
		return nil, GenerateOutput{Stages: sink.Stages()}, err
	}
	return nil, GenerateOutput{Briefing: toBriefingOutput(rec, true), Stages: sink.Stages()}, nil
}

func (s *Server) handleConnectors(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ConnectorInput,
) (*mcp.CallToolResult, ConnectorOutput, error) {
	statuses, err := s.ports.Connectors.Status(ctx, s.ports.UserID)
	if err != nil {
		return nil, ConnectorOutput{}, err
	}

	out := ConnectorOutput{Connectors: make([]ConnectorStateOutput, len(statuses))}
	for i, st := range statuses {
		out.Connectors[i] = ConnectorStateOutput{
			Provider: string(st.Provider),
			State:    string(st.State),
		}
		if !st.ExpiresAt.IsZero() {
			out.Connectors[i].ExpiresAt = st.ExpiresAt.Format(time.RFC3339)
		}
	}
	return nil, out, nil
}

func toBriefingOutput(rec *domain.BriefingRecord, withScript bool) BriefingOutput {
	if rec == nil {
		return BriefingOutput{}
	}
	out := BriefingOutput{
		Found:           true,
		ID:              rec.ID,
		Date:            rec.DateKey,
		Title:           rec.Title,
		Status:          string(rec.Status),
		AudioURL:        rec.AudioURL,
		DurationSeconds: rec.DurationSeconds,
	}
	if withScript {
		out.Script = rec.Script
		for _, sec := range rec.Sections {
			out.Sections = append(out.Sections, SectionOutput{Label: sec.Label, Text: sec.Text})
		}
	}
	return out
}

// stageRecorder is a progress sink that remembers the stages it saw.
type stageRecorder struct {
	mu     sync.Mutex
	stages []string
}

var _ driven.ProgressSink = (*stageRecorder)(nil)

func (r *stageRecorder) Send(_ context.Context, ev domain.ProgressEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, string(ev.Stage))
	return nil
}

func (r *stageRecorder) Close() error { return nil }

// Stages returns a copy of the recorded stages.
func (r *stageRecorder) Stages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stages...)
}
