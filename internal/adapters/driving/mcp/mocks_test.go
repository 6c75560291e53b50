package mcp

import (
	"context"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
)

// mockBriefingService is a mock implementation of driving.BriefingService.
type mockBriefingService struct {
	today     *domain.BriefingRecord
	history   []domain.BriefingRecord
	err       error
	lastLimit int
}

func (m *mockBriefingService) Today(_ context.Context, _ string) (*domain.BriefingRecord, error) {
	return m.today, m.err
}

func (m *mockBriefingService) History(_ context.Context, _ string, limit int) ([]domain.BriefingRecord, error) {
	m.lastLimit = limit
	return m.history, m.err
}

func (m *mockBriefingService) SaveEdit(_ context.Context, _ string, _ domain.BriefingEdit) (*domain.BriefingRecord, error) {
	return m.today, m.err
}

// mockPipeline is a mock implementation of driving.BriefingPipeline.
type mockPipeline struct {
	record  *domain.BriefingRecord
	stages  []domain.Stage
	err     error
	lastReq driving.GenerateRequest
}

func (m *mockPipeline) Generate(
	ctx context.Context,
	req driving.GenerateRequest,
	sink driven.ProgressSink,
) (*domain.BriefingRecord, error) {
	m.lastReq = req
	for _, st := range m.stages {
		_ = sink.Send(ctx, domain.ProgressEvent{Stage: st})
	}
	_ = sink.Close()
	return m.record, m.err
}

// mockConnectors is a mock implementation of driving.ConnectorRegistry.
type mockConnectors struct {
	driving.ConnectorRegistry
	statuses []domain.ConnectionStatus
	err      error
}

func (m *mockConnectors) Status(_ context.Context, _ string) ([]domain.ConnectionStatus, error) {
	return m.statuses, m.err
}

func testPorts() *Ports {
	return &Ports{UserID: "u1", Briefings: &mockBriefingService{}}
}
