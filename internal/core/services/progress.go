package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// ProgressTracker enforces the stage order of one run and delivers its
// events. The subscriber sink is detached on its first failure while the
// run continues; observers see every event. After the terminal event the
// sink is closed and further emits are rejected.
type ProgressTracker struct {
	runID     string
	userID    string
	sink      driven.ProgressSink
	observers []driven.ProgressObserver
	now       func() time.Time

	mu       sync.Mutex
	last     domain.Stage
	detached bool
}

// NewProgressTracker creates a tracker. sink may be nil.
func NewProgressTracker(
	runID, userID string,
	sink driven.ProgressSink,
	observers []driven.ProgressObserver,
) *ProgressTracker {
	return &ProgressTracker{
		runID:     runID,
		userID:    userID,
		sink:      sink,
		observers: observers,
		now:       time.Now,
		detached:  sink == nil,
	}
}

// Emit sends one stage event. It returns an error only when the stage may
// not follow the previous one.
func (t *ProgressTracker) Emit(ctx context.Context, stage domain.Stage, payload map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !stage.CanFollow(t.last) {
		return fmt.Errorf("%w: stage %s cannot follow %q", domain.ErrInvalidInput, stage, t.last)
	}
	t.last = stage
	if payload == nil {
		payload = map[string]any{}
	}
	event := domain.ProgressEvent{
		RunID:     t.runID,
		UserID:    t.userID,
		Stage:     stage,
		Payload:   payload,
		Timestamp: t.now(),
	}

	for _, o := range t.observers {
		if err := o.Publish(ctx, event); err != nil {
			logger.Warn("publish %s event for run %s: %v", stage, t.runID, err)
		}
	}

	if !t.detached {
		if err := t.sink.Send(ctx, event); err != nil {
			logger.Info("subscriber for run %s gone at %s: %v", t.runID, stage, err)
			t.detached = true
		}
	}

	if stage.IsTerminal() && t.sink != nil {
		if err := t.sink.Close(); err != nil {
			logger.Debug("close sink for run %s: %v", t.runID, err)
		}
	}
	return nil
}

// Fail emits the terminal error event with a user-safe message.
func (t *ProgressTracker) Fail(ctx context.Context, err error) {
	payload := map[string]any{
		"message": domain.UserMessage(err),
		"code":    domain.ErrorCode(err),
	}
	if emitErr := t.Emit(ctx, domain.StageError, payload); emitErr != nil {
		logger.Warn("run %s: %v", t.runID, emitErr)
	}
}

// Last returns the most recently emitted stage.
func (t *ProgressTracker) Last() domain.Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Detached reports whether the subscriber is no longer receiving events.
func (t *ProgressTracker) Detached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detached
}
