package driven

import (
	"context"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// ProgressSink receives the stage events of one pipeline run.
// The transport behind it (an HTTP event stream, a terminal, a test
// recorder) is an adapter detail.
type ProgressSink interface {
	// Send delivers one event. An error means the subscriber is gone and
	// no further events will be sent to this sink.
	Send(ctx context.Context, event domain.ProgressEvent) error

	// Close is called once, after the terminal event.
	Close() error
}

// ProgressObserver receives every event of every run, for fan-out to other
// processes. Failures are logged and never affect the run.
type ProgressObserver interface {
	Publish(ctx context.Context, event domain.ProgressEvent) error
}
