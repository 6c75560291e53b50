package domain

import "time"

// Stage names a pipeline state. Events are emitted in this order.
type Stage string

const (
	StageStarted              Stage = "started"
	StageAggregating          Stage = "aggregating"
	StageSynthesizingInterest Stage = "synthesizing-interests"
	StageSynthesizingScript   Stage = "synthesizing-script"
	StageSynthesizingAudio    Stage = "synthesizing-audio"
	StagePersisting           Stage = "persisting"
	StageCompleted            Stage = "completed"
	StageError                Stage = "error"
)

var stageOrder = map[Stage]int{
	StageStarted:              0,
	StageAggregating:          1,
	StageSynthesizingInterest: 2,
	StageSynthesizingScript:   3,
	StageSynthesizingAudio:    4,
	StagePersisting:           5,
	StageCompleted:            6,
}

// IsTerminal reports whether no events may follow the stage.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageError
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	if s == StageError {
		return true
	}
	_, ok := stageOrder[s]
	return ok
}

// CanFollow reports whether s may be emitted after prev. Error may follow any
// non-terminal stage; other stages must strictly advance. Optional stages
// may be skipped.
func (s Stage) CanFollow(prev Stage) bool {
	if prev.IsTerminal() {
		return false
	}
	if s == StageError {
		return true
	}
	if prev == "" {
		return s == StageStarted
	}
	return stageOrder[s] > stageOrder[prev]
}

// ProgressEvent is one stage transition of one run.
type ProgressEvent struct {
	RunID     string         `json:"run_id"`
	UserID    string         `json:"user_id"`
	Stage     Stage          `json:"stage"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}
