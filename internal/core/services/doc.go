// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The generation pipeline lives here: the connector registry, content
// aggregation, transcript extraction, interest and script synthesis, audio
// synthesis, persistence and progress tracking.
package services
