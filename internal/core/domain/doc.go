// Package domain defines the core business entities for Briefcast.
//
// Everything a generation run produces or consumes is modelled here:
//
//   - Credential: OAuth tokens held per user and provider
//   - ContentItem: Provider-agnostic content fetched for one run
//   - InterestProfile: Ranked keywords describing a user's interests
//   - ScriptDocument: Sectioned narration text
//   - AudioArtifact: Synthesized speech and where it is stored
//   - BriefingRecord: The durable daily briefing
//   - ProgressEvent: One stage transition of a generation run
//
// The package also owns the error taxonomy (errors.go) and the stage
// order of the progress protocol (progress.go). It imports nothing outside
// the standard library.
package domain
