// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CredentialStore: Per-user OAuth credential persistence
//   - TokenExchanger: Provider OAuth token endpoints
//   - SourceFetcher: Fetches recent content from one provider
//   - LLMService: Generative text for interests and scripts
//   - BriefingStore: Durable daily briefings
//   - InterestStore: Cached interest profiles
//   - UserSettingsStore: Per-user generation preferences
//   - ProgressSink: Receives the stage events of one run
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SpeechSynthesizer and ObjectStore: Without them, briefings are script only.
//   - CaptionExtractor: Without one, video sources carry titles only.
//   - ProgressObserver: Receives every event of every run (e.g. a message bus).
//   - PromptStore: Without it, embedded default prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
