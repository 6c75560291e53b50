package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedProvider indicates an unknown provider identifier.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrLLMUnavailable indicates the generative-text service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Source-level errors. These are recovered into a fetch status and never
	// abort a pipeline run on their own.

	// ErrAuthRequired indicates a credential is missing or could not be refreshed.
	// The user has to reconnect the provider.
	ErrAuthRequired = errors.New("authentication required")

	// ErrTokenRefreshFailed indicates the token refresh exchange failed.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrUpstreamUnavailable indicates a provider timed out or returned a server error.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// Stage-level errors.

	// ErrNoContent indicates there is nothing to narrate. Fatal for a run.
	ErrNoContent = errors.New("no content to narrate")

	// ErrSynthesisFailure indicates a generative or speech call failed.
	// Soft for a single script topic, fatal for the audio stage.
	ErrSynthesisFailure = errors.New("synthesis failed")

	// ErrPersistence indicates a storage or database write failed after retries. Fatal for a run.
	ErrPersistence = errors.New("persistence failed")
)

// ErrorCode returns a short machine-readable code for err, used in the
// terminal progress event.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthRequired):
		return "auth_required"
	case errors.Is(err, ErrNoContent):
		return "no_content"
	case errors.Is(err, ErrSynthesisFailure):
		return "synthesis_failed"
	case errors.Is(err, ErrPersistence):
		return "persistence_failed"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "internal"
	}
}

// UserMessage maps a fatal pipeline error to a message that is safe to show
// to the user. Internal details never leak through it.
func UserMessage(err error) string {
	switch ErrorCode(err) {
	case "":
		return ""
	case "auth_required":
		return "Reconnect your accounts to generate a briefing."
	case "no_content":
		return "There was nothing new to talk about today."
	case "synthesis_failed":
		return "We could not produce your briefing audio. Please try again."
	case "persistence_failed":
		return "We could not save your briefing. Please try again."
	case "upstream_unavailable":
		return "Your connected services are not responding. Please try again later."
	default:
		return "Something went wrong while generating your briefing. Please try again."
	}
}
