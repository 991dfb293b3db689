package services

import "errors"

// Evaluation error taxonomy. Sub-score calculators never return errors; only
// the orchestration layer (existence checks, persistence, external fetch)
// produces these.
var (
	// ErrSessionNotFound - the referenced session does not exist. Fatal for
	// the attempt, never retried automatically.
	ErrSessionNotFound = errors.New("screening session not found")

	// ErrCandidateNotFound - referential integrity violation; the session's
	// candidate is missing.
	ErrCandidateNotFound = errors.New("candidate not found")

	// ErrSessionNotScorable - the session is not in a state eligible for
	// evaluation (not completed and not explicitly triggered).
	ErrSessionNotScorable = errors.New("session is not eligible for evaluation")

	// ErrInsufficientData - the session has no finalized candidate
	// utterances. Distinct from a failing score: no assessment is created and
	// the candidate is left in a reviewable state.
	ErrInsufficientData = errors.New("no finalized candidate responses to score")

	// ErrExternalFetch - the vendor call-data fetch failed or returned a
	// malformed payload. No partial assessment is created; the webhook
	// delivery is safe to retry.
	ErrExternalFetch = errors.New("vendor call data fetch failed")

	// ErrConfiguration - required credentials or identifiers are absent.
	// Fatal at startup or first use, not per request.
	ErrConfiguration = errors.New("missing required configuration")
)
