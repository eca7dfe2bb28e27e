package model

// ChallengeOutcome is the terminal result of one challenge recovery attempt.
// Exactly one outcome is produced per attempt and drives the orchestrator's
// branching.
type ChallengeOutcome string

const (
	// OutcomeNoChallenge means no challenge surface ever opened.
	OutcomeNoChallenge ChallengeOutcome = "no_challenge"

	// OutcomeSuccess means the challenge was confirmed resolved, either by the
	// operator or by a completion signal on the still-open surface.
	OutcomeSuccess ChallengeOutcome = "success"

	// OutcomeSkip means the operator asked to abandon the row.
	OutcomeSkip ChallengeOutcome = "skip"

	// OutcomeReload means the operator asked to close the challenge surface
	// and re-click the disclosure control.
	OutcomeReload ChallengeOutcome = "reload"

	// OutcomeAutoRetry means the challenge surface closed without an operator
	// command. Page state is unknown, so the whole disclosure step must be
	// re-attempted rather than trusting stale content.
	OutcomeAutoRetry ChallengeOutcome = "auto_retry"

	// OutcomeTimeout means the recovery budget was exhausted unresolved.
	OutcomeTimeout ChallengeOutcome = "timeout"
)

// ExtractionResult is a partial contact mapping. An empty string means
// "not found"; extraction never produces empty-but-present values.
type ExtractionResult struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Empty reports whether no field was found.
func (e ExtractionResult) Empty() bool {
	return e.Phone == "" && e.Email == ""
}

// Complete reports whether both fields were found.
func (e ExtractionResult) Complete() bool {
	return e.Phone != "" && e.Email != ""
}

// Merge fills fields still missing in e from other, never overwriting a field
// already populated earlier in the chain.
func (e ExtractionResult) Merge(other ExtractionResult) ExtractionResult {
	if e.Phone == "" {
		e.Phone = other.Phone
	}
	if e.Email == "" {
		e.Email = other.Email
	}
	return e
}
