package domain

// OutcomeStatus tells a successful import from a failed one.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// ImportOutcome is the single user-facing result of importing one URL.
type ImportOutcome struct {
	Status OutcomeStatus
	// Text is the message shown to the user.
	Text string
}

// Success builds a successful outcome.
func Success(displayText string) ImportOutcome {
	return ImportOutcome{Status: OutcomeSuccess, Text: displayText}
}

// Failure builds a failed outcome.
func Failure(reason string) ImportOutcome {
	return ImportOutcome{Status: OutcomeFailure, Text: reason}
}

// OK reports whether the import succeeded.
func (o ImportOutcome) OK() bool { return o.Status == OutcomeSuccess }
