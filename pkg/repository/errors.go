package repository

import "errors"

// Storage contract errors. A failed conditional write is a definitive
// outcome, never a transient one: the precondition (status == Open) is now
// permanently false for that caller, so none of these are retried.
var (
	// ErrNotFound reports an unknown id.
	ErrNotFound = errors.New("not found")

	// ErrForbidden reports a caller that is not the owning poster, provider
	// or rater.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyAssigned reports a lost AcceptJob race: some other worker's
	// conditional write matched the Open row first.
	ErrAlreadyAssigned = errors.New("job already assigned")

	// ErrAlreadyResolved reports a lost AcceptQuote race, or a request that
	// is already Closed or Cancelled.
	ErrAlreadyResolved = errors.New("service request already resolved")

	// ErrDuplicateSubmission reports a second live quote by the same provider
	// on the same request, or a second rating by the same rater on the same
	// engagement.
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrInvalidStateTransition reports an operation attempted from a state
	// that forbids it, e.g. completing a job that was never assigned.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)
