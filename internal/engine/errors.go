package engine

import "errors"

var (
	// ErrNotFound covers missing, soft-deleted and mismatched records
	// alike, so callers cannot distinguish hidden records from absent
	// ones.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized means the actor lacks the role or ownership for
	// the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotApproved means the provider has not been approved by an
	// administrator yet.
	ErrNotApproved = errors.New("provider not approved")

	// ErrInvalidState means the operation is not legal in the record's
	// current lifecycle state.
	ErrInvalidState = errors.New("invalid state")

	// ErrAlreadyAccepted guards against a second accept on a request.
	ErrAlreadyAccepted = errors.New("request already accepted")

	// ErrDuplicateResponse: one response per provider per request.
	ErrDuplicateResponse = errors.New("provider already responded to this request")
)
