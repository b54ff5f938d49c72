package ledger

import (
	"errors"
	"fmt"
)

// ValidationKind names the rule a ValidationError broke.
type ValidationKind string

const (
	ShareSumMismatch      ValidationKind = "SHARE_SUM_MISMATCH"
	PercentageSumMismatch ValidationKind = "PERCENTAGE_SUM_MISMATCH"
	MissingShareData      ValidationKind = "MISSING_SHARE_DATA"
	UnknownParticipant    ValidationKind = "UNKNOWN_PARTICIPANT"
	DuplicateParticipant  ValidationKind = "DUPLICATE_PARTICIPANT"
	InvalidAmount         ValidationKind = "INVALID_AMOUNT"
	InvalidPercentage     ValidationKind = "INVALID_PERCENTAGE"
	InvalidPolicy         ValidationKind = "INVALID_POLICY"
)

// ValidationError reports caller input that violates a split rule.
// Member and Field point at the offending entry when there is one.
type ValidationError struct {
	Kind   ValidationKind
	Member string
	Field  string
	Got    string
	Want   string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation failed: %s", e.Kind)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %s)", e.Field)
	}
	if e.Member != "" {
		msg += fmt.Sprintf(" for member %s", e.Member)
	}
	if e.Got != "" || e.Want != "" {
		msg += fmt.Sprintf(": got %s, want %s", e.Got, e.Want)
	}
	return msg
}

// NotFoundError reports a referenced resource that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// AuthorizationError reports an actor attempting something they may not do.
type AuthorizationError struct {
	Actor    string
	Action   string
	Resource string
	ID       string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s may not %s %s %s", e.Actor, e.Action, e.Resource, e.ID)
}

// PreconditionError reports a request that cannot be served in the current
// state, such as an equal split with nobody to split between.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// Kind accessors for callers that only need the category.

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

func IsAuthorization(err error) bool {
	var v *AuthorizationError
	return errors.As(err, &v)
}

func IsPrecondition(err error) bool {
	var v *PreconditionError
	return errors.As(err, &v)
}

func notFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}
