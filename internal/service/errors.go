package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/fistein/internal/auth"
	"github.com/mmynk/fistein/internal/ledger"
)

// errorKindHeader carries the ValidationKind of an invalid-argument error so
// clients can react without parsing the message.
const errorKindHeader = "Fistein-Error-Kind"

// toConnectError maps domain errors onto connect codes. Errors without a
// domain meaning become CodeInternal.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var validation *ledger.ValidationError
	switch {
	case errors.As(err, &validation):
		cerr := connect.NewError(connect.CodeInvalidArgument, err)
		cerr.Meta().Set(errorKindHeader, string(validation.Kind))
		return cerr
	case ledger.IsNotFound(err):
		return connect.NewError(connect.CodeNotFound, err)
	case ledger.IsAuthorization(err):
		return connect.NewError(connect.CodePermissionDenied, err)
	case ledger.IsPrecondition(err):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}
