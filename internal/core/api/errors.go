package api

import (
	"context"
	"errors"

	"github.com/solatis/eventtrail/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Auth errors are mapped in the auth package interceptor.
// Definition and decoding errors map to INVALID_ARGUMENT.
// Unknown pattern ids map to NOT_FOUND.
// Context timeouts map to DEADLINE_EXCEEDED.
// Anything else comes from storage and maps to UNAVAILABLE.

var invalidArgument = []error{
	types.ErrUnknownAttribute,
	types.ErrUnknownValueKind,
	types.ErrCoercionFailed,
	types.ErrEmptyDefinition,
	types.ErrAmbiguousDefinition,
	types.ErrInvalidBounds,
	types.ErrRepeatTooLarge,
	types.ErrPatternTooDeep,
	types.ErrTooManyNodes,
	types.ErrHistoryTooLong,
	types.ErrInvalidPatternName,
}

// statusError converts err to a gRPC status error.
func statusError(err error) error {
	return status.Error(errorCode(err), err.Error())
}

func errorCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, types.ErrPatternNotFound):
		return codes.NotFound
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return codes.InvalidArgument
		}
	}
	return codes.Unavailable
}
