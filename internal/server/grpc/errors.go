package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type errorMapping struct {
	err    error
	code   codes.Code
	reason string
	// hide replaces the error text with the sentinel's, keeping blob keys
	// and driver messages out of responses.
	hide bool
}

// errorMappings is checked in order; derived kinds precede their parents.
var errorMappings = []errorMapping{
	{common.ErrStorageWriteFailed, codes.Unavailable, rpc.ReasonStorageWriteFailed, true},
	{common.ErrStorageReadFailed, codes.Unavailable, rpc.ReasonStorageReadFailed, true},
	{common.ErrInvalidParent, codes.NotFound, rpc.ReasonInvalidParent, false},
	{common.ErrNotFound, codes.NotFound, rpc.ReasonNotFound, false},
	{common.ErrForbidden, codes.PermissionDenied, rpc.ReasonForbidden, false},
	{common.ErrTokenExpired, codes.Unauthenticated, rpc.ReasonTokenExpired, false},
	{common.ErrInvalidToken, codes.Unauthenticated, rpc.ReasonInvalidToken, false},
	{common.ErrUnauthorized, codes.Unauthenticated, rpc.ReasonUnauthorized, false},
	{common.ErrNameConflict, codes.AlreadyExists, rpc.ReasonNameConflict, false},
	{common.ErrNotEmpty, codes.FailedPrecondition, rpc.ReasonNotEmpty, false},
	{common.ErrConflict, codes.Aborted, rpc.ReasonConflict, false},
	{common.ErrQuotaExceeded, codes.ResourceExhausted, rpc.ReasonQuotaExceeded, false},
	{common.ErrExpired, codes.FailedPrecondition, rpc.ReasonExpired, false},
	{common.ErrInvalidName, codes.InvalidArgument, rpc.ReasonInvalidName, false},
	{common.ErrInvalidOperation, codes.FailedPrecondition, rpc.ReasonInvalidOperation, false},
	{common.ErrInvalidArgument, codes.InvalidArgument, rpc.ReasonInvalidArgument, false},
}

// toStatus converts a service error into a status error carrying an
// ErrorInfo reason. Unrecognised errors are logged and reported as Internal.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			msg := err.Error()
			if m.hide {
				s.logger.Warn(ctx, "blob store failure", "error", err)
				msg = m.err.Error()
			}
			return rpc.Error(m.code, m.reason, msg)
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	}

	s.logger.Error(ctx, "internal error", "error", err)
	return status.Error(codes.Internal, "internal error")
}
