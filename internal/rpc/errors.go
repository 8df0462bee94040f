package rpc

import (
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain is set on every errdetails.ErrorInfo the server attaches.
const ErrorDomain = "gophdrive"

// Reasons carried in errdetails.ErrorInfo. Several map onto the same gRPC
// code, so clients tell them apart by reason.
const (
	ReasonNotFound           = "NOT_FOUND"
	ReasonInvalidParent      = "INVALID_PARENT"
	ReasonForbidden          = "FORBIDDEN"
	ReasonUnauthorized       = "UNAUTHORIZED"
	ReasonInvalidToken       = "INVALID_TOKEN"
	ReasonTokenExpired       = "TOKEN_EXPIRED"
	ReasonConflict           = "CONFLICT"
	ReasonNameConflict       = "NAME_CONFLICT"
	ReasonNotEmpty           = "NOT_EMPTY"
	ReasonQuotaExceeded      = "QUOTA_EXCEEDED"
	ReasonExpired            = "EXPIRED"
	ReasonInvalidOperation   = "INVALID_OPERATION"
	ReasonInvalidName        = "INVALID_NAME"
	ReasonInvalidArgument    = "INVALID_ARGUMENT"
	ReasonStorageWriteFailed = "STORAGE_WRITE_FAILED"
	ReasonStorageReadFailed  = "STORAGE_READ_FAILED"
)

var reasonErrors = map[string]error{
	ReasonNotFound:           common.ErrNotFound,
	ReasonInvalidParent:      common.ErrInvalidParent,
	ReasonForbidden:          common.ErrForbidden,
	ReasonUnauthorized:       common.ErrUnauthorized,
	ReasonInvalidToken:       common.ErrInvalidToken,
	ReasonTokenExpired:       common.ErrTokenExpired,
	ReasonConflict:           common.ErrConflict,
	ReasonNameConflict:       common.ErrNameConflict,
	ReasonNotEmpty:           common.ErrNotEmpty,
	ReasonQuotaExceeded:      common.ErrQuotaExceeded,
	ReasonExpired:            common.ErrExpired,
	ReasonInvalidOperation:   common.ErrInvalidOperation,
	ReasonInvalidName:        common.ErrInvalidName,
	ReasonInvalidArgument:    common.ErrInvalidArgument,
	ReasonStorageWriteFailed: common.ErrStorageWriteFailed,
	ReasonStorageReadFailed:  common.ErrStorageReadFailed,
}

// Error builds a status error with an ErrorInfo detail naming reason.
func Error(code codes.Code, reason, msg string) error {
	st := status.New(code, msg)
	if withInfo, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: ErrorDomain}); err == nil {
		st = withInfo
	}
	return st.Err()
}

// Reason returns the ErrorInfo reason attached to a status error, or "".
func Reason(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return info.GetReason()
		}
	}
	return ""
}

// FromStatus turns a status error back into the matching common sentinel so
// callers can use errors.Is. Errors without a known reason pass through.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	sentinel, ok := reasonErrors[Reason(err)]
	if !ok {
		return err
	}
	st, _ := status.FromError(err)
	if msg := st.Message(); msg != "" && msg != sentinel.Error() {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	return sentinel
}

// IsReason reports whether err carries the given ErrorInfo reason.
func IsReason(err error, reason string) bool {
	return reason != "" && Reason(err) == reason
}
