package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/backend"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

var authCodes = map[authn.Code]codes.Code{
	authn.CodeEmailInUse:          codes.AlreadyExists,
	authn.CodeInvalidEmail:        codes.InvalidArgument,
	authn.CodeWeakPassword:        codes.InvalidArgument,
	authn.CodeUserNotFound:        codes.NotFound,
	authn.CodeWrongPassword:       codes.Unauthenticated,
	authn.CodeInvalidCredential:   codes.Unauthenticated,
	authn.CodeUnauthenticated:     codes.Unauthenticated,
	authn.CodeTooManyRequests:     codes.ResourceExhausted,
	authn.CodeRequiresRecentLogin: codes.FailedPrecondition,
	authn.CodeNetworkFailed:       codes.Unavailable,
}

// toStatus converts a backend error into a gRPC status. Classified auth errors
// keep their "auth/<code>: " prefix in the status message.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := grpcstatus.FromError(err); ok {
		return err
	}
	var ae *authn.Error
	if errors.As(err, &ae) {
		code, ok := authCodes[ae.Code]
		if !ok {
			code = codes.Unknown
		}
		return grpcstatus.Error(code, ae.Error())
	}
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return grpcstatus.Error(codes.NotFound, err.Error())
	case errors.Is(err, backend.ErrPermissionDenied):
		return grpcstatus.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, backend.ErrInvalidArgument):
		return grpcstatus.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return grpcstatus.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return grpcstatus.Error(codes.DeadlineExceeded, err.Error())
	}
	return grpcstatus.Error(codes.Internal, err.Error())
}

// fromStatus is the inverse of toStatus on the client side. A daemon that
// cannot be reached is reported as auth/network-request-failed.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := grpcstatus.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	if ae, ok := authn.Parse(msg); ok {
		return ae
	}
	switch st.Code() {
	case codes.Unavailable:
		return authn.Errorf(authn.CodeNetworkFailed, "backend unreachable: %s", msg)
	case codes.NotFound:
		return sentinel(backend.ErrNotFound, msg)
	case codes.PermissionDenied:
		return sentinel(backend.ErrPermissionDenied, msg)
	case codes.InvalidArgument:
		return sentinel(backend.ErrInvalidArgument, msg)
	case codes.Canceled:
		return sentinel(context.Canceled, msg)
	case codes.DeadlineExceeded:
		return sentinel(context.DeadlineExceeded, msg)
	}
	return err
}

func sentinel(target error, msg string) error {
	detail := strings.TrimPrefix(msg, target.Error())
	detail = strings.TrimPrefix(detail, ": ")
	if detail == "" {
		return target
	}
	return fmt.Errorf("%w: %s", target, detail)
}
