package grpcutil

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var grpcCodeMessages = map[codes.Code]string{
	codes.InvalidArgument:    "invalid request",
	codes.NotFound:           "resource not found",
	codes.PermissionDenied:   "permission denied",
	codes.Unauthenticated:    "authentication required",
	codes.Unavailable:        "service temporarily unavailable",
	codes.DeadlineExceeded:   "request timed out",
	codes.AlreadyExists:      "resource already exists",
	codes.FailedPrecondition: "precondition failed",
	codes.ResourceExhausted:  "resource exhausted",
	codes.Aborted:            "request aborted",
	codes.OutOfRange:         "out of range",
	codes.Internal:           "internal error",
}

// methodCodeMessages overrides grpcCodeMessages for specific RPCs, so a
// caller gets a message that names what was actually wrong (a bad date, a
// missing league filter) instead of the generic per-code fallback. Only
// codes that the two AFCON RPCs actually return (see internal/grpcserver)
// need an entry here; anything else falls back to grpcCodeMessages.
var methodCodeMessages = map[string]map[codes.Code]string{
	"/afcon.AFCON/GetFixturesByDate": {
		codes.InvalidArgument: "date must be YYYY-MM-DD and leagueId/season are required",
		codes.Unavailable:     "fixtures unavailable from both upstream and local store",
	},
	"/afcon.AFCON/SyncFixtures": {
		codes.Unavailable: "fixture provider unavailable",
	},
}

func SanitizeError(err error) error {
	return sanitizeErrorForMethod(err, "")
}

func sanitizeErrorForMethod(err error, fullMethod string) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return status.Error(codes.Internal, grpcCodeMessages[codes.Internal])
	}
	return status.Error(st.Code(), messageForCode(fullMethod, st.Code()))
}

func SanitizeUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		return resp, sanitizeErrorForMethod(err, info.FullMethod)
	}
}

func messageForCode(fullMethod string, code codes.Code) string {
	if overrides, ok := methodCodeMessages[fullMethod]; ok {
		if message, ok := overrides[code]; ok {
			return message
		}
	}
	if message, ok := grpcCodeMessages[code]; ok {
		return message
	}
	return grpcCodeMessages[codes.Internal]
}
