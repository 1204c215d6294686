package grpc

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the bearer token from request metadata.
// Methods listed in exempt (full method names) skip the check.
func AuthInterceptor(validToken string, exempt ...string) grpc.UnaryServerInterceptor {
	open := make(map[string]bool, len(exempt))
	for _, m := range exempt {
		open[m] = true
	}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if open[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeaders[0], "Bearer "))
		if subtle.ConstantTimeCompare([]byte(token), []byte(validToken)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		return handler(ctx, req)
	}
}
