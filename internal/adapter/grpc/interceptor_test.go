package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestAuthInterceptor(t *testing.T) {
	validToken := "test-token-123"
	exempt := "/" + ServiceName + "/GetRefreshState"
	interceptor := AuthInterceptor(validToken, exempt)

	tests := []struct {
		name           string
		ctx            context.Context
		method         string
		handlerCalled  bool
		expectedCode   codes.Code
		expectedErrMsg string
	}{
		{
			name: "Valid Bearer Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+validToken),
			),
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
		{
			name: "Valid Raw Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", validToken),
			),
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
		{
			name: "Invalid Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer wrong-token"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name:           "Missing Token",
			ctx:            context.Background(),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing metadata",
		},
		{
			name: "Missing Authorization Header",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("other-header", "value"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing authorization header",
		},
		{
			name:          "Exempt Method",
			ctx:           context.Background(),
			method:        exempt,
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := func(ctx context.Context, req any) (any, error) {
				handlerCalled = true
				return "success", nil
			}

			method := tt.method
			if method == "" {
				method = "/" + ServiceName + "/AddRecord"
			}
			info := &grpc.UnaryServerInfo{FullMethod: method}

			resp, err := interceptor(tt.ctx, "test-request", info, handler)

			assert.Equal(t, tt.handlerCalled, handlerCalled, "handler called status mismatch")

			if tt.expectedCode == codes.OK {
				assert.NoError(t, err)
				assert.Equal(t, "success", resp)
			} else {
				assert.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok, "error should be a gRPC status")
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.Contains(t, st.Message(), tt.expectedErrMsg)
			}
		})
	}
}
