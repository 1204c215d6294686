package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/wealthsim-backend/internal/domain"
)

// decode unmarshals a request struct into target through its JSON form
func decode(in *structpb.Struct, target any) error {
	if in == nil {
		return nil
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

// encode converts a JSON-tagged value into a response struct
func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// decodeRecord builds a domain record from its category and JSON payload
func decodeRecord(category string, payload json.RawMessage) (domain.Record, error) {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: record is required", domain.ErrInvalidRecord)
	}
	return domain.DecodeRecord(c, payload)
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRecord), errors.Is(err, domain.ErrInvalidField):
		return status.Errorf(codes.InvalidArgument, "%s", err)
	case errors.Is(err, domain.ErrLookupMiss), errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", err)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", err)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", err)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", err)
}
