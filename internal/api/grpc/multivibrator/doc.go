// Package multivibrator implements the gRPC transport for the multivibrator
// service.
//
// It adapts domain types to protobuf well-known messages, maps engine errors
// to gRPC status codes and carries the calling actor in request metadata.
package multivibrator
