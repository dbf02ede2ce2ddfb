// Package v1 describes the multivibrator.v1.MultivibratorService gRPC API.
//
// The service carries protobuf well-known types only (Empty, BoolValue,
// StringValue and Struct), so the description is maintained by hand in the
// layout protoc-gen-go-grpc produces and no generated message code is needed.
package v1
