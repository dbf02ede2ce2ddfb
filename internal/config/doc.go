// Package config defines the settings used by the multivibrator binaries and
// provides helpers to load, validate and save them in YAML format.
//
// A Config holds the gRPC address, the timing engine configuration and the
// output sinks the level can be routed to.
package config
