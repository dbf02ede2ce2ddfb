// Package version exposes build metadata for the multivibrator binaries.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. Full renders them for the `version` subcommand and KV for the
// server's startup log line.
package version
