// Package client implements the multivibrator-ctl operations.
//
// Each Command runs against a connected Remote; Run loads the settings,
// identifies the caller and dials the server before executing one.
package client
