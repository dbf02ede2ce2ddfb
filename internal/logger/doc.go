// Package logger wraps zap for the multivibrator binaries:
//   - a global sugared console logger with a runtime-adjustable level,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - a per-component level override (WithLevel),
//   - leveled helpers such as InfoKV and Errorf that log through the context.
package logger
