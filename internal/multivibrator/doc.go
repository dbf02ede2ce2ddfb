// Package multivibrator implements a digital multivibrator: a timing element
// that drives one boolean output as a monostable (one pulse per trigger),
// astable (free-running oscillation) or bistable (one flip per trigger).
//
// A Multivibrator is created with New, which only resolves its timing, and
// runs once Start launches its scheduler goroutine. Control methods (Trigger,
// SetMode, SetState, SetOutput, Stop, Kill) are safe for concurrent use and
// never block on the scheduler. Every output transition is published to the
// bound Sink.
//
// A trigger received while a monostable pulse or a bistable flip is still in
// progress is ignored; callers that need another transition wait until Armed
// reports false. Kill is final: a killed Multivibrator cannot be restarted.
package multivibrator
