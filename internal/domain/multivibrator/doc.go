// Package multivibrator contains the domain vocabulary of the multivibrator:
// the operating Mode, the scheduler Phase, the Status snapshot reported to
// clients and the Actor recorded for every command.
package multivibrator
