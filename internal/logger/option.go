package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// coreWithLevel overrides the level of a wrapped zapcore.Core so a single
// component can log louder or quieter than the rest of the process.
type coreWithLevel struct {
	zapcore.Core

	// level is the minimum level accepted by this core.
	level zapcore.Level
}

// Enabled reports whether l passes the overriding level.
func (c *coreWithLevel) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check adds the core to ce when the entry passes the overriding level.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *coreWithLevel) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With keeps the overriding level on derived cores.
//
//nolint:ireturn,nolintlint // zapcore.Core is the contract.
func (c *coreWithLevel) With(fields []zapcore.Field) zapcore.Core {
	return &coreWithLevel{
		Core:  c.Core.With(fields),
		level: c.level,
	}
}

// WithLevel returns an option that pins the logger to lvl regardless of the
// level of the core it wraps.
//
//nolint:ireturn,nolintlint // zap.Option is the contract.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &coreWithLevel{Core: core, level: lvl}
	})
}
