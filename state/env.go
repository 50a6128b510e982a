// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"repgen/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by generate subcommand
	Overwrite bool
	// Date overrides document date when not zero
	Date time.Time

	start         time.Time
	restoreStdLog func()
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// DocumentDate selects date printed on the document: explicit override
// first, then the date recorded in the report, then the day program started.
func (e *LocalEnv) DocumentDate(recorded time.Time) time.Time {
	switch {
	case !e.Date.IsZero():
		return e.Date
	case !recorded.IsZero():
		return recorded
	}
	y, m, d := e.start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
