package journal

import (
	"fmt"
	"time"

	"kamatera-manager/internal/logger"
)

// nowFunc can be overridden by tests for deterministic timestamps.
var nowFunc = time.Now

// Recorder writes a run's progress both to the structured log and to the
// journal. Journal write failures are logged and otherwise ignored so a
// broken journal never stops a power batch half way.
type Recorder struct {
	store Storage
	runID string
	kind  string
}

func NewRecorder(store Storage, kind string) *Recorder {
	return &Recorder{store: store, runID: NewRunID(), kind: kind}
}

func (r *Recorder) RunID() string { return r.runID }

func (r *Recorder) Infof(format string, args ...any) {
	r.record("info", fmt.Sprintf(format, args...))
}

func (r *Recorder) Warnf(format string, args ...any) {
	r.record("warn", fmt.Sprintf(format, args...))
}

func (r *Recorder) Errorf(format string, args ...any) {
	r.record("error", fmt.Sprintf(format, args...))
}

func (r *Recorder) record(level, msg string) {
	switch level {
	case "error":
		logger.Error(msg, "run", r.runID)
	case "warn":
		logger.Warn(msg, "run", r.runID)
	default:
		logger.Info(msg, "run", r.runID)
	}
	if r.store == nil {
		return
	}
	err := r.store.Append(Entry{
		RunID:     r.runID,
		Kind:      r.kind,
		Level:     level,
		Message:   msg,
		Timestamp: nowFunc(),
	})
	if err != nil {
		logger.Warn("failed to write journal entry", "error", err)
	}
}
