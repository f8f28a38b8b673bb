package telemetry

import (
	"time"

	"go.uber.org/zap"
)

// Emitter receives merge lifecycle events. Implementations must be cheap and
// non-blocking: the engine fires these and moves on, and a misbehaving
// emitter must never fail a merge.
type Emitter interface {
	MergeStarted(userID string, localCount, remoteCount int)
	MergeCompleted(userID string, elapsed time.Duration, conflictsResolved, duplicatesRemoved, mergedCount int)
	MergeFailed(userID string, errMsg string, elapsed time.Duration)
}

// ZapEmitter writes events as structured log lines.
type ZapEmitter struct {
	log *zap.Logger
}

func NewZapEmitter(log *zap.Logger) *ZapEmitter {
	return &ZapEmitter{log: log.Named("telemetry")}
}

func (z *ZapEmitter) MergeStarted(userID string, localCount, remoteCount int) {
	z.log.Info("merge started",
		zap.String("user_id", userID),
		zap.Int("local_count", localCount),
		zap.Int("remote_count", remoteCount),
		zap.Int64("mono_ns", time.Now().UnixNano()),
	)
}

func (z *ZapEmitter) MergeCompleted(userID string, elapsed time.Duration, conflictsResolved, duplicatesRemoved, mergedCount int) {
	z.log.Info("merge completed",
		zap.String("user_id", userID),
		zap.Duration("elapsed", elapsed),
		zap.Int("conflicts_resolved", conflictsResolved),
		zap.Int("duplicates_removed", duplicatesRemoved),
		zap.Int("merged_count", mergedCount),
	)
}

func (z *ZapEmitter) MergeFailed(userID string, errMsg string, elapsed time.Duration) {
	z.log.Warn("merge failed",
		zap.String("user_id", userID),
		zap.String("error", errMsg),
		zap.Duration("elapsed", elapsed),
	)
}

// Nop discards all events.
type Nop struct{}

func (Nop) MergeStarted(string, int, int)                       {}
func (Nop) MergeCompleted(string, time.Duration, int, int, int) {}
func (Nop) MergeFailed(string, string, time.Duration)           {}
