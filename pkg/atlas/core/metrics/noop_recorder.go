package metrics

import (
	"context"
	"time"
)

// NoopRecorder is a MetricRecorder that discards everything.
// It is the default wired into mappers and transactions when no backend is configured.
type NoopRecorder struct{}

// NewNoopRecorder creates a new NoopRecorder.
func NewNoopRecorder() MetricRecorder {
	return &NoopRecorder{}
}

// RecordCommit implements MetricRecorder.
func (r *NoopRecorder) RecordCommit(ctx context.Context, items int) {}

// RecordRollback implements MetricRecorder.
func (r *NoopRecorder) RecordRollback(ctx context.Context, completed int) {}

// RecordStatement implements MetricRecorder.
func (r *NoopRecorder) RecordStatement(ctx context.Context, table string, kind string, duration time.Duration, err error) {
}

// RecordNoop implements MetricRecorder.
func (r *NoopRecorder) RecordNoop(ctx context.Context, table string, kind string) {}

var _ MetricRecorder = (*NoopRecorder)(nil)
