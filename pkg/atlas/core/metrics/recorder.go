// Package metrics provides the abstract interfaces for recording metrics about the
// mapper's write path. Implementations live under infrastructure; the default is a
// no-op recorder so the core never depends on a metrics backend.
package metrics

import (
	"context"
	"time"
)

// MetricRecorder is an abstract interface for recording mapper-level metrics.
// It covers the transaction lifecycle and individual statement execution, which
// facilitates integration with different metric backends (e.g., Prometheus).
type MetricRecorder interface {
	// RecordCommit records a successfully committed unit of work.
	//
	// ctx: The context for the operation.
	// items: The number of work items the transaction carried.
	RecordCommit(ctx context.Context, items int)

	// RecordRollback records a rolled-back unit of work.
	//
	// ctx: The context for the operation.
	// completed: The number of work items that had completed before the failure.
	RecordRollback(ctx context.Context, completed int)

	// RecordStatement records the execution of one write statement.
	//
	// ctx: The context for the operation.
	// table: The target table name.
	// kind: The statement kind ("INSERT", "UPDATE", "DELETE").
	// duration: How long the statement took.
	// err: The error the statement ended with, or nil.
	RecordStatement(ctx context.Context, table string, kind string, duration time.Duration, err error)

	// RecordNoop records a short-circuited write: an update with no dirty columns or
	// a delete of an already-absent row.
	//
	// ctx: The context for the operation.
	// table: The target table name.
	// kind: The statement kind that was skipped.
	RecordNoop(ctx context.Context, table string, kind string)
}
