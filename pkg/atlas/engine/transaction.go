// Package engine provides the unit-of-work transaction engine: an ordered queue of
// planned insert/update/delete operations against Records, executed inside a single
// physical database transaction with all-or-nothing semantics. A failure at item k
// undoes items 1..k-1 via the physical rollback and abandons items k+1..n.
package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metrics"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/record"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/tx"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/logger"
)

const moduleName = "engine"

// State is the lifecycle state of a Transaction.
type State int

const (
	// StatePending accepts queued operations.
	StatePending State = iota
	// StateRunning marks an Exec in progress.
	StateRunning
	// StateCommitted is terminal: every queued operation's effects are durable.
	StateCommitted
	// StateRolledBack is terminal: no queued operation's effects are durable.
	StateRolledBack
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateRunning:
		return "RUNNING"
	case StateCommitted:
		return "COMMITTED"
	case StateRolledBack:
		return "ROLLED_BACK"
	}
	return "UNKNOWN"
}

// Operation identifies the kind of write a work item performs.
type Operation int

const (
	// OpInsert inserts the item's record.
	OpInsert Operation = iota
	// OpUpdate updates the item's record.
	OpUpdate
	// OpDelete deletes the item's record.
	OpDelete
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpInsert:
		return "INSERT"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// WorkItem is one planned write operation in a Transaction's queue.
type WorkItem struct {
	operation Operation
	record    *record.Record
	applied   bool
	done      bool
	err       error
}

// Operation returns the kind of write this item performs.
func (w *WorkItem) Operation() Operation {
	return w.operation
}

// Record returns the target record.
func (w *WorkItem) Record() *record.Record {
	return w.record
}

// Result reports the item's outcome. done is false while the item is still pending
// (never attempted, or abandoned after an earlier failure). applied is false for the
// no-op update and the idempotent delete of an absent row.
func (w *WorkItem) Result() (applied bool, done bool) {
	return w.applied, w.done
}

// Err returns the error this item failed with, or nil.
func (w *WorkItem) Err() error {
	return w.err
}

// Transaction is an ordered queue of planned write operations executed exactly once
// as an atomic unit. It references Records only for the duration of execution and is
// spent after Exec; create a fresh Transaction for the next unit of work.
type Transaction struct {
	id       uuid.UUID
	txm      tx.TransactionManager
	recorder metrics.MetricRecorder

	state     State
	items     []*WorkItem
	completed []*WorkItem
	failed    *WorkItem
	execErr   error
}

// NewTransaction creates a fresh, empty transaction bound to the given transaction
// manager. A nil recorder defaults to the no-op recorder.
func NewTransaction(txm tx.TransactionManager, recorder metrics.MetricRecorder) *Transaction {
	if recorder == nil {
		recorder = metrics.NewNoopRecorder()
	}
	return &Transaction{
		id:       uuid.New(),
		txm:      txm,
		recorder: recorder,
		state:    StatePending,
	}
}

// ID returns the transaction's unique identifier.
func (t *Transaction) ID() uuid.UUID {
	return t.id
}

// State returns the transaction's lifecycle state.
func (t *Transaction) State() State {
	return t.state
}

// Insert enqueues an insert of the given record.
func (t *Transaction) Insert(rec *record.Record) error {
	return t.enqueue(OpInsert, rec)
}

// Update enqueues an update of the given record.
func (t *Transaction) Update(rec *record.Record) error {
	return t.enqueue(OpUpdate, rec)
}

// Delete enqueues a delete of the given record.
func (t *Transaction) Delete(rec *record.Record) error {
	return t.enqueue(OpDelete, rec)
}

func (t *Transaction) enqueue(op Operation, rec *record.Record) error {
	if t.state != StatePending {
		return exception.NewMapperErrorf(moduleName, "transaction %s is %s: %w", t.id, t.state, exception.ErrTransactionSpent)
	}
	if rec == nil || rec.Persister() == nil {
		return exception.NewMapperError(moduleName, "cannot enqueue a record without a mapper", nil)
	}
	t.items = append(t.items, &WorkItem{operation: op, record: rec})
	return nil
}

// Exec executes the queued operations in enqueue order within a single physical
// database transaction. It returns true when every item succeeded and the commit is
// durable. On the first item failure it stops, rolls the physical transaction back,
// and returns false; the failure is captured, not re-thrown: inspect Failed() and
// Err() for detail, and Completed() for the items that got through beforehand.
// Exec may only be called once.
func (t *Transaction) Exec(ctx context.Context) bool {
	if t.state != StatePending {
		// Keep the original triggering error readable; a re-run only reports
		// the spent state if nothing failed before.
		if t.execErr == nil {
			t.execErr = exception.NewMapperErrorf(moduleName, "transaction %s already ran (%s): %w", t.id, t.state, exception.ErrTransactionSpent)
		}
		return false
	}
	t.state = StateRunning

	physTx, err := t.txm.Begin(ctx)
	if err != nil {
		t.execErr = err
		t.state = StateRolledBack
		t.recorder.RecordRollback(ctx, 0)
		return false
	}

	if !t.run(ctx, physTx) {
		if rbErr := t.txm.Rollback(physTx); rbErr != nil {
			t.execErr = multierror.Append(t.execErr, rbErr)
		}
		t.state = StateRolledBack
		t.recorder.RecordRollback(ctx, len(t.completed))
		return false
	}

	if err := t.txm.Commit(physTx); err != nil {
		t.execErr = err
		if rbErr := t.txm.Rollback(physTx); rbErr != nil {
			logger.Debugf("rollback after failed commit of transaction %s: %v", t.id, rbErr)
		}
		t.state = StateRolledBack
		t.recorder.RecordRollback(ctx, len(t.completed))
		return false
	}

	t.state = StateCommitted
	t.recorder.RecordCommit(ctx, len(t.items))
	return true
}

// ExecIn executes the queued operations inside an already-open physical transaction,
// guarded by a savepoint. On failure it rolls back to the savepoint, which undoes
// this unit's items while leaving the enclosing transaction's earlier work intact.
// This is the nested-rollback path; the enclosing transaction still decides its own
// commit or rollback. Like Exec, ExecIn may only be called once.
func (t *Transaction) ExecIn(ctx context.Context, parent tx.Tx) bool {
	if t.state != StatePending {
		if t.execErr == nil {
			t.execErr = exception.NewMapperErrorf(moduleName, "transaction %s already ran (%s): %w", t.id, t.state, exception.ErrTransactionSpent)
		}
		return false
	}
	t.state = StateRunning

	savepoint := "sp_" + strings.ReplaceAll(t.id.String(), "-", "")
	if err := parent.Savepoint(savepoint); err != nil {
		t.execErr = err
		t.state = StateRolledBack
		t.recorder.RecordRollback(ctx, 0)
		return false
	}

	if !t.run(ctx, parent) {
		if rbErr := parent.RollbackToSavepoint(savepoint); rbErr != nil {
			t.execErr = multierror.Append(t.execErr, rbErr)
		}
		t.state = StateRolledBack
		t.recorder.RecordRollback(ctx, len(t.completed))
		return false
	}

	t.state = StateCommitted
	t.recorder.RecordCommit(ctx, len(t.items))
	return true
}

// run dispatches the queued items in order through each record's Persister.
// It returns false at the first failure, leaving the failure point in t.failed and
// the triggering error in t.execErr; remaining items are never attempted.
func (t *Transaction) run(ctx context.Context, exec tx.Executor) bool {
	for _, item := range t.items {
		var applied bool
		var err error
		persister := item.record.Persister()
		switch item.operation {
		case OpInsert:
			applied, err = persister.InsertRow(ctx, exec, item.record)
		case OpUpdate:
			applied, err = persister.UpdateRow(ctx, exec, item.record)
		case OpDelete:
			applied, err = persister.DeleteRow(ctx, exec, item.record)
		}
		if err != nil {
			item.err = err
			t.failed = item
			t.execErr = err
			logger.Debugf("transaction %s: %s failed at item %d: %v", t.id, item.operation, len(t.completed), err)
			return false
		}
		item.applied = applied
		item.done = true
		t.completed = append(t.completed, item)
	}
	return true
}

// Completed returns the work items that completed before any failure, in execution
// order. After a successful Exec it contains every queued item.
func (t *Transaction) Completed() []*WorkItem {
	return t.completed
}

// Failed returns the work item execution stopped at, or nil if no item failed.
func (t *Transaction) Failed() *WorkItem {
	return t.failed
}

// Err returns the error that made Exec return false: the triggering item error
// (joined with the rollback error when rollback itself also failed), a begin or
// commit failure, or the spent-transaction error. Nil after a successful Exec.
func (t *Transaction) Err() error {
	return t.execErr
}
