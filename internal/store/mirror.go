package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-planner/internal/models"
)

// Mirror receives a copy of every task change after it has been applied
// locally. Mirror failures never affect the store.
type Mirror interface {
	UpsertTask(ctx context.Context, task models.Task) error
	DeleteTask(ctx context.Context, taskID string) error
}

const mirrorQueueSize = 256

type mirrorOp struct {
	task   models.Task
	taskID string
	delete bool
}

// mirrorQueue applies mirror writes in order on a single goroutine so a
// late upsert can never resurrect a deleted task. A nil queue is a no-op.
//
// When the queue is full an upsert is dropped, the next change of the same
// task carries it anyway. A delete is kept aside instead and applied once
// the queued ops ahead of it have drained.
type mirrorQueue struct {
	logger  zerolog.Logger
	mirror  Mirror
	timeout time.Duration

	ops  chan mirrorOp
	wg   sync.WaitGroup
	once sync.Once

	mu             sync.Mutex
	pendingDeletes map[string]struct{}
}

func newMirrorQueue(m Mirror, timeout time.Duration, size int, logger zerolog.Logger) *mirrorQueue {
	q := &mirrorQueue{
		logger:         logger,
		mirror:         m,
		timeout:        timeout,
		ops:            make(chan mirrorOp, size),
		pendingDeletes: map[string]struct{}{},
	}

	q.wg.Add(1)
	go q.run()
	return q
}

func (q *mirrorQueue) upsert(t models.Task) {
	if q == nil {
		return
	}
	q.enqueue(mirrorOp{task: t, taskID: t.ID})
}

func (q *mirrorQueue) delete(taskID string) {
	if q == nil {
		return
	}
	q.enqueue(mirrorOp{taskID: taskID, delete: true})
}

func (q *mirrorQueue) enqueue(op mirrorOp) {
	select {
	case q.ops <- op:
	default:
		if op.delete {
			q.mu.Lock()
			q.pendingDeletes[op.taskID] = struct{}{}
			q.mu.Unlock()

			q.logger.Warn().
				Str("task_id", op.taskID).
				Msg("mirror queue is full, deferring delete")
			return
		}
		q.logger.Warn().
			Str("task_id", op.taskID).
			Msg("mirror queue is full, dropping change")
	}
}

func (q *mirrorQueue) run() {
	defer q.wg.Done()

	for op := range q.ops {
		q.apply(op)
		if len(q.ops) == 0 {
			q.flushDeletes()
		}
	}
	q.flushDeletes()
}

func (q *mirrorQueue) apply(op mirrorOp) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	var err error
	if op.delete {
		err = q.mirror.DeleteTask(ctx, op.taskID)
	} else {
		err = q.mirror.UpsertTask(ctx, op.task)
	}
	if err != nil {
		q.logger.Warn().
			Err(err).
			Str("task_id", op.taskID).
			Bool("delete", op.delete).
			Msg("failed to mirror task")
	}
}

func (q *mirrorQueue) flushDeletes() {
	q.mu.Lock()
	ids := make([]string, 0, len(q.pendingDeletes))
	for id := range q.pendingDeletes {
		ids = append(ids, id)
	}
	clear(q.pendingDeletes)
	q.mu.Unlock()

	for _, id := range ids {
		q.apply(mirrorOp{taskID: id, delete: true})
	}
}

// close stops accepting changes and waits for the queued and deferred ones.
func (q *mirrorQueue) close() {
	q.once.Do(func() {
		close(q.ops)
	})
	q.wg.Wait()
}
