package turns

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler answers one turn, writing its outcome to turn.Result before
// returning. A returned error means the turn could not run at all;
// user-visible answer failures are part of the result, not errors.
type Handler func(ctx context.Context, turn *Turn) error

// Queue distributes turns to a worker pool over a buffered channel. It is
// safe for concurrent use and suitable for single-instance deployments.
type Queue struct {
	turnChan  chan *Turn
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     *Store
	workers   int
	closed    bool
}

// NewQueue creates a queue backed by the given store. bufferSize bounds
// how many turns may wait before Publish blocks; workers is the number of
// concurrent turn runners started by Start.
func NewQueue(bufferSize, workers int, store *Store) *Queue {
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		turnChan:  make(chan *Turn, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		workers:   workers,
	}
}

// Publish records the turn as pending and enqueues it. The turn's ID is
// generated when empty.
func (q *Queue) Publish(ctx context.Context, turn *Turn) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errors.New("Publish: queue is closed")
	}

	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	turn.Status = StatusPending
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	if err := q.store.Save(turn); err != nil {
		return err
	}

	select {
	case q.turnChan <- turn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return errors.New("Publish: queue is closed")
	}
}

// Start launches the worker pool. Workers run until the context is
// canceled or Stop is called.
func (q *Queue) Start(ctx context.Context, handler Handler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return errors.New("Start: queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case turn := <-q.turnChan:
			if turn == nil {
				return
			}
			q.process(ctx, turn, handler)
		}
	}
}

// process runs a single turn exactly once and records its outcome.
func (q *Queue) process(ctx context.Context, turn *Turn, handler Handler) {
	turn.Status = StatusRunning
	now := time.Now()
	turn.StartedAt = &now
	_ = q.store.Save(turn)

	err := handler(ctx, turn)

	completedAt := time.Now()
	turn.CompletedAt = &completedAt
	if err != nil {
		turn.Status = StatusFailed
		turn.Error = err.Error()
	} else {
		turn.Status = StatusCompleted
		turn.Error = ""
	}
	_ = q.store.Save(turn)
}

// Stop closes the queue and waits for in-flight turns to finish, up to the
// context deadline.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
