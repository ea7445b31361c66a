package turns

import (
	"context"
	"errors"
	"testing"
	"time"

	"finassist/internal/engine"
)

// waitForStatus polls the store until the turn reaches the wanted status.
func waitForStatus(t *testing.T, store *Store, id string, want Status) *Turn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		turn, err := store.Get(id)
		if err == nil && turn.Status == want {
			return turn
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("turn %s never reached status %s", id, want)
	return nil
}

func TestQueue(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 2, store)
	defer q.Stop(context.Background())

	handler := func(_ context.Context, turn *Turn) error {
		turn.Result = &engine.Result{Answer: "You spent $40.00 on " + turn.Question}
		return nil
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	turn := &Turn{SessionID: "s1", Question: "food", UserID: "acc_1"}
	if err := q.Publish(context.Background(), turn); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if turn.ID == "" {
		t.Fatal("Publish did not assign a turn ID")
	}

	done := waitForStatus(t, store, turn.ID, StatusCompleted)
	if done.Result == nil || done.Result.Answer != "You spent $40.00 on food" {
		t.Errorf("result = %+v", done.Result)
	}
	if done.Error != "" {
		t.Errorf("error = %q, want empty", done.Error)
	}
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Error("timestamps missing on completed turn")
	}
}

func TestQueue_HandlerFailureIsRecordedNotRetried(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 1, store)
	defer q.Stop(context.Background())

	calls := 0
	handler := func(_ context.Context, _ *Turn) error {
		calls++
		return errors.New("session vanished")
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	turn := &Turn{SessionID: "s1", Question: "q", UserID: "acc_1"}
	if err := q.Publish(context.Background(), turn); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	failed := waitForStatus(t, store, turn.ID, StatusFailed)
	if failed.Error != "session vanished" {
		t.Errorf("error = %q", failed.Error)
	}

	time.Sleep(50 * time.Millisecond)
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1 (no retry)", calls)
	}
}

func TestQueue_PublishAfterStop(t *testing.T) {
	store := NewStore()
	q := NewQueue(1, 1, store)

	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := q.Publish(context.Background(), &Turn{SessionID: "s1"}); err == nil {
		t.Error("Publish after Stop succeeded, want error")
	}
}

func TestQueue_StopWaitsForInflightTurn(t *testing.T) {
	store := NewStore()
	q := NewQueue(1, 1, store)

	started := make(chan struct{})
	release := make(chan struct{})
	handler := func(_ context.Context, turn *Turn) error {
		close(started)
		<-release
		turn.Result = &engine.Result{Answer: "done"}
		return nil
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	turn := &Turn{SessionID: "s1", Question: "q"}
	if err := q.Publish(context.Background(), turn); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	<-started

	stopErr := make(chan error, 1)
	go func() { stopErr <- q.Stop(context.Background()) }()

	select {
	case err := <-stopErr:
		t.Fatalf("Stop returned %v before the in-flight turn finished", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-stopErr; err != nil {
		t.Fatalf("Stop: %v", err)
	}
	waitForStatus(t, store, turn.ID, StatusCompleted)
}

func TestStore(t *testing.T) {
	store := NewStore()

	if err := store.Save(&Turn{}); err == nil {
		t.Error("Save without ID succeeded, want error")
	}

	turn := &Turn{ID: "t1", SessionID: "s1", Status: StatusPending}
	if err := store.Save(turn); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get("t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Status = StatusFailed

	again, err := store.Get("t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Status != StatusPending {
		t.Error("store handed out a shared pointer; mutations leaked back")
	}

	if _, err := store.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unknown = %v, want ErrNotFound", err)
	}
}
