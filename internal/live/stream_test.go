package live

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheus3301/parley/internal/bus"
)

func recv[T any](t *testing.T, s *Stream[T]) T {
	t.Helper()
	select {
	case v, ok := <-s.C():
		if !ok {
			t.Fatalf("stream closed: %v", s.Err())
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for snapshot")
	}
	var zero T
	return zero
}

func waitDone[T any](t *testing.T, s *Stream[T]) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not finish")
	}
}

func TestStreamDeliversLatestSnapshot(t *testing.T) {
	produced := make(chan struct{})
	s := Start(context.Background(), func(ctx context.Context, emit func(int) bool) error {
		for i := 1; i <= 5; i++ {
			emit(i)
		}
		close(produced)
		<-ctx.Done()
		return ctx.Err()
	})
	defer s.Cancel()

	<-produced
	if got := recv(t, s); got != 5 {
		t.Errorf("snapshot = %d, want 5", got)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	var stops atomic.Int32
	s := Start(context.Background(), func(ctx context.Context, emit func(string) bool) error {
		emit("x")
		<-ctx.Done()
		stops.Add(1)
		return ctx.Err()
	})

	s.Cancel()
	s.Cancel()
	waitDone(t, s)
	s.Cancel()

	if n := stops.Load(); n != 1 {
		t.Errorf("producer stopped %d times, want 1", n)
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err() after Cancel = %v, want nil", err)
	}
	for range s.C() {
	}
}

func TestStreamErr(t *testing.T) {
	boom := errors.New("boom")
	s := Failed[int](boom)
	waitDone(t, s)
	if !errors.Is(s.Err(), boom) {
		t.Errorf("Err() = %v, want boom", s.Err())
	}
	if _, ok := <-s.C(); ok {
		t.Error("channel should be closed")
	}
}

func TestEmitReturnsFalseAfterCancel(t *testing.T) {
	result := make(chan bool, 1)
	s := Start(context.Background(), func(ctx context.Context, emit func(int) bool) error {
		<-ctx.Done()
		result <- emit(1)
		return nil
	})
	s.Cancel()
	if ok := <-result; ok {
		t.Error("emit after cancel = true, want false")
	}
}

func TestMapCancelsSource(t *testing.T) {
	src := Start(context.Background(), func(ctx context.Context, emit func(int) bool) error {
		emit(21)
		<-ctx.Done()
		return nil
	})
	doubled := Map(src, func(v int) int { return v * 2 })

	if got := recv(t, doubled); got != 42 {
		t.Errorf("mapped = %d, want 42", got)
	}
	doubled.Cancel()
	waitDone(t, doubled)
	waitDone(t, src)
}

func TestWatchRequeriesOnEvent(t *testing.T) {
	b := bus.New()
	var n atomic.Int32
	s := Watch(context.Background(), b, bus.DocKind(bus.CollectionChats, "c1"), func(context.Context) (int32, error) {
		return n.Add(1), nil
	})
	defer s.Cancel()

	if got := recv(t, s); got != 1 {
		t.Fatalf("first snapshot = %d, want 1", got)
	}
	b.Publish(bus.Event{Kind: bus.DocKind(bus.CollectionChats, "c1")})
	if got := recv(t, s); got != 2 {
		t.Errorf("second snapshot = %d, want 2", got)
	}
}

func TestWatchUnsubscribesOnCancel(t *testing.T) {
	b := bus.New()
	s := Watch(context.Background(), b, "doc.", func(context.Context) (int, error) { return 0, nil })
	recv(t, s)
	s.Cancel()
	waitDone(t, s)
	if n := b.Subscribers(); n != 0 {
		t.Errorf("Subscribers() = %d after cancel, want 0", n)
	}
}
