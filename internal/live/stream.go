// Package live provides cancelable realtime subscriptions. Each subscription is a
// channel that always holds the latest snapshot; a slow reader skips intermediate
// snapshots instead of blocking the producer.
package live

import (
	"context"
	"errors"
	"sync"
)

// Producer pushes snapshots through emit until ctx is done or it fails.
// emit returns false once the stream has been canceled.
type Producer[T any] func(ctx context.Context, emit func(T) bool) error

// Stream is a single subscription. The channel returned by C is closed when the
// producer exits, either after Cancel or on error.
type Stream[T any] struct {
	ch     chan T
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	mu  sync.Mutex
	err error
}

// Start runs produce in its own goroutine and returns the subscription.
func Start[T any](ctx context.Context, produce Producer[T]) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream[T]{
		ch:     make(chan T, 1),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go s.run(ctx, produce)
	return s
}

func (s *Stream[T]) run(ctx context.Context, produce Producer[T]) {
	defer close(s.done)
	defer close(s.ch)
	defer s.cancel()

	err := produce(ctx, func(v T) bool { return s.emit(ctx, v) })
	if err != nil && !errors.Is(err, context.Canceled) {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}
}

// emit replaces any unread snapshot with v.
func (s *Stream[T]) emit(ctx context.Context, v T) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		select {
		case s.ch <- v:
			return true
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// C returns the snapshot channel.
func (s *Stream[T]) C() <-chan T {
	return s.ch
}

// Done is closed after the producer has exited and C has been closed.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Cancel stops the subscription. Calling it more than once has no further effect.
func (s *Stream[T]) Cancel() {
	s.once.Do(s.cancel)
}

// Err returns the error that ended the stream, or nil after a plain Cancel.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Map returns a stream of fn applied to every snapshot of src.
// Canceling the returned stream cancels src.
func Map[T, U any](src *Stream[T], fn func(T) U) *Stream[U] {
	return Start(context.Background(), func(ctx context.Context, emit func(U) bool) error {
		defer src.Cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-src.C():
				if !ok {
					return src.Err()
				}
				if !emit(fn(v)) {
					return nil
				}
			}
		}
	})
}

// Failed returns an already finished stream carrying err.
func Failed[T any](err error) *Stream[T] {
	return Start(context.Background(), func(context.Context, func(T) bool) error {
		return err
	})
}
