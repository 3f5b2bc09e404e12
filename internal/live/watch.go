package live

import (
	"context"

	"github.com/matheus3301/parley/internal/bus"
)

// Watch re-runs query every time an event matching prefix is published and
// emits the full result. The first result is emitted immediately.
func Watch[T any](ctx context.Context, b *bus.Bus, prefix string, query func(context.Context) (T, error)) *Stream[T] {
	// Subscribe before the first query so no change between the two is lost.
	events, unsub := b.Subscribe(prefix, 1)
	return Start(ctx, func(ctx context.Context, emit func(T) bool) error {
		defer unsub()
		for {
			v, err := query(ctx)
			if err != nil {
				return err
			}
			if !emit(v) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case <-events:
			}
		}
	})
}
