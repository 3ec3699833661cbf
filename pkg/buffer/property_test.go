package buffer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	cerrors "github.com/c360/boundedring/errors"
)

// TestBuffer_MatchesQueueModel drives a buffer from a single goroutine with
// non-blocking operations and compares it to a slice-backed queue.
func TestBuffer_MatchesQueueModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		strategy := rapid.SampledFrom(Strategies()).Draw(t, "strategy")
		capacity := rapid.IntRange(1, 8).Draw(t, "capacity")

		buf, err := New[int](capacity, WithStrategy(strategy))
		require.NoError(t, err)

		ctx := context.Background()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		var model []int
		next := 0

		t.Repeat(map[string]func(*rapid.T){
			"put": func(t *rapid.T) {
				if len(model) == capacity {
					t.Skip("full")
				}
				require.NoError(t, buf.Put(ctx, next))
				model = append(model, next)
				next++
			},
			"take": func(t *rapid.T) {
				if len(model) == 0 {
					t.Skip("empty")
				}
				got, err := buf.Take(ctx)
				require.NoError(t, err)
				require.Equal(t, model[0], got)
				model = model[1:]
			},
			"cancelled": func(t *rapid.T) {
				var err error
				if rapid.Bool().Draw(t, "put") {
					err = buf.Put(cancelled, -1)
				} else {
					_, err = buf.Take(cancelled)
				}
				require.ErrorIs(t, err, cerrors.ErrCancelled)
			},
			"": func(t *rapid.T) {
				require.Equal(t, len(model), buf.Size())
				require.LessOrEqual(t, buf.Size(), buf.Capacity())
			},
		})
	})
}

// TestBuffer_ConcurrentDeliveryProperty checks no loss, no duplication and
// per-producer order for arbitrary worker counts and capacities.
func TestBuffer_ConcurrentDeliveryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		strategy := rapid.SampledFrom(Strategies()).Draw(t, "strategy")
		capacity := rapid.IntRange(1, 6).Draw(t, "capacity")
		producers := rapid.IntRange(1, 4).Draw(t, "producers")
		consumers := rapid.IntRange(1, 4).Draw(t, "consumers")
		items := rapid.IntRange(0, 40).Draw(t, "items")

		buf, err := New[int](capacity, WithStrategy(strategy))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		res, err := runWorkload(ctx, buf, producers, consumers, items)
		require.NoError(t, err, "workload stalled")
		checkDelivery(t, res, producers, items)
		require.Equal(t, 0, buf.Size())
		require.LessOrEqual(t, res.maxSeen, int64(capacity))
	})
}
