package keylock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLocker_Lock(t *testing.T) {
	t.Run("same key is exclusive", func(t *testing.T) {
		l := New()
		const workers = 50

		// Not atomic on purpose: lock must make it safe
		counter := 0

		var g errgroup.Group
		for i := 0; i < workers; i++ {
			g.Go(func() error {
				unlock, err := l.Lock(t.Context(), 1)
				if err != nil {
					return err
				}
				defer unlock()

				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				return nil
			})
		}

		require.NoError(t, g.Wait())
		require.Equal(t, workers, counter, "no lost increments under the same key")
	})

	t.Run("different keys are independent", func(t *testing.T) {
		l := New()

		unlockA, err := l.Lock(t.Context(), 1)
		require.NoError(t, err)
		defer unlockA()

		done := make(chan struct{})
		go func() {
			defer close(done)
			unlockB, err := l.Lock(t.Context(), 2)
			if err == nil {
				unlockB()
			}
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock for key 2 waited on key 1 holder")
		}
	})

	t.Run("context cancel stops waiting", func(t *testing.T) {
		l := New()

		unlock, err := l.Lock(t.Context(), 1)
		require.NoError(t, err)
		defer unlock()

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		_, err = l.Lock(ctx, 1)

		require.ErrorIs(t, err, context.DeadlineExceeded, "waiting must end with ctx")
	})

	t.Run("unlock twice is harmless", func(t *testing.T) {
		l := New()

		unlock, err := l.Lock(t.Context(), 1)
		require.NoError(t, err)
		unlock()
		unlock()

		ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
		defer cancel()
		unlock, err = l.Lock(ctx, 1)
		require.NoError(t, err, "key should be free after unlock")
		unlock()
	})
}
