// Package keylock provides mutual exclusion scoped to a key.
//
// Holders of different keys never wait for each other. Locks are created on
// first use and kept for the process lifetime.
package keylock

import (
	"context"
	"sync"
)

type Locker struct {
	// key -> chan struct{} with capacity 1; a sent value means the key is held
	locks sync.Map
}

func New() *Locker {
	return &Locker{}
}

func (l *Locker) slot(key int64) chan struct{} {
	if ch, ok := l.locks.Load(key); ok {
		return ch.(chan struct{})
	}

	ch, _ := l.locks.LoadOrStore(key, make(chan struct{}, 1))
	return ch.(chan struct{})
}

// Lock waits until the key is free or ctx is done
// The returned unlock must be called exactly once
func (l *Locker) Lock(ctx context.Context, key int64) (unlock func(), err error) {
	ch := l.slot(key)

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}
