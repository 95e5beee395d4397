// Package live re-runs read queries when the collections they depend on
// change. The store publishes after every committed mutation; subscribers
// get a fresh result synchronously on the publishing goroutine.
package live

import (
	"context"
	"slices"
	"sync"
)

type Collection string

const (
	Accounts     Collection = "accounts"
	Categories   Collection = "categories"
	Transactions Collection = "transactions"
)

// All lists every collection.
var All = []Collection{Accounts, Categories, Transactions}

type observer struct {
	deps map[Collection]bool
	fn   func(changed []Collection)
}

// Bus is a registry of change observers. The zero value is not usable; use
// NewBus.
type Bus struct {
	mu        sync.Mutex
	next      int
	observers map[int]observer
}

func NewBus() *Bus {
	return &Bus{observers: make(map[int]observer)}
}

// Observe registers fn for changes to any of deps. An empty deps list
// observes every collection. The returned func unregisters fn and is safe to
// call more than once.
func (b *Bus) Observe(deps []Collection, fn func(changed []Collection)) func() {
	var set map[Collection]bool
	if len(deps) > 0 {
		set = make(map[Collection]bool, len(deps))
		for _, d := range deps {
			set[d] = true
		}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.observers[id] = observer{deps: set, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.observers, id)
			b.mu.Unlock()
		})
	}
}

// Publish notifies every observer whose dependencies intersect changed.
// Observers run outside the lock so they may subscribe or cancel.
func (b *Bus) Publish(changed ...Collection) {
	if b == nil || len(changed) == 0 {
		return
	}
	b.mu.Lock()
	ids := make([]int, 0, len(b.observers))
	for id := range b.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var fns []func([]Collection)
	for _, id := range ids {
		o := b.observers[id]
		if o.deps == nil || intersects(o.deps, changed) {
			fns = append(fns, o.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(changed)
	}
}

// Len returns the number of registered observers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.observers)
}

func intersects(deps map[Collection]bool, changed []Collection) bool {
	for _, c := range changed {
		if deps[c] {
			return true
		}
	}
	return false
}

// Subscribe runs query once and returns its value, then re-runs it after
// every publish touching deps and hands the fresh result to onChange. The
// subscription ends when cancel is called or ctx is done.
func Subscribe[T any](ctx context.Context, b *Bus, deps []Collection, query func(context.Context) (T, error), onChange func(T, error)) (T, func(), error) {
	initial, err := query(ctx)
	if err != nil {
		var zero T
		return zero, func() {}, err
	}

	unobserve := b.Observe(deps, func([]Collection) {
		if ctx.Err() != nil {
			return
		}
		onChange(query(ctx))
	})
	stop := context.AfterFunc(ctx, unobserve)
	cancel := func() {
		stop()
		unobserve()
	}
	return initial, cancel, nil
}
