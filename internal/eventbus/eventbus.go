package eventbus

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
)

// Handler consumes events of type T.
type Handler[T any] func(context.Context, T)

type subscription struct {
	id int64
	fn func(context.Context, any)
}

// Bus dispatches events to subscribed handlers, keyed by the event's
// dynamic type. Dispatch is synchronous: Publish returns after every
// handler has run.
type Bus struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[reflect.Type][]subscription
}

// New returns an empty bus.
func New() *Bus { return &Bus{subs: make(map[reflect.Type][]subscription)} }

func (b *Bus) add(t reflect.Type, fn func(context.Context, any)) (remove func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, fn: fn})
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[t]
		for i, sub := range subs {
			if sub.id == id {
				subs = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(subs) == 0 {
			delete(b.subs, t)
		} else {
			b.subs[t] = subs
		}
	}
}

func (b *Bus) emit(ctx context.Context, e any) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[reflect.TypeOf(e)]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		sub.fn(ctx, e)
	}
}

var active atomic.Pointer[Bus]

// Use installs b as the process-wide bus. Passing nil turns publishing off.
func Use(b *Bus) { active.Store(b) }

// Subscribe registers h for events of type T on the active bus and returns
// a function that removes the registration. Subscribing while no bus is
// installed is a no-op.
func Subscribe[T any](h Handler[T]) (remove func()) {
	b := active.Load()
	if b == nil {
		return func() {}
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	return b.add(t, func(ctx context.Context, e any) { h(ctx, e.(T)) })
}

// Publish delivers e to the active bus's handlers for its type.
func Publish[T any](ctx context.Context, e T) {
	if b := active.Load(); b != nil {
		b.emit(ctx, e)
	}
}
