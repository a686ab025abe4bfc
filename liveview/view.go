// Package liveview keeps a rendered data set in step with the record store.
//
// A View subscribes to the change feed, loads its data once on Mount, and
// re-loads whenever a matching change arrives. Reloads triggered while one
// is already pending collapse into one, and run one at a time in arrival
// order on a goroutine owned by the view. After Unmount no result, late or
// otherwise, reaches the renderer.
package liveview

import (
	"context"
	"errors"
	"sync"

	"go-drink-stand/realtime"
)

var (
	ErrMounted    = errors.New("view already mounted")
	ErrNotMounted = errors.New("view not mounted")
	errDiscarded  = errors.New("view unmounted during load")
)

type Loader[T any] func(ctx context.Context) (T, error)

// Observer is told about view lifecycle events. *monitoring.Metrics
// satisfies it.
type Observer interface {
	ViewMounted(name string)
	ViewUnmounted(name string)
	ViewReloaded(name string, err error)
}

type View[T any] struct {
	name     string
	feed     realtime.Feed
	scopes   []realtime.Scope
	load     Loader[T]
	render   func(T)
	onError  func(error)
	observer Observer

	loadMu sync.Mutex

	mu    sync.Mutex
	ctx   context.Context
	stop  context.CancelFunc
	dirty chan struct{}
	subs  []*realtime.Subscription
}

// New returns an unmounted view. render receives every successful load. It
// and the error callback run with the view locked: they must hand data off
// quickly and must not call back into the view.
func New[T any](name string, feed realtime.Feed, load Loader[T], render func(T), scopes ...realtime.Scope) *View[T] {
	return &View[T]{
		name:    name,
		feed:    feed,
		scopes:  scopes,
		load:    load,
		render:  render,
		onError: func(error) {},
	}
}

// OnError sets the callback for failed loads. The view stays mounted and
// keeps its last rendered data.
func (v *View[T]) OnError(fn func(error)) *View[T] {
	v.onError = fn
	return v
}

func (v *View[T]) WithObserver(o Observer) *View[T] {
	v.observer = o
	return v
}

func (v *View[T]) Name() string {
	return v.name
}

func (v *View[T]) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctx != nil
}

// Mount subscribes to the view's scopes and queues the initial load. The
// subscription is in place before the load starts, so no change between
// the two is missed.
func (v *View[T]) Mount(parent context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx != nil {
		return ErrMounted
	}

	ctx, stop := context.WithCancel(parent)
	dirty := make(chan struct{}, 1)
	v.ctx, v.stop, v.dirty = ctx, stop, dirty

	for _, scope := range v.scopes {
		v.subs = append(v.subs, v.feed.Subscribe(scope, func(realtime.Change) {
			select {
			case dirty <- struct{}{}:
			default:
			}
		}))
	}
	dirty <- struct{}{}

	if v.observer != nil {
		v.observer.ViewMounted(v.name)
	}
	go v.run(ctx, dirty)
	return nil
}

// Unmount releases the subscriptions and stops the view. A load still in
// flight is allowed to finish but its result is dropped.
func (v *View[T]) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx == nil {
		return
	}
	for _, sub := range v.subs {
		sub.Unsubscribe()
	}
	v.stop()
	v.ctx, v.stop, v.dirty, v.subs = nil, nil, nil, nil

	if v.observer != nil {
		v.observer.ViewUnmounted(v.name)
	}
}

// Invalidate queues a reload without waiting for it.
func (v *View[T]) Invalidate() {
	v.mu.Lock()
	dirty := v.dirty
	v.mu.Unlock()
	if dirty == nil {
		return
	}
	select {
	case dirty <- struct{}{}:
	default:
	}
}

// Refresh loads and renders synchronously.
func (v *View[T]) Refresh() error {
	v.mu.Lock()
	ctx := v.ctx
	v.mu.Unlock()
	if ctx == nil {
		return ErrNotMounted
	}
	return v.reload(ctx)
}

func (v *View[T]) run(ctx context.Context, dirty <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-dirty:
			_ = v.reload(ctx)
		}
	}
}

func (v *View[T]) reload(ctx context.Context) error {
	v.loadMu.Lock()
	defer v.loadMu.Unlock()

	data, err := v.load(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx != ctx || ctx.Err() != nil {
		return errDiscarded
	}
	if v.observer != nil {
		v.observer.ViewReloaded(v.name, err)
	}
	if err != nil {
		v.onError(err)
		return err
	}
	v.render(data)
	return nil
}
