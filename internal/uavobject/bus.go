package uavobject

import (
	"sync"
	"time"

	"github.com/eytandecker/simsensors/pkg/types"
)

// entry is the type-erased view of an Object used by the Bus.
type entry interface {
	state() types.ObjectState
	stale(now time.Time) bool
}

// Bus is the registry of shared objects. Producers write through typed
// handles; consumers read snapshots or look handles up by name.
type Bus struct {
	staleThreshold time.Duration

	mu      sync.RWMutex
	objects map[string]entry
	order   []string
}

// NewBus creates a Bus whose objects use the given stale threshold.
// A zero threshold disables the age check.
func NewBus(staleThreshold time.Duration) *Bus {
	return &Bus{
		staleThreshold: staleThreshold,
		objects:        make(map[string]entry),
	}
}

// Option configures an object at registration.
type Option func(*options)

type options struct {
	staleThreshold *time.Duration
}

// WithStaleThreshold overrides the bus stale threshold for one object. Zero
// disables the age check, for objects that are written once.
func WithStaleThreshold(d time.Duration) Option {
	return func(o *options) { o.staleThreshold = &d }
}

// Register creates the named object, or returns the existing one when it was
// already registered with the same type. Options only apply on creation.
func Register[T any](b *Bus, name string, opts ...Option) (*Object[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.objects[name]; ok {
		obj, ok := e.(*Object[T])
		if !ok {
			return nil, &types.ObjectError{Object: name, Err: ErrTypeMismatch}
		}
		return obj, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	threshold := b.staleThreshold
	if o.staleThreshold != nil {
		threshold = *o.staleThreshold
	}

	obj := newObject[T](name, threshold)
	b.objects[name] = obj
	b.order = append(b.order, name)
	return obj, nil
}

// Lookup returns the typed handle of a registered object.
func Lookup[T any](b *Bus, name string) (*Object[T], error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.objects[name]
	if !ok {
		return nil, &types.ObjectError{Object: name, Err: ErrNotRegistered}
	}
	obj, ok := e.(*Object[T])
	if !ok {
		return nil, &types.ObjectError{Object: name, Err: ErrTypeMismatch}
	}
	return obj, nil
}

// Names returns registered object names in registration order.
func (b *Bus) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.order...)
}

// Snapshot copies every registered object in registration order.
func (b *Bus) Snapshot() types.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := types.Snapshot{
		Timestamp: time.Now(),
		Objects:   make([]types.ObjectState, 0, len(b.order)),
	}
	for _, name := range b.order {
		snap.Objects = append(snap.Objects, b.objects[name].state())
	}
	return snap
}

// State returns the named object regardless of its age.
func (b *Bus) State(name string) (types.ObjectState, error) {
	b.mu.RLock()
	e, ok := b.objects[name]
	b.mu.RUnlock()

	if !ok {
		return types.ObjectState{}, &types.ObjectError{Object: name, Err: ErrNotRegistered}
	}
	return e.state(), nil
}

// Fresh returns the named object, or ErrStale when it is stale.
func (b *Bus) Fresh(name string) (types.ObjectState, error) {
	b.mu.RLock()
	e, ok := b.objects[name]
	b.mu.RUnlock()

	if !ok {
		return types.ObjectState{}, &types.ObjectError{Object: name, Err: ErrNotRegistered}
	}
	if e.stale(time.Now()) {
		return types.ObjectState{}, &types.ObjectError{Object: name, Err: ErrStale}
	}
	return e.state(), nil
}
