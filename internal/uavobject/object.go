package uavobject

import (
	"sync"
	"time"

	"github.com/eytandecker/simsensors/pkg/types"
)

// Object holds a concurrent-safe copy of one typed object.
type Object[T any] struct {
	name           string
	staleThreshold time.Duration

	mu          sync.RWMutex
	data        T
	lastUpdated time.Time
	updates     uint64
}

func newObject[T any](name string, staleThreshold time.Duration) *Object[T] {
	return &Object[T]{name: name, staleThreshold: staleThreshold}
}

// Name returns the name the object was registered under.
func (o *Object[T]) Name() string {
	return o.name
}

// Set replaces every field of the object and records the current time.
func (o *Object[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.data = v
	o.touchLocked()
}

// Update applies fn to the current value under the write lock, so fields fn
// does not touch are preserved.
func (o *Object[T]) Update(fn func(*T)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.data)
	o.touchLocked()
}

func (o *Object[T]) touchLocked() {
	o.lastUpdated = time.Now()
	o.updates++
}

// Get returns the current value, or the zero value if the object was never set.
func (o *Object[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.data
}

// GetFresh returns the current value, or ErrStale if no data has been set yet
// or the data age exceeds the stale threshold.
func (o *Object[T]) GetFresh() (T, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.staleLocked(time.Now()) {
		var zero T
		return zero, &types.ObjectError{Object: o.name, Err: ErrStale}
	}
	return o.data, nil
}

// staleLocked reports staleness; a zero threshold disables the age check.
func (o *Object[T]) staleLocked(now time.Time) bool {
	if o.lastUpdated.IsZero() {
		return true
	}
	return o.staleThreshold > 0 && now.Sub(o.lastUpdated) > o.staleThreshold
}

// LastUpdated returns the time of the most recent write, or zero if never set.
func (o *Object[T]) LastUpdated() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastUpdated
}

// Updates returns the number of writes since registration.
func (o *Object[T]) Updates() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.updates
}

func (o *Object[T]) state() types.ObjectState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return types.ObjectState{
		Name:        o.name,
		Data:        o.data,
		LastUpdated: o.lastUpdated,
		Updates:     o.updates,
	}
}

func (o *Object[T]) stale(now time.Time) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.staleLocked(now)
}
