package rs

import "sync"

// WeakReferee holds a value that at most one WeakReference may observe
// without owning it. The link is explicit, not garbage-collector weak: the
// reference holds an ordinary pointer to the value until Close or Reset
// severs the link. Combinators that need two halves of their state to reach each
// other — a subscriber that must poke its own subscription, or vice versa —
// link one side as the referee and the other as the reference instead of
// holding a direct cyclic pointer.
type WeakReferee[T any] struct {
	mu    sync.Mutex
	value *T
	back  *WeakReference[T]
}

// NewWeakReferee wraps value so that a WeakReference can be linked to it.
func NewWeakReferee[T any](value *T) *WeakReferee[T] {
	return &WeakReferee[T]{value: value}
}

// Close severs the link to whatever WeakReference currently observes w. Any
// future WeakReference.Get against it reports absence.
func (w *WeakReferee[T]) Close() {
	w.mu.Lock()
	back := w.back
	w.back = nil
	w.value = nil
	w.mu.Unlock()
	if back != nil {
		back.clear()
	}
}

// Link attaches ref as the sole observer of w, detaching ref from whatever
// it previously observed and detaching whatever previously observed w.
func (w *WeakReferee[T]) Link(ref *WeakReference[T]) {
	ref.Reset()
	w.mu.Lock()
	prev := w.back
	w.back = ref
	value := w.value
	w.mu.Unlock()
	if prev != nil && prev != ref {
		prev.clear()
	}
	ref.set(w, value)
}

// WeakReference observes a WeakReferee's value until either side severs the
// link; it cannot prevent the referee from closing.
type WeakReference[T any] struct {
	mu      sync.Mutex
	referee *WeakReferee[T]
	value   *T
}

// Get returns the referenced value and true, or (nil, false) once the
// referee has been closed or no referee was ever linked.
func (r *WeakReference[T]) Get() (*T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.value == nil {
		return nil, false
	}
	return r.value, true
}

// Reset severs the link, if any, leaving both sides empty.
func (r *WeakReference[T]) Reset() {
	r.mu.Lock()
	referee := r.referee
	r.referee = nil
	r.value = nil
	r.mu.Unlock()
	if referee != nil {
		referee.mu.Lock()
		if referee.back == r {
			referee.back = nil
		}
		referee.mu.Unlock()
	}
}

func (r *WeakReference[T]) set(referee *WeakReferee[T], value *T) {
	r.mu.Lock()
	r.referee = referee
	r.value = value
	r.mu.Unlock()
}

func (r *WeakReference[T]) clear() {
	r.mu.Lock()
	r.referee = nil
	r.value = nil
	r.mu.Unlock()
}
