// Package rstest provides the scripted subscribers and fake gRPC streams
// shared by the rs and rsgrpc tests.
package rstest

import "sync"

// Collector is a Subscriber that records every signal it receives so tests
// can assert on the exact delivery sequence. It is safe to use from the
// goroutine driving a completion queue while the test goroutine polls it.
type Collector[T any] struct {
	mu        sync.Mutex
	values    []T
	err       error
	completed bool
	terminals int
}

// NewCollector returns an empty Collector.
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{}
}

func (c *Collector[T]) OnNext(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, value)
}

func (c *Collector[T]) OnError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	c.terminals++
}

func (c *Collector[T]) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = true
	c.terminals++
}

// Values returns a copy of the values received so far.
func (c *Collector[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.values))
	copy(out, c.values)
	return out
}

// Err returns the error received through OnError, if any.
func (c *Collector[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Completed reports whether OnComplete has fired.
func (c *Collector[T]) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Terminated reports whether any terminal signal has fired.
func (c *Collector[T]) Terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminals > 0
}

// TerminalCount returns how many terminal signals have fired; anything
// above one is a contract breach in the code under test.
func (c *Collector[T]) TerminalCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminals
}
