package rs

// Concat subscribes to each Publisher in order, only moving on to the next
// once the current one completes; demand that wasn't fulfilled by the
// exhausted Publisher carries over to the next one. An error from any
// Publisher ends the whole chain immediately.
func Concat[T any](publishers ...Publisher[T]) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		c := &concatState[T]{inner: subscriber, remaining: publishers}
		c.advance()
		return MakeSubscription(func(n ElementCount) {
			c.requested, _ = c.requested.Add(n)
			c.drain()
		}, func() {
			c.cancelled = true
			if c.sub != nil {
				c.sub.Cancel()
			}
		})
	})
}

type concatState[T any] struct {
	inner     Subscriber[T]
	remaining []Publisher[T]
	sub       Subscription
	requested ElementCount
	done      bool
	cancelled bool
}

// advance subscribes to the next upstream Publisher in the chain, or
// completes downstream if none remain.
func (c *concatState[T]) advance() {
	if c.cancelled || c.done {
		return
	}
	if len(c.remaining) == 0 {
		c.done = true
		c.inner.OnComplete()
		return
	}
	next := c.remaining[0]
	c.remaining = c.remaining[1:]
	c.sub = next.Subscribe(c)
	c.drain()
}

// drain forwards any still-unfulfilled demand to whichever Publisher is
// currently active. It may be invoked re-entrantly from within a nested
// advance() (a synchronous source completing immediately upon Request), in
// which case each invocation simply targets a different, newly-subscribed
// Subscription — there is no shared loop state to protect here, unlike
// From's single-source demand drain.
func (c *concatState[T]) drain() {
	if c.sub != nil && c.requested.IsPositive() {
		c.sub.Request(c.requested)
	}
}

func (c *concatState[T]) OnNext(v T) {
	if c.cancelled || c.done {
		return
	}
	c.requested, _ = c.requested.Sub(NewElementCount(1))
	c.inner.OnNext(v)
}

func (c *concatState[T]) OnError(err error) {
	if c.cancelled || c.done {
		return
	}
	c.done = true
	c.inner.OnError(err)
}

func (c *concatState[T]) OnComplete() {
	if c.cancelled || c.done {
		return
	}
	c.advance()
}
