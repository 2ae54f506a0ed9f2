package rs

// Catch passes upstream's values through unchanged. If upstream terminates
// with on_error, onErr is called with that error to obtain a recovery
// Publisher; Catch subscribes to it with whatever demand downstream had
// not yet had fulfilled, and its emissions/completion/error become the
// final output. Catch is the only combinator in this package that turns an
// error into a continuation rather than simply forwarding it.
func Catch[T any](upstream Publisher[T], onErr func(error) Publisher[T]) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		c := &catchState[T]{inner: subscriber, onErr: onErr}
		c.upstreamSub = upstream.Subscribe(&catchUpstreamSubscriber[T]{c: c})
		return MakeSubscription(c.request, c.cancel)
	})
}

type catchState[T any] struct {
	inner       Subscriber[T]
	onErr       func(error) Publisher[T]
	requested   ElementCount
	upstreamSub Subscription
	recoverySub Subscription
	failed      bool
	cancelled   bool
}

func (c *catchState[T]) request(n ElementCount) {
	c.requested, _ = c.requested.Add(n)
	if c.failed {
		if c.recoverySub != nil {
			c.recoverySub.Request(n)
		}
		return
	}
	if c.upstreamSub != nil {
		c.upstreamSub.Request(n)
	}
}

func (c *catchState[T]) cancel() {
	c.cancelled = true
	if c.upstreamSub != nil {
		c.upstreamSub.Cancel()
	}
	if c.recoverySub != nil {
		c.recoverySub.Cancel()
	}
}

func (c *catchState[T]) onNext(v T) {
	if c.cancelled {
		return
	}
	c.requested, _ = c.requested.Sub(NewElementCount(1))
	c.inner.OnNext(v)
}

func (c *catchState[T]) onError(err error) {
	if c.cancelled {
		return
	}
	if c.failed {
		c.inner.OnError(err)
		return
	}
	c.failed = true
	recovery, recErr := c.invoke(err)
	if recErr != nil {
		c.inner.OnError(recErr)
		return
	}
	c.recoverySub = recovery.Subscribe(&catchRecoverySubscriber[T]{c: c})
	if !c.cancelled {
		c.recoverySub.Request(c.requested)
	}
}

func (c *catchState[T]) invoke(err error) (pub Publisher[T], rerr error) {
	defer recoverCallback(&rerr)
	return c.onErr(err), nil
}

func (c *catchState[T]) onComplete() {
	if !c.cancelled {
		c.inner.OnComplete()
	}
}

type catchUpstreamSubscriber[T any] struct {
	c *catchState[T]
}

func (s *catchUpstreamSubscriber[T]) OnNext(v T)      { s.c.onNext(v) }
func (s *catchUpstreamSubscriber[T]) OnError(e error) { s.c.onError(e) }
func (s *catchUpstreamSubscriber[T]) OnComplete()     { s.c.onComplete() }

type catchRecoverySubscriber[T any] struct {
	c *catchState[T]
}

func (s *catchRecoverySubscriber[T]) OnNext(v T)      { s.c.onNext(v) }
func (s *catchRecoverySubscriber[T]) OnError(e error) { s.c.onError(e) }
func (s *catchRecoverySubscriber[T]) OnComplete()     { s.c.onComplete() }
