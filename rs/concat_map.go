package rs

// concatMapState drives the flattening state machine: one inner Publisher
// active at a time, produced by calling f on each value the outer Publisher
// emits.
type concatMapState[T, U any] struct {
	inner     Subscriber[U]
	f         func(T) Publisher[U]
	requested ElementCount
	state     concatMapPhase
	outerSub  Subscription
	innerSub  Subscription
}

type concatMapPhase int

const (
	concatMapInit concatMapPhase = iota
	concatMapRequestedPublisher
	concatMapHasPublisher
	concatMapOnLastPublisher
	concatMapEnd
)

// ConcatMap calls f on each value from upstream to obtain an inner
// Publisher, subscribes to it, and flattens its emissions into the output.
// Only one inner Publisher is active at a time; the next one is requested
// from upstream only after the current one completes.
func ConcatMap[T, U any](upstream Publisher[T], f func(T) Publisher[U]) Publisher[U] {
	return MakePublisher(func(subscriber Subscriber[U]) Subscription {
		c := &concatMapState[T, U]{inner: subscriber, f: f}
		c.outerSub = upstream.Subscribe(&concatMapOuterSubscriber[T, U]{c: c})
		return MakeSubscription(c.request, c.cancel)
	})
}

func (c *concatMapState[T, U]) request(n ElementCount) {
	c.requested, _ = c.requested.Add(n)
	switch c.state {
	case concatMapEnd, concatMapRequestedPublisher:
	case concatMapHasPublisher, concatMapOnLastPublisher:
		if c.innerSub != nil {
			c.innerSub.Request(n)
		}
	case concatMapInit:
		c.requestNewPublisher()
	}
}

func (c *concatMapState[T, U]) cancel() {
	c.state = concatMapEnd
	if c.outerSub != nil {
		c.outerSub.Cancel()
	}
	if c.innerSub != nil {
		c.innerSub.Cancel()
	}
}

func (c *concatMapState[T, U]) requestNewPublisher() {
	switch {
	case c.state == concatMapOnLastPublisher:
		c.state = concatMapEnd
		c.inner.OnComplete()
	case c.requested.IsPositive():
		c.state = concatMapRequestedPublisher
		if c.outerSub != nil {
			c.outerSub.Request(NewElementCount(1))
		}
	case c.state != concatMapEnd:
		c.state = concatMapInit
	}
}

func (c *concatMapState[T, U]) onOuterNext(v T) {
	if c.state == concatMapEnd {
		return
	}
	if c.state != concatMapRequestedPublisher {
		c.failAndCancel(wrapError(ContractViolation, errGotValueNotRequested))
		return
	}
	publisher, err := c.invoke(v)
	if err != nil {
		c.failAndCancel(err)
		return
	}
	c.state = concatMapHasPublisher
	innerSubscriber := &concatMapInnerSubscriber[T, U]{c: c}
	c.innerSub = publisher.Subscribe(innerSubscriber)
	c.innerSub.Request(c.requested)
}

func (c *concatMapState[T, U]) invoke(v T) (pub Publisher[U], err error) {
	defer recoverCallback(&err)
	return c.f(v), nil
}

func (c *concatMapState[T, U]) onOuterError(err error) {
	c.failAndCancel(err)
}

func (c *concatMapState[T, U]) onOuterComplete() {
	switch c.state {
	case concatMapEnd:
	case concatMapInit, concatMapRequestedPublisher:
		c.state = concatMapEnd
		c.inner.OnComplete()
	case concatMapHasPublisher:
		c.state = concatMapOnLastPublisher
	case concatMapOnLastPublisher:
		c.failAndCancel(wrapError(ContractViolation, errDuplicateComplete))
	}
}

func (c *concatMapState[T, U]) onInnerNext(v U) {
	if !c.requested.IsPositive() {
		c.failAndCancel(wrapError(ContractViolation, errGotValueNotRequested))
		return
	}
	c.requested, _ = c.requested.Sub(NewElementCount(1))
	c.inner.OnNext(v)
}

func (c *concatMapState[T, U]) onInnerError(err error) {
	c.failAndCancel(err)
}

func (c *concatMapState[T, U]) onInnerComplete() {
	c.requestNewPublisher()
}

func (c *concatMapState[T, U]) failAndCancel(err error) {
	if c.state == concatMapEnd {
		return
	}
	c.cancel()
	c.inner.OnError(err)
}

// concatMapOuterSubscriber receives the stream of inner Publishers to flatten.
type concatMapOuterSubscriber[T, U any] struct {
	c *concatMapState[T, U]
}

func (s *concatMapOuterSubscriber[T, U]) OnNext(v T)      { s.c.onOuterNext(v) }
func (s *concatMapOuterSubscriber[T, U]) OnError(e error) { s.c.onOuterError(e) }
func (s *concatMapOuterSubscriber[T, U]) OnComplete()     { s.c.onOuterComplete() }

// concatMapInnerSubscriber receives the flattened values of the currently
// active inner Publisher.
type concatMapInnerSubscriber[T, U any] struct {
	c *concatMapState[T, U]
}

func (s *concatMapInnerSubscriber[T, U]) OnNext(v U)      { s.c.onInnerNext(v) }
func (s *concatMapInnerSubscriber[T, U]) OnError(e error) { s.c.onInnerError(e) }
func (s *concatMapInnerSubscriber[T, U]) OnComplete()     { s.c.onInnerComplete() }
