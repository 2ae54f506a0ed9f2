package rs

// Take returns a Publisher that emits at most n values from upstream, then
// completes and cancels upstream. Take(0) completes immediately on
// subscribe without ever subscribing to upstream.
func Take[T any](upstream Publisher[T], n int) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		if n <= 0 {
			subscriber.OnComplete()
			return EmptySubscription()
		}
		inner := &takeSubscriber[T]{inner: subscriber, remaining: n}
		sub := upstream.Subscribe(inner)
		inner.sub = sub
		return sub
	})
}

type takeSubscriber[T any] struct {
	inner     Subscriber[T]
	remaining int
	done      bool
	sub       Subscription
}

func (s *takeSubscriber[T]) OnNext(v T) {
	if s.done {
		return
	}
	s.inner.OnNext(v)
	s.remaining--
	if s.remaining == 0 {
		s.done = true
		if s.sub != nil {
			s.sub.Cancel()
		}
		s.inner.OnComplete()
	}
}

func (s *takeSubscriber[T]) OnError(err error) {
	if !s.done {
		s.done = true
		s.inner.OnError(err)
	}
}

func (s *takeSubscriber[T]) OnComplete() {
	if !s.done {
		s.done = true
		s.inner.OnComplete()
	}
}
