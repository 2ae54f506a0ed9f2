package rs

// Map returns a Publisher that emits f(v) for each v emitted by upstream.
// If f panics, the panic is recovered, upstream is cancelled, and the
// recovered value is forwarded as on_error instead of propagating.
func Map[T, U any](upstream Publisher[T], f func(T) U) Publisher[U] {
	return MakePublisher(func(subscriber Subscriber[U]) Subscription {
		inner := &mapSubscriber[T, U]{inner: subscriber, f: f}
		sub := upstream.Subscribe(inner)
		inner.sub = sub
		return sub
	})
}

type mapSubscriber[T, U any] struct {
	inner  Subscriber[U]
	f      func(T) U
	failed bool
	sub    Subscription
}

func (s *mapSubscriber[T, U]) OnNext(v T) {
	if s.failed {
		return
	}
	mapped, err := s.apply(v)
	if err != nil {
		s.failed = true
		if s.sub != nil {
			s.sub.Cancel()
		}
		s.inner.OnError(err)
		return
	}
	s.inner.OnNext(mapped)
}

func (s *mapSubscriber[T, U]) apply(v T) (mapped U, err error) {
	defer recoverCallback(&err)
	return s.f(v), nil
}

func (s *mapSubscriber[T, U]) OnError(err error) {
	if !s.failed {
		s.inner.OnError(err)
	}
}

func (s *mapSubscriber[T, U]) OnComplete() {
	if !s.failed {
		s.inner.OnComplete()
	}
}
