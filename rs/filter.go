package rs

// Filter returns a Publisher that emits only the values of upstream for
// which pred returns true. Rejected values cause one additional element to
// be requested from upstream so that downstream demand stays satisfied. If
// pred panics, upstream is cancelled and the recovered value is forwarded
// as on_error.
func Filter[T any](upstream Publisher[T], pred func(T) bool) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		inner := &filterSubscriber[T]{inner: subscriber, pred: pred}
		sub := upstream.Subscribe(inner)
		inner.sub = sub
		return sub
	})
}

type filterSubscriber[T any] struct {
	inner  Subscriber[T]
	pred   func(T) bool
	failed bool
	sub    Subscription
}

func (s *filterSubscriber[T]) OnNext(v T) {
	if s.failed {
		return
	}
	match, err := s.apply(v)
	if err != nil {
		s.failed = true
		if s.sub != nil {
			s.sub.Cancel()
		}
		s.inner.OnError(err)
		return
	}
	if match {
		s.inner.OnNext(v)
	} else if s.sub != nil {
		s.sub.Request(NewElementCount(1))
	}
}

func (s *filterSubscriber[T]) apply(v T) (match bool, err error) {
	defer recoverCallback(&err)
	return s.pred(v), nil
}

func (s *filterSubscriber[T]) OnError(err error) {
	if !s.failed {
		s.inner.OnError(err)
	}
}

func (s *filterSubscriber[T]) OnComplete() {
	if !s.failed {
		s.inner.OnComplete()
	}
}
