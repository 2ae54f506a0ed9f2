package rs

// TakeWhile returns a Publisher that emits values from upstream until pred
// returns false, at which point it completes and cancels upstream.
func TakeWhile[T any](upstream Publisher[T], pred func(T) bool) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		inner := &takeWhileSubscriber[T]{inner: subscriber, pred: pred}
		sub := upstream.Subscribe(inner)
		inner.sub = sub
		return sub
	})
}

type takeWhileSubscriber[T any] struct {
	inner Subscriber[T]
	pred  func(T) bool
	done  bool
	sub   Subscription
}

func (s *takeWhileSubscriber[T]) OnNext(v T) {
	if s.done {
		return
	}
	match, err := s.apply(v)
	if err != nil {
		s.done = true
		if s.sub != nil {
			s.sub.Cancel()
		}
		s.inner.OnError(err)
		return
	}
	if !match {
		s.done = true
		if s.sub != nil {
			s.sub.Cancel()
		}
		s.inner.OnComplete()
		return
	}
	s.inner.OnNext(v)
}

func (s *takeWhileSubscriber[T]) apply(v T) (match bool, err error) {
	defer recoverCallback(&err)
	return s.pred(v), nil
}

func (s *takeWhileSubscriber[T]) OnError(err error) {
	if !s.done {
		s.done = true
		s.inner.OnError(err)
	}
}

func (s *takeWhileSubscriber[T]) OnComplete() {
	if !s.done {
		s.done = true
		s.inner.OnComplete()
	}
}
