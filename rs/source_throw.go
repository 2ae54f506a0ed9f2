package rs

// Throw returns a Publisher that, on the first positive request, emits
// on_error(err) exactly once and nothing else. Delivery is deferred to the
// first request rather than happening eagerly during Subscribe, matching
// the other sources' "nothing before the first positive request" policy.
func Throw[T any](err error) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		return &throwSubscription[T]{subscriber: subscriber, err: err}
	})
}

type throwSubscription[T any] struct {
	subscriber Subscriber[T]
	err        error
	done       bool
}

func (s *throwSubscription[T]) Request(n ElementCount) {
	if s.done || n.IsZero() {
		return
	}
	s.done = true
	s.subscriber.OnError(s.err)
}

func (s *throwSubscription[T]) Cancel() {
	s.done = true
}
