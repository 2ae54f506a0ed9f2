package rs

// Last returns a Publisher of the last value upstream emits, delivered once
// upstream completes. If upstream completes without ever emitting a value,
// the result fails with ErrOutOfRange. Realized as Reduce over an
// "optional" accumulator: a (value, ok) pair is the idiomatic Go stand-in
// for "no value seen yet."
func Last[T any](upstream Publisher[T]) Publisher[T] {
	type holder struct {
		value T
		ok    bool
	}
	reduced := Reduce(upstream, holder{}, func(_ holder, v T) holder {
		return holder{value: v, ok: true}
	})
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		failed := false
		return reduced.Subscribe(MakeSubscriber(
			func(h holder) {
				if !h.ok {
					failed = true
					subscriber.OnError(ErrOutOfRange)
					return
				}
				subscriber.OnNext(h.value)
			},
			subscriber.OnError,
			func() {
				if !failed {
					subscriber.OnComplete()
				}
			},
		))
	})
}
