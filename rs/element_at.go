package rs

// ElementAt returns a Publisher of the single value at the given zero-based
// index in upstream. If upstream completes having emitted fewer than
// index+1 values, the result fails with ErrOutOfRange. Take(index+1) bounds
// an infinite upstream; FirstMatching then picks out the one element whose
// position equals index, counted afresh per Subscribe so the Publisher
// stays cold.
func ElementAt[T any](upstream Publisher[T], index int) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		remaining := index
		return FirstMatching(Take(upstream, index+1), func(T) bool {
			if remaining == 0 {
				return true
			}
			remaining--
			return false
		}).Subscribe(subscriber)
	})
}
