package rs

// Skip returns a Publisher that drops the first n values from upstream and
// passes everything after that through unchanged. It is built directly on
// Filter so that a dropped value correctly requests one replacement element
// from upstream instead of silently shrinking downstream's demand. The
// drop counter is rebuilt per Subscribe to keep the Publisher cold.
func Skip[T any](upstream Publisher[T], n int) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		remaining := n
		return Filter(upstream, func(T) bool {
			if remaining == 0 {
				return true
			}
			remaining--
			return false
		}).Subscribe(subscriber)
	})
}
