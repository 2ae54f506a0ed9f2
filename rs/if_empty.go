package rs

// IfEmpty routes upstream's values through unchanged; if upstream completes
// having emitted nothing, it subscribes to fallback for the remaining
// output instead of completing empty.
func IfEmpty[T any](upstream Publisher[T], fallback Publisher[T]) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		empty := true
		marker := Map(upstream, func(v T) T {
			empty = false
			return v
		})
		tail := MakePublisher(func(s Subscriber[T]) Subscription {
			if empty {
				return fallback.Subscribe(s)
			}
			return Empty[T]().Subscribe(s)
		})
		return Concat(marker, tail).Subscribe(subscriber)
	})
}
