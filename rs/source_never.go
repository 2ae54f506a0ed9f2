package rs

// Never returns a Publisher that emits nothing, ever; requesting and
// cancelling it are both no-ops.
func Never[T any]() Publisher[T] {
	return MakePublisher(func(Subscriber[T]) Subscription {
		return EmptySubscription()
	})
}
