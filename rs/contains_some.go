package rs

// Some returns a Publisher emitting exactly one boolean: true as soon as
// some value from upstream matches pred (cancelling upstream immediately
// after), false once upstream completes having matched nothing. Built by
// composing Filter, Take(1), and Reduce.
func Some[T any](upstream Publisher[T], pred func(T) bool) Publisher[bool] {
	return Reduce(Take(Filter(upstream, pred), 1), false, func(bool, T) bool {
		return true
	})
}

// Contains returns a Publisher emitting exactly one boolean: whether any
// value emitted by upstream equals v, using eq as the comparison.
func Contains[T any](upstream Publisher[T], v T, eq func(T, T) bool) Publisher[bool] {
	return Some(upstream, func(candidate T) bool {
		return eq(v, candidate)
	})
}
