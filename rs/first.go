package rs

// First returns a Publisher of the first value upstream emits. If upstream
// completes without emitting anything, the result fails with ErrOutOfRange.
// Built from Take(1) composed with IfEmpty(Throw(...)).
func First[T any](upstream Publisher[T]) Publisher[T] {
	return IfEmpty(Take(upstream, 1), Throw[T](ErrOutOfRange))
}

// FirstMatching returns a Publisher of the first value upstream emits that
// satisfies pred, or ErrOutOfRange if none does.
func FirstMatching[T any](upstream Publisher[T], pred func(T) bool) Publisher[T] {
	return First(Filter(upstream, pred))
}
