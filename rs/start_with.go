package rs

// StartWith returns an Operator that prefixes a stream with the given
// literal values, via Concat(Just(values...), stream).
func StartWith[T any](values ...T) Operator[T, T] {
	prefix := Just(values...)
	return func(stream Publisher[T]) Publisher[T] {
		return Concat(prefix, stream)
	}
}

// StartWithGet is StartWith for a value produced lazily by fn on first
// positive request, via Concat(Start(fn), stream).
func StartWithGet[T any](fn func() (T, error)) Operator[T, T] {
	prefix := Start(fn)
	return func(stream Publisher[T]) Publisher[T] {
		return Concat(prefix, stream)
	}
}

// Append returns an Operator that emits stream's values followed by
// appended's.
func Append[T any](appended Publisher[T]) Operator[T, T] {
	return func(stream Publisher[T]) Publisher[T] {
		return Concat(stream, appended)
	}
}

// Prepend returns an Operator that emits prepended's values followed by
// stream's.
func Prepend[T any](prepended Publisher[T]) Operator[T, T] {
	return func(stream Publisher[T]) Publisher[T] {
		return Concat(prepended, stream)
	}
}
