package rs

// Range emits count consecutive ints starting at begin. It is a thin
// wrapper over From with a generated slice.
func Range(begin, count int) Publisher[int] {
	values := make([]int, count)
	for i := range values {
		values[i] = begin + i
	}
	return From(values)
}

// Repeat emits value count times.
func Repeat[T any](value T, count int) Publisher[T] {
	values := make([]T, count)
	for i := range values {
		values[i] = value
	}
	return From(values)
}
