package rs

// Pair is the 2-element product type Splat2 unpacks.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple is the 3-element product type Splat3 unpacks.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Splat2 adapts a two-argument callback into a function of a Pair, so it
// can be used directly as a Map callback over a stream of Pairs.
func Splat2[A, B, R any](f func(A, B) R) func(Pair[A, B]) R {
	return func(p Pair[A, B]) R { return f(p.First, p.Second) }
}

// Splat3 adapts a three-argument callback into a function of a Triple.
func Splat3[A, B, C, R any](f func(A, B, C) R) func(Triple[A, B, C]) R {
	return func(t Triple[A, B, C]) R { return f(t.First, t.Second, t.Third) }
}
