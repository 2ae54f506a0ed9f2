package rs

// Just emits the given values in order once cumulative demand reaches their
// count, then on_complete. A partial request emits only a prefix; it is
// built directly on From since "emit a fixed literal sequence" is exactly
// From's contract applied to a literal slice.
func Just[T any](values ...T) Publisher[T] {
	return From(values)
}
