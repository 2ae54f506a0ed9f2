package rs

import "errors"

// errGotValueNotRequested and errDuplicateComplete name the two
// contract-violation failures ConcatMap and Merge can observe from a
// misbehaving source (more values delivered than were requested, or a
// second on_complete from ConcatMap's outer source).
var (
	errGotValueNotRequested = errors.New("got value that was not requested")
	errDuplicateComplete    = errors.New("got more than one on_complete signal")
)

// FlatMap shares ConcatMap's exact state machine: one inner Publisher
// active at a time. This is not the typically-understood "flatMap" that
// runs all inner Publishers concurrently; callers who want interleaving
// should use Merge over the mapped Publishers instead.
func FlatMap[T, U any](upstream Publisher[T], f func(T) Publisher[U]) Publisher[U] {
	return ConcatMap(upstream, f)
}
