package rs

// From builds a cold Publisher that emits the elements of values, in order,
// copying the slice once per Subscribe so that concurrent subscriptions
// never share iteration state.
func From[T any](values []T) Publisher[T] {
	cp := make([]T, len(values))
	copy(cp, values)
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		sub := &fromSubscription[T]{values: cp, subscriber: subscriber}
		if len(sub.values) == 0 {
			subscriber.OnComplete()
		}
		return sub
	})
}

// fromSubscription walks values one request at a time. outstanding tracks
// demand the way ElementCount would, but is kept as a plain int64 here
// because From never needs to represent "unbounded" explicitly: any very
// large request collapses to "deliver everything," which a plain counter
// handles identically to ElementCount's saturation.
type fromSubscription[T any] struct {
	values      []T
	index       int
	subscriber  Subscriber[T]
	outstanding int64
	cancelled   bool
}

func (s *fromSubscription[T]) Request(n ElementCount) {
	if s.subscriber == nil {
		return
	}
	had := s.outstanding != 0
	if n.IsUnbounded() {
		// One more than what is left: a re-entrant call arrives before the
		// element being delivered has been counted off.
		s.outstanding = int64(len(s.values)-s.index) + 1
	} else {
		s.outstanding += n.Get()
	}
	if had {
		// A Request call farther up the stack is already draining demand;
		// folding into its counter avoids recursing into OnNext re-entrantly.
		return
	}
	for !s.cancelled && s.outstanding != 0 && s.index < len(s.values) {
		v := s.values[s.index]
		s.index++
		s.subscriber.OnNext(v)
		if s.index == len(s.values) {
			s.outstanding = 0
			s.subscriber.OnComplete()
		}
		s.outstanding--
	}
}

func (s *fromSubscription[T]) Cancel() {
	s.cancelled = true
}
