package rs

// ReduceMultiple folds upstream like Reduce, but checks shouldEmit after each
// application of f: when it reports true, the current accumulator is
// emitted downstream and replaced by a fresh one from makeInitial before the
// next value is folded in. The final accumulator is always emitted (plus
// on_complete) when upstream completes, regardless of what shouldEmit last
// reported.
func ReduceMultiple[T, Acc any](
	upstream Publisher[T],
	makeInitial func() Acc,
	f func(Acc, T) Acc,
	shouldEmit func(Acc, T) bool,
) Publisher[Acc] {
	return MakePublisher(func(subscriber Subscriber[Acc]) Subscription {
		r := &reduceMultipleState[T, Acc]{
			inner:       subscriber,
			accum:       makeInitial(),
			makeInitial: makeInitial,
			f:           f,
			shouldEmit:  shouldEmit,
		}
		r.sub = upstream.Subscribe(r)
		return MakeSubscription(func(n ElementCount) {
			if r.sub != nil {
				r.sub.Request(n)
			}
		}, func() {
			r.cancelled = true
			if r.sub != nil {
				r.sub.Cancel()
			}
		})
	})
}

type reduceMultipleState[T, Acc any] struct {
	inner       Subscriber[Acc]
	accum       Acc
	makeInitial func() Acc
	f           func(Acc, T) Acc
	shouldEmit  func(Acc, T) bool
	sub         Subscription
	failed      bool
	cancelled   bool
}

func (r *reduceMultipleState[T, Acc]) OnNext(v T) {
	if r.failed || r.cancelled {
		return
	}
	accum, emit, err := r.apply(v)
	if err != nil {
		r.failed = true
		r.inner.OnError(err)
		return
	}
	r.accum = accum
	if emit {
		r.inner.OnNext(r.accum)
		r.accum = r.makeInitial()
	}
}

func (r *reduceMultipleState[T, Acc]) apply(v T) (accum Acc, emit bool, err error) {
	defer recoverCallback(&err)
	next := r.f(r.accum, v)
	return next, r.shouldEmit(next, v), nil
}

func (r *reduceMultipleState[T, Acc]) OnError(err error) {
	if r.failed || r.cancelled {
		return
	}
	r.failed = true
	r.inner.OnError(err)
}

func (r *reduceMultipleState[T, Acc]) OnComplete() {
	if r.failed || r.cancelled {
		return
	}
	r.failed = true
	r.inner.OnNext(r.accum)
	r.inner.OnComplete()
}
