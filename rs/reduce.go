package rs

// Reduce folds upstream into a single accumulator value, emitted once
// upstream completes. Unlike the other transform combinators, Reduce always
// requests Unbounded from upstream as soon as it is subscribed — the fold
// has to see every element regardless of how much downstream has asked for
// — and only emits (and completes) once downstream has issued at least one
// positive Request of its own, so the "no on_next before request" rule
// still holds for the one value Reduce ever produces.
func Reduce[T, Acc any](upstream Publisher[T], initial Acc, f func(Acc, T) Acc) Publisher[Acc] {
	return ReduceGet(upstream, func() Acc { return initial }, f)
}

// ReduceGet is Reduce with a factory for the initial accumulator instead of
// a value, so that a fresh, independent accumulator is built per
// Subscribe — useful to avoid a mutable accumulator leaking across
// subscriptions of the same cold Publisher.
func ReduceGet[T, Acc any](upstream Publisher[T], makeInitial func() Acc, f func(Acc, T) Acc) Publisher[Acc] {
	return MakePublisher(func(subscriber Subscriber[Acc]) Subscription {
		r := &reduceState[T, Acc]{inner: subscriber, accum: makeInitial(), f: f}
		r.sub = upstream.Subscribe(r)
		r.sub.Request(Unbounded())
		return MakeSubscription(func(n ElementCount) {
			if !n.IsPositive() || r.requested {
				return
			}
			r.requested = true
			r.maybeEmit()
		}, func() {
			r.cancelled = true
			if r.sub != nil {
				r.sub.Cancel()
			}
		})
	})
}

type reduceState[T, Acc any] struct {
	inner     Subscriber[Acc]
	accum     Acc
	f         func(Acc, T) Acc
	sub       Subscription
	upComplete bool
	requested bool
	failed    bool
	cancelled bool
}

func (r *reduceState[T, Acc]) OnNext(v T) {
	if r.failed || r.cancelled {
		return
	}
	accum, err := r.apply(v)
	if err != nil {
		r.failed = true
		r.inner.OnError(err)
		return
	}
	r.accum = accum
}

func (r *reduceState[T, Acc]) apply(v T) (accum Acc, err error) {
	defer recoverCallback(&err)
	return r.f(r.accum, v), nil
}

func (r *reduceState[T, Acc]) OnError(err error) {
	if r.failed || r.cancelled {
		return
	}
	r.failed = true
	r.inner.OnError(err)
}

func (r *reduceState[T, Acc]) OnComplete() {
	if r.failed || r.cancelled {
		return
	}
	r.upComplete = true
	r.maybeEmit()
}

func (r *reduceState[T, Acc]) maybeEmit() {
	if r.failed || r.cancelled || !r.upComplete || !r.requested {
		return
	}
	r.failed = true // reuse as "done" guard so a duplicate signal can't re-emit
	r.inner.OnNext(r.accum)
	r.inner.OnComplete()
}
