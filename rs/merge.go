package rs

// Merge subscribes to every given Publisher immediately and interleaves
// their emissions, preserving per-source order. Demand is tracked
// per-source so that no source is ever asked for more than the merged
// stream's aggregate outstanding demand; values that arrive once a source
// has outrun the aggregate are buffered instead of dropped. With unbounded
// aggregate demand no buffering ever occurs, and the buffer never exceeds
// (len(publishers)-1) * outstanding, because the aggregate cap prevents any
// single source from requesting — and therefore delivering — more than that
// on its own.
func Merge[T any](publishers ...Publisher[T]) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		m := &mergeState[T]{inner: subscriber, remaining: len(publishers)}
		if len(publishers) == 0 {
			subscriber.OnComplete()
			return EmptySubscription()
		}
		m.sources = make([]*mergeSource[T], len(publishers))
		for i, p := range publishers {
			src := &mergeSource[T]{}
			m.sources[i] = src
			src.sub = p.Subscribe(&mergeInnerSubscriber[T]{m: m, idx: i})
			if m.finished {
				break
			}
		}
		return MakeSubscription(m.request, m.cancel)
	})
}

type mergeSource[T any] struct {
	sub         Subscription
	outstanding ElementCount
}

type mergeState[T any] struct {
	inner       Subscriber[T]
	sources     []*mergeSource[T]
	buffer      []T
	outstanding ElementCount
	processing  bool
	deferred    ElementCount
	remaining   int
	finished    bool
}

func (m *mergeState[T]) request(n ElementCount) {
	if m.finished {
		return
	}
	if m.processing {
		// Re-entrant Request from inside an OnNext below; fold the demand
		// into the active drain loop instead of recursing.
		m.deferred, _ = m.deferred.Add(n)
		return
	}
	m.processing = true
	m.deferred = n
	for m.deferred.IsPositive() && !m.finished {
		batch := m.deferred
		m.deferred = NewElementCount(0)
		m.outstanding, _ = m.outstanding.Add(batch)

		//1.- Buffered values satisfy new demand before the sources are
		// asked for anything more.
		for m.outstanding.IsPositive() && len(m.buffer) > 0 {
			v := m.buffer[0]
			m.buffer = m.buffer[1:]
			m.inner.OnNext(v)
			m.outstanding, _ = m.outstanding.Sub(NewElementCount(1))
		}

		//2.- Top each source up to the aggregate unfulfilled demand; no
		// source ever has more outstanding than the merged stream does, so
		// the buffer stays within its documented bound.
		if m.outstanding.IsPositive() {
			for _, src := range m.sources {
				toRequest, _ := m.outstanding.Sub(src.outstanding)
				if toRequest.IsPositive() {
					src.outstanding, _ = src.outstanding.Add(toRequest)
					src.sub.Request(toRequest)
				}
				if m.finished {
					break
				}
			}
		}
	}
	m.processing = false

	m.maybeComplete()
}

func (m *mergeState[T]) cancel() {
	m.finished = true
	for _, src := range m.sources {
		if src.sub != nil {
			src.sub.Cancel()
		}
	}
}

func (m *mergeState[T]) onNext(idx int, v T) {
	if m.finished {
		return
	}
	src := m.sources[idx]
	if !src.outstanding.IsPositive() {
		m.fail(wrapError(ContractViolation, errGotValueNotRequested))
		return
	}
	src.outstanding, _ = src.outstanding.Sub(NewElementCount(1))
	if m.outstanding.IsPositive() {
		m.outstanding, _ = m.outstanding.Sub(NewElementCount(1))
		m.inner.OnNext(v)
	} else {
		m.buffer = append(m.buffer, v)
	}
}

func (m *mergeState[T]) onError(err error) {
	if m.finished {
		return
	}
	m.fail(err)
}

func (m *mergeState[T]) onComplete() {
	if m.finished {
		return
	}
	m.remaining--
	m.maybeComplete()
}

func (m *mergeState[T]) maybeComplete() {
	if !m.finished && m.remaining == 0 && len(m.buffer) == 0 {
		m.finished = true
		m.inner.OnComplete()
	}
}

func (m *mergeState[T]) fail(err error) {
	m.cancel()
	m.inner.OnError(err)
}

// mergeInnerSubscriber tags each source's signals with its index so the
// shared mergeState can update per-source outstanding demand.
type mergeInnerSubscriber[T any] struct {
	m   *mergeState[T]
	idx int
}

func (s *mergeInnerSubscriber[T]) OnNext(v T)      { s.m.onNext(s.idx, v) }
func (s *mergeInnerSubscriber[T]) OnError(e error) { s.m.onError(e) }
func (s *mergeInnerSubscriber[T]) OnComplete()     { s.m.onComplete() }
