package rs

import (
	"errors"
	"testing"
)

func TestConcatCarriesDemandAcrossSources(t *testing.T) {
	var got []int
	done := false
	sub := Concat(Just(1), Just(2), Just(3)).Subscribe(MakeSubscriber[int](
		func(v int) { got = append(got, v) },
		nil,
		func() { done = true },
	))
	sub.Request(NewElementCount(2))
	if len(got) != 2 || got[0] != 1 || got[1] != 2 || done {
		t.Fatalf("expected [1 2] without completion, got %v done=%v", got, done)
	}
	sub.Request(NewElementCount(1))
	if len(got) != 3 || got[2] != 3 || !done {
		t.Fatalf("expected [1 2 3] with completion, got %v done=%v", got, done)
	}
}

func TestConcatAssociativity(t *testing.T) {
	a, b, c := Just(1), Just(2), Just(3)
	left, leftDone, _ := collect(Concat(Concat(a, b), c), Unbounded())
	right, rightDone, _ := collect(Concat(a, Concat(b, c)), Unbounded())
	if leftDone != rightDone || len(left) != len(right) {
		t.Fatalf("associativity violated: %v vs %v", left, right)
	}
	for i := range left {
		if left[i] != right[i] {
			t.Fatalf("associativity violated at %d: %v vs %v", i, left, right)
		}
	}
}

func TestConcatStopsOnError(t *testing.T) {
	sentinel := errors.New("boom")
	values, completed, err := collect(Concat(Just(1), Throw[int](sentinel), Just(2)), Unbounded())
	if completed || !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got completed=%v err=%v", completed, err)
	}
	if len(values) != 1 || values[0] != 1 {
		t.Fatalf("expected [1] before the error, got %v", values)
	}
}

func TestConcatMapFlattensSequentially(t *testing.T) {
	values, completed, err := collect(
		ConcatMap(From([]int{1, 2}), func(v int) Publisher[int] {
			return Just(v*10, v*10+1)
		}),
		Unbounded(),
	)
	if err != nil || !completed {
		t.Fatalf("unexpected termination: completed=%v err=%v", completed, err)
	}
	want := []int{10, 11, 20, 21}
	if len(values) != len(want) {
		t.Fatalf("expected %v, got %v", want, values)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, values)
		}
	}
}

func TestConcatMapHonorsPartialDemand(t *testing.T) {
	var got []int
	sub := ConcatMap(From([]int{1, 2}), func(v int) Publisher[int] {
		return Just(v*10, v*10+1)
	}).Subscribe(MakeSubscriber[int](func(v int) { got = append(got, v) }, nil, nil))
	sub.Request(NewElementCount(3))
	if len(got) != 3 || got[0] != 10 || got[1] != 11 || got[2] != 20 {
		t.Fatalf("expected [10 11 20], got %v", got)
	}
}

func TestConcatMapMapperPanicFails(t *testing.T) {
	_, completed, err := collect(ConcatMap(Just(1), func(int) Publisher[int] {
		panic("mapper blew up")
	}), Unbounded())
	kind, ok := KindOf(err)
	if completed || !ok || kind != CallbackFailure {
		t.Fatalf("expected CallbackFailure, got completed=%v err=%v", completed, err)
	}
}

func TestConcatMapEmptyOuterCompletes(t *testing.T) {
	_, completed, err := collect(ConcatMap(Empty[int](), func(int) Publisher[int] {
		t.Fatalf("mapper must not be called")
		return nil
	}), Unbounded())
	if err != nil || !completed {
		t.Fatalf("unexpected termination: completed=%v err=%v", completed, err)
	}
}

func TestFlatMapMatchesConcatMap(t *testing.T) {
	mapper := func(v int) Publisher[int] { return Just(v, -v) }
	flat, flatDone, _ := collect(FlatMap(From([]int{1, 2}), mapper), Unbounded())
	concat, concatDone, _ := collect(ConcatMap(From([]int{1, 2}), mapper), Unbounded())
	if flatDone != concatDone || len(flat) != len(concat) {
		t.Fatalf("flat_map diverged from concat_map: %v vs %v", flat, concat)
	}
	for i := range flat {
		if flat[i] != concat[i] {
			t.Fatalf("flat_map diverged at %d: %v vs %v", i, flat, concat)
		}
	}
}

func TestMergeInterleavesPreservingPerSourceOrder(t *testing.T) {
	values, completed, err := collect(Merge(From([]int{1, 3}), From([]int{2, 4})), Unbounded())
	if err != nil || !completed {
		t.Fatalf("unexpected termination: completed=%v err=%v", completed, err)
	}
	if len(values) != 4 {
		t.Fatalf("expected 4 values, got %v", values)
	}
	//1.- Per-source order: 1 before 3, and 2 before 4, in any interleaving.
	pos := map[int]int{}
	for i, v := range values {
		pos[v] = i
	}
	if pos[1] > pos[3] || pos[2] > pos[4] {
		t.Fatalf("per-source order violated: %v", values)
	}
}

func TestMergeNeverExceedsAggregateDemand(t *testing.T) {
	var got []int
	sub := Merge(From([]int{1, 3}), From([]int{2, 4})).
		Subscribe(MakeSubscriber[int](func(v int) { got = append(got, v) }, nil, nil))
	total := 0
	for i := 0; i < 4; i++ {
		sub.Request(NewElementCount(1))
		total++
		if len(got) > total {
			t.Fatalf("delivered %d values on %d requested", len(got), total)
		}
	}
	if len(got) != 4 {
		t.Fatalf("expected all 4 values after 4 requests, got %v", got)
	}
}

// manualSource is a hand-driven Publisher for exercising merge's buffering:
// the test decides when each source emits relative to the granted demand.
type manualSource struct {
	sub    Subscriber[int]
	demand int64
}

func (m *manualSource) publisher() Publisher[int] {
	return MakePublisher(func(s Subscriber[int]) Subscription {
		m.sub = s
		return MakeSubscription(func(n ElementCount) { m.demand += n.Get() }, nil)
	})
}

func TestMergeBuffersWhenDemandIsConsumedElsewhere(t *testing.T) {
	var a, b manualSource
	var got []int
	done := false
	sub := Merge(a.publisher(), b.publisher()).Subscribe(MakeSubscriber[int](
		func(v int) { got = append(got, v) },
		nil,
		func() { done = true },
	))

	//1.- A single aggregate request grants each idle source one element —
	// that over-grant is what bounds the buffer at (k-1)*demand.
	sub.Request(NewElementCount(1))
	if a.demand != 1 || b.demand != 1 {
		t.Fatalf("expected both sources granted 1, got %d and %d", a.demand, b.demand)
	}

	//2.- The first arrival consumes the aggregate demand; the second must
	// be buffered, not delivered.
	a.sub.OnNext(10)
	b.sub.OnNext(20)
	if len(got) != 1 || got[0] != 10 {
		t.Fatalf("expected only [10] delivered, got %v", got)
	}

	//3.- New demand drains the buffer without granting the sources more.
	sub.Request(NewElementCount(1))
	if len(got) != 2 || got[1] != 20 {
		t.Fatalf("expected buffered 20 on the second request, got %v", got)
	}
	if a.demand != 1 || b.demand != 1 {
		t.Fatalf("buffer drain must not grant new source demand, got %d and %d", a.demand, b.demand)
	}

	a.sub.OnComplete()
	b.sub.OnComplete()
	if !done {
		t.Fatalf("expected completion once all sources finished with an empty buffer")
	}
}

func TestMergeErrorCancelsEverything(t *testing.T) {
	sentinel := errors.New("boom")
	values, completed, err := collect(Merge(Throw[int](sentinel), Never[int]()), Unbounded())
	if completed || !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got completed=%v err=%v", completed, err)
	}
	if len(values) != 0 {
		t.Fatalf("expected no values, got %v", values)
	}
}

func TestMergeOfNothingCompletes(t *testing.T) {
	_, completed, err := collect(Merge[int](), Unbounded())
	if err != nil || !completed {
		t.Fatalf("unexpected termination: completed=%v err=%v", completed, err)
	}
}

func TestCatchRecoversWithContinuation(t *testing.T) {
	sentinel := errors.New("boom")
	upstream := Concat(Just(1, 2), Throw[int](sentinel))
	var caught error
	values, completed, err := collect(Catch(upstream, func(e error) Publisher[int] {
		caught = e
		return From([]int{8, 9})
	}), Unbounded())
	if err != nil || !completed {
		t.Fatalf("unexpected termination: completed=%v err=%v", completed, err)
	}
	if !errors.Is(caught, sentinel) {
		t.Fatalf("handler saw %v", caught)
	}
	want := []int{1, 2, 8, 9}
	if len(values) != len(want) {
		t.Fatalf("expected %v, got %v", want, values)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, values)
		}
	}
}

func TestCatchPropagatesRecoveryError(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	_, completed, err := collect(Catch(Throw[int](first), func(error) Publisher[int] {
		return Throw[int](second)
	}), Unbounded())
	if completed || !errors.Is(err, second) {
		t.Fatalf("expected second error, got completed=%v err=%v", completed, err)
	}
}

func TestCatchIsNotInvokedOnCleanCompletion(t *testing.T) {
	values, completed, _ := collect(Catch(Just(1), func(error) Publisher[int] {
		t.Fatalf("handler must not be called")
		return nil
	}), Unbounded())
	if !completed || len(values) != 1 {
		t.Fatalf("unexpected result: %v completed=%v", values, completed)
	}
}
