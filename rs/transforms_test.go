package rs

import (
	"errors"
	"testing"
)

// trackCancel wraps pub so the test can observe whether a downstream
// operator cancelled its upstream subscription.
func trackCancel[T any](pub Publisher[T], cancelled *bool) Publisher[T] {
	return MakePublisher(func(subscriber Subscriber[T]) Subscription {
		sub := pub.Subscribe(subscriber)
		return MakeSubscription(sub.Request, func() {
			*cancelled = true
			sub.Cancel()
		})
	})
}

func TestMapTransformsValues(t *testing.T) {
	values, completed, err := collect(Map(From([]int{1, 2, 3}), func(v int) int { return v * 2 }), Unbounded())
	if err != nil || !completed {
		t.Fatalf("unexpected termination: completed=%v err=%v", completed, err)
	}
	want := []int{2, 4, 6}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, values)
		}
	}
}

func TestMapFusionLaw(t *testing.T) {
	f := func(v int) int { return v + 1 }
	g := func(v int) int { return v * 3 }

	fused, fusedDone, _ := collect(Map(From([]int{1, 2, 3}), func(v int) int { return f(g(v)) }), Unbounded())
	chained, chainedDone, _ := collect(Map(Map(From([]int{1, 2, 3}), g), f), Unbounded())

	if fusedDone != chainedDone || len(fused) != len(chained) {
		t.Fatalf("fusion mismatch: %v vs %v", fused, chained)
	}
	for i := range fused {
		if fused[i] != chained[i] {
			t.Fatalf("fusion mismatch at %d: %v vs %v", i, fused, chained)
		}
	}
}

func TestMapPanicBecomesCallbackFailureAndCancelsUpstream(t *testing.T) {
	cancelled := false
	upstream := trackCancel(From([]int{1}), &cancelled)
	_, completed, err := collect(Map(upstream, func(int) int { panic("mapper blew up") }), Unbounded())
	if completed {
		t.Fatalf("must not complete after mapper panic")
	}
	kind, ok := KindOf(err)
	if !ok || kind != CallbackFailure {
		t.Fatalf("expected CallbackFailure, got %v", err)
	}
	if !cancelled {
		t.Fatalf("expected upstream to be cancelled")
	}
}

func TestFilterKeepsDemandSatisfied(t *testing.T) {
	var got []int
	sub := Filter(From([]int{1, 2, 3, 4, 5, 6}), func(v int) bool { return v%2 == 0 }).
		Subscribe(MakeSubscriber[int](func(v int) { got = append(got, v) }, nil, nil))
	//1.- A request for two elements must produce two matches even though
	// the upstream has to be asked for more than two values.
	sub.Request(NewElementCount(2))
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Fatalf("expected [2 4], got %v", got)
	}
}

func TestFilterIdempotence(t *testing.T) {
	pred := func(v int) bool { return v%2 == 0 }
	once, _, _ := collect(Filter(Range(0, 10), pred), Unbounded())
	twice, _, _ := collect(Filter(Filter(Range(0, 10), pred), pred), Unbounded())
	if len(once) != len(twice) {
		t.Fatalf("filter idempotence violated: %v vs %v", once, twice)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("filter idempotence violated at %d: %v vs %v", i, once, twice)
		}
	}
}

func TestTakeBound(t *testing.T) {
	for _, tc := range []struct {
		n      int
		length int
		want   int
	}{
		{n: 3, length: 10, want: 3},
		{n: 10, length: 3, want: 3},
		{n: 0, length: 5, want: 0},
	} {
		values, completed, err := collect(Take(Range(0, tc.length), tc.n), Unbounded())
		if err != nil || !completed {
			t.Fatalf("take(%d) over %d: completed=%v err=%v", tc.n, tc.length, completed, err)
		}
		if len(values) != tc.want {
			t.Fatalf("take(%d) over %d: expected %d values, got %v", tc.n, tc.length, tc.want, values)
		}
	}
}

func TestTakeCancelsUpstreamOnReachingBound(t *testing.T) {
	cancelled := false
	values, completed, _ := collect(Take(trackCancel(Range(0, 100), &cancelled), 2), Unbounded())
	if len(values) != 2 || !completed || !cancelled {
		t.Fatalf("expected 2 values, completion, and upstream cancel; got %v %v %v", values, completed, cancelled)
	}
}

func TestTakeWhileStopsAtFirstMismatch(t *testing.T) {
	values, completed, err := collect(TakeWhile(From([]int{1, 2, 9, 3}), func(v int) bool { return v < 5 }), Unbounded())
	if err != nil || !completed {
		t.Fatalf("unexpected termination: completed=%v err=%v", completed, err)
	}
	if len(values) != 2 || values[0] != 1 || values[1] != 2 {
		t.Fatalf("expected [1 2], got %v", values)
	}
}

func TestSkipDropsPrefix(t *testing.T) {
	values, completed, _ := collect(Skip(Range(0, 5), 3), Unbounded())
	if !completed || len(values) != 2 || values[0] != 3 || values[1] != 4 {
		t.Fatalf("expected [3 4], got %v completed=%v", values, completed)
	}
}

func TestSkipIsColdAcrossSubscriptions(t *testing.T) {
	pub := Skip(Range(0, 5), 3)
	//1.- Each subscription must drop the prefix afresh; a shared counter
	// would skip nothing the second time.
	for run := 0; run < 2; run++ {
		values, completed, _ := collect(pub, Unbounded())
		if !completed || len(values) != 2 || values[0] != 3 || values[1] != 4 {
			t.Fatalf("run %d: expected [3 4], got %v completed=%v", run, values, completed)
		}
	}
}

func TestFirstEmitsFirstValue(t *testing.T) {
	values, completed, err := collect(First(From([]int{7, 8, 9})), Unbounded())
	if err != nil || !completed || len(values) != 1 || values[0] != 7 {
		t.Fatalf("unexpected result: %v completed=%v err=%v", values, completed, err)
	}
}

func TestFirstOnEmptyFailsOutOfRange(t *testing.T) {
	_, completed, err := collect(First(Empty[int]()), Unbounded())
	if completed || !IsOutOfRange(err) {
		t.Fatalf("expected OutOfRange, got completed=%v err=%v", completed, err)
	}
}

func TestFirstMatchingPicksFirstMatch(t *testing.T) {
	values, _, err := collect(FirstMatching(From([]int{1, 4, 6}), func(v int) bool { return v%2 == 0 }), Unbounded())
	if err != nil || len(values) != 1 || values[0] != 4 {
		t.Fatalf("unexpected result: %v err=%v", values, err)
	}
}

func TestLastEmitsLastValue(t *testing.T) {
	values, completed, err := collect(Last(From([]int{1, 2, 3})), Unbounded())
	if err != nil || !completed || len(values) != 1 || values[0] != 3 {
		t.Fatalf("unexpected result: %v completed=%v err=%v", values, completed, err)
	}
}

func TestLastOnEmptyFailsOutOfRange(t *testing.T) {
	_, completed, err := collect(Last(Empty[int]()), Unbounded())
	if completed || !IsOutOfRange(err) {
		t.Fatalf("expected OutOfRange, got completed=%v err=%v", completed, err)
	}
}

func TestElementAt(t *testing.T) {
	values, _, err := collect(ElementAt(From([]string{"a", "b", "c"}), 1), Unbounded())
	if err != nil || len(values) != 1 || values[0] != "b" {
		t.Fatalf("unexpected result: %v err=%v", values, err)
	}
	_, _, err = collect(ElementAt(From([]string{"a"}), 3), Unbounded())
	if !IsOutOfRange(err) {
		t.Fatalf("expected OutOfRange past the end, got %v", err)
	}
}

func TestElementAtIsColdAcrossSubscriptions(t *testing.T) {
	pub := ElementAt(From([]string{"a", "b", "c"}), 1)
	//1.- The index must be counted afresh per subscription; a shared
	// counter would pick the wrong element on the second run.
	for run := 0; run < 2; run++ {
		values, _, err := collect(pub, Unbounded())
		if err != nil || len(values) != 1 || values[0] != "b" {
			t.Fatalf("run %d: expected [b], got %v err=%v", run, values, err)
		}
	}
}

func TestSomeStopsAtFirstMatch(t *testing.T) {
	cancelled := false
	values, completed, _ := collect(Some(trackCancel(Range(0, 100), &cancelled), func(v int) bool { return v == 3 }), Unbounded())
	if !completed || len(values) != 1 || values[0] != true {
		t.Fatalf("unexpected result: %v completed=%v", values, completed)
	}
	if !cancelled {
		t.Fatalf("expected upstream cancel on first match")
	}
}

func TestSomeWithoutMatchEmitsFalse(t *testing.T) {
	values, completed, _ := collect(Some(Range(0, 3), func(int) bool { return false }), Unbounded())
	if !completed || len(values) != 1 || values[0] != false {
		t.Fatalf("unexpected result: %v completed=%v", values, completed)
	}
}

func TestContains(t *testing.T) {
	eq := func(a, b int) bool { return a == b }
	values, _, _ := collect(Contains(From([]int{1, 2, 3}), 2, eq), Unbounded())
	if len(values) != 1 || values[0] != true {
		t.Fatalf("expected true, got %v", values)
	}
	values, _, _ = collect(Contains(From([]int{1, 2, 3}), 9, eq), Unbounded())
	if len(values) != 1 || values[0] != false {
		t.Fatalf("expected false, got %v", values)
	}
}

func TestReduceFoldsOnComplete(t *testing.T) {
	values, completed, err := collect(Reduce(From([]int{1, 2, 3}), 10, func(acc, v int) int { return acc + v }), NewElementCount(1))
	if err != nil || !completed || len(values) != 1 || values[0] != 16 {
		t.Fatalf("unexpected result: %v completed=%v err=%v", values, completed, err)
	}
}

func TestReduceGetBuildsFreshAccumulatorPerSubscribe(t *testing.T) {
	pub := ReduceGet(From([]int{1, 2}),
		func() []int { return nil },
		func(acc []int, v int) []int { return append(acc, v) })
	first, _, _ := collect(pub, NewElementCount(1))
	second, _, _ := collect(pub, NewElementCount(1))
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one accumulator per run")
	}
	if len(first[0]) != 2 || len(second[0]) != 2 {
		t.Fatalf("accumulator leaked across subscriptions: %v %v", first, second)
	}
}

func TestReduceMultipleEmitsOnPredicateAndAtEnd(t *testing.T) {
	//1.- Emit the accumulator each time it fills up to three elements, and
	// always flush the remainder when upstream completes.
	pub := ReduceMultiple(Range(1, 5),
		func() []int { return nil },
		func(acc []int, v int) []int { return append(acc, v) },
		func(acc []int, v int) bool { return len(acc) == 3 },
	)
	values, completed, err := collect(pub, Unbounded())
	if err != nil || !completed {
		t.Fatalf("unexpected termination: completed=%v err=%v", completed, err)
	}
	if len(values) != 2 || len(values[0]) != 3 || len(values[1]) != 2 {
		t.Fatalf("expected chunks of 3 then 2, got %v", values)
	}
}

func TestIfEmptyPassesThroughNonEmpty(t *testing.T) {
	values, completed, _ := collect(IfEmpty(From([]int{1}), From([]int{9})), Unbounded())
	if !completed || len(values) != 1 || values[0] != 1 {
		t.Fatalf("unexpected result: %v completed=%v", values, completed)
	}
}

func TestIfEmptySwitchesToFallback(t *testing.T) {
	values, completed, _ := collect(IfEmpty(Empty[int](), From([]int{9, 10})), Unbounded())
	if !completed || len(values) != 2 || values[0] != 9 || values[1] != 10 {
		t.Fatalf("unexpected result: %v completed=%v", values, completed)
	}
}

func TestStartWithPrefixes(t *testing.T) {
	values, completed, _ := collect(StartWith(1, 2)(From([]int{3})), Unbounded())
	if !completed || len(values) != 3 || values[0] != 1 || values[1] != 2 || values[2] != 3 {
		t.Fatalf("unexpected result: %v completed=%v", values, completed)
	}
}

func TestAppendAndPrepend(t *testing.T) {
	appended, _, _ := collect(Append(Just(3))(Just(1, 2)), Unbounded())
	if len(appended) != 3 || appended[2] != 3 {
		t.Fatalf("append mismatch: %v", appended)
	}
	prepended, _, _ := collect(Prepend(Just(0))(Just(1, 2)), Unbounded())
	if len(prepended) != 3 || prepended[0] != 0 {
		t.Fatalf("prepend mismatch: %v", prepended)
	}
}

func TestSplat2(t *testing.T) {
	pairs := From([]Pair[int, string]{{First: 1, Second: "a"}, {First: 2, Second: "b"}})
	values, _, _ := collect(Map(pairs, Splat2(func(n int, s string) string {
		return s
	})), Unbounded())
	if len(values) != 2 || values[0] != "a" || values[1] != "b" {
		t.Fatalf("unexpected result: %v", values)
	}
}

func TestSplat3(t *testing.T) {
	got := Splat3(func(a, b, c int) int { return a + b + c })(Triple[int, int, int]{First: 1, Second: 2, Third: 3})
	if got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
}

func TestPipeComposesOperators(t *testing.T) {
	double := func(p Publisher[int]) Publisher[int] { return Map(p, func(v int) int { return v * 2 }) }
	evens := func(p Publisher[int]) Publisher[int] { return Filter(p, func(v int) bool { return v%2 == 0 }) }
	toStr := func(p Publisher[int]) Publisher[string] {
		return Map(p, func(v int) string { return string(rune('a' + v)) })
	}

	values, completed, _ := collect(Pipe3(From([]int{0, 1, 2}), evens, double, toStr), Unbounded())
	if !completed || len(values) != 2 || values[0] != "a" || values[1] != "e" {
		t.Fatalf("unexpected result: %v completed=%v", values, completed)
	}

	composed := BuildPipe2(Operator[int, int](double), Operator[int, int](double))
	quadrupled, _, _ := collect(composed(Just(1)), Unbounded())
	if len(quadrupled) != 1 || quadrupled[0] != 4 {
		t.Fatalf("unexpected result: %v", quadrupled)
	}
}

func TestRequestIsAdditive(t *testing.T) {
	split := From([]int{1, 2, 3})
	whole := From([]int{1, 2, 3})

	var splitGot []int
	splitSub := split.Subscribe(MakeSubscriber[int](func(v int) { splitGot = append(splitGot, v) }, nil, nil))
	splitSub.Request(NewElementCount(1))
	splitSub.Request(NewElementCount(2))

	var wholeGot []int
	wholeSub := whole.Subscribe(MakeSubscriber[int](func(v int) { wholeGot = append(wholeGot, v) }, nil, nil))
	wholeSub.Request(NewElementCount(3))

	if len(splitGot) != len(wholeGot) {
		t.Fatalf("request(1);request(2) != request(3): %v vs %v", splitGot, wholeGot)
	}
}

func TestTerminalSignalIsDeliveredExactlyOnce(t *testing.T) {
	sentinel := errors.New("boom")
	terminals := 0
	pub := Map(Concat(Just(1), Throw[int](sentinel)), func(v int) int { return v })
	sub := pub.Subscribe(MakeSubscriber[int](
		nil,
		func(error) { terminals++ },
		func() { terminals++ },
	))
	sub.Request(Unbounded())
	if terminals != 1 {
		t.Fatalf("expected exactly one terminal signal, got %d", terminals)
	}
}
