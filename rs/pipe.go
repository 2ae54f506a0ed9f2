package rs

// Operator composes into Pipe/BuildPipe's single-step building block: a
// function from a Publisher of one element type to a Publisher of another
// (possibly the same) element type. Every combinator in this package that
// takes an upstream Publisher and returns one can be partially applied into
// this shape.
type Operator[In, Out any] func(Publisher[In]) Publisher[Out]

// Pipe1 applies a single operator to start, equivalent to op(start) but
// readable at call sites that build up a chain with Pipe2..Pipe4 nearby.
func Pipe1[A, B any](start Publisher[A], op1 Operator[A, B]) Publisher[B] {
	return op1(start)
}

// Pipe2 threads start through op1 then op2.
func Pipe2[A, B, C any](start Publisher[A], op1 Operator[A, B], op2 Operator[B, C]) Publisher[C] {
	return op2(op1(start))
}

// Pipe3 threads start through op1, op2, then op3.
func Pipe3[A, B, C, D any](start Publisher[A], op1 Operator[A, B], op2 Operator[B, C], op3 Operator[C, D]) Publisher[D] {
	return op3(op2(op1(start)))
}

// Pipe4 threads start through op1, op2, op3, then op4.
func Pipe4[A, B, C, D, E any](
	start Publisher[A],
	op1 Operator[A, B],
	op2 Operator[B, C],
	op3 Operator[C, D],
	op4 Operator[D, E],
) Publisher[E] {
	return op4(op3(op2(op1(start))))
}

// BuildPipe2 composes op1 and op2 into a single reusable Operator, for
// call sites that want to name a composed operator once and apply it to
// several Publishers.
func BuildPipe2[A, B, C any](op1 Operator[A, B], op2 Operator[B, C]) Operator[A, C] {
	return func(p Publisher[A]) Publisher[C] { return op2(op1(p)) }
}

// BuildPipe3 composes three operators into one.
func BuildPipe3[A, B, C, D any](op1 Operator[A, B], op2 Operator[B, C], op3 Operator[C, D]) Operator[A, D] {
	return func(p Publisher[A]) Publisher[D] { return op3(op2(op1(p))) }
}
