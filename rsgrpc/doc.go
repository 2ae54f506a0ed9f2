// Package rsgrpc bridges gRPC client calls into the rs streams algebra.
//
// Each of the four call shapes — unary, server-streaming, client-streaming,
// and bidirectional — is lifted into a cold rs.Publisher of its responses.
// Subscribing allocates a per-call state machine; nothing touches the
// transport until the subscription's first positive request, and reads are
// never posted beyond downstream demand, so gRPC's flow control and the
// streams algebra's backpressure line up one to one.
//
// Blocking transport operations are posted to a Queue, which serializes all
// completion callbacks onto whichever goroutine drives it with ProcessOne
// or ProcessAll. A call object strongly references itself exactly while it
// has an operation outstanding on its queue; a subscriber that drops its
// Subscription between operations therefore lets the whole call be
// reclaimed.
package rsgrpc
