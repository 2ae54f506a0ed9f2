package rsgrpc

import (
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"shk.dev/rs/rs"
)

// handleUnaryResponse delivers the terminal outcome of a call that produces
// exactly one response: the unary shape, and the client-streaming shape
// once its write side has closed.
func handleUnaryResponse[Resp any](
	success bool,
	st *grpcstatus.Status,
	response *Resp,
	subscriber rs.Subscriber[*Resp],
) {
	if !success {
		// The runloop is shutting down. Not an error, but no more signals
		// will be delivered on this subscription.
		return
	}
	if st.Code() == codes.OK {
		subscriber.OnNext(response)
		subscriber.OnComplete()
	} else {
		subscriber.OnError(ErrorFromStatus(st))
	}
}
