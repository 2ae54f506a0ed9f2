package rsgrpc

import (
	"errors"
	"io"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"shk.dev/rs/rs"
)

// defaultRetryDelay is the backoff hint attached to retryable transport
// failures that carry no RetryInfo of their own.
const defaultRetryDelay = time.Second

// ErrorFromStatus converts a non-OK status into the TransportFailure error
// delivered through on_error. A status whose code is retryable (Unavailable,
// ResourceExhausted, Aborted) and that carries no RetryInfo yet gets an
// errdetails.RetryInfo and an ErrorInfo attached, so callers building a
// Catch-based retry can read the backoff hint straight off the status. Only
// the code is examined: an application answering with one of these codes
// gets the same details as a broken transport.
func ErrorFromStatus(st *grpcstatus.Status) error {
	if st == nil || st.Code() == codes.OK {
		return nil
	}
	if retryableCode(st.Code()) && !hasRetryInfo(st) {
		detailed, err := st.WithDetails(
			&errdetails.RetryInfo{
				RetryDelay: durationpb.New(defaultRetryDelay),
			},
			&errdetails.ErrorInfo{
				Reason: "TRANSPORT_FAILURE",
				Domain: "rsgrpc.shk.dev",
			},
		)
		if err == nil {
			st = detailed
		}
	}
	return &rs.Error{Kind: rs.TransportFailure, Err: st.Err()}
}

// StatusFromError recovers the gRPC status carried by an error produced by
// this package (or by the transport directly). Errors with no status map to
// codes.Unknown, matching grpc-go's own convention.
func StatusFromError(err error) *grpcstatus.Status {
	if err == nil {
		return grpcstatus.New(codes.OK, "")
	}
	var rserr *rs.Error
	if errors.As(err, &rserr) && rserr.Err != nil {
		err = rserr.Err
	}
	return grpcstatus.Convert(err)
}

// statusFromRecvError maps the error returned by a stream Recv into the
// call's final status: nil and io.EOF both mean the stream ended cleanly.
func statusFromRecvError(err error) *grpcstatus.Status {
	if err == nil || errors.Is(err, io.EOF) {
		return grpcstatus.New(codes.OK, "")
	}
	return grpcstatus.Convert(err)
}

func retryableCode(code codes.Code) bool {
	switch code {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

func hasRetryInfo(st *grpcstatus.Status) bool {
	for _, detail := range st.Details() {
		if _, ok := detail.(*errdetails.RetryInfo); ok {
			return true
		}
	}
	return false
}
