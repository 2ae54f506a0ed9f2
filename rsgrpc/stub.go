package rsgrpc

import (
	"context"

	"google.golang.org/grpc"
)

// The stub types below are shaped to match exactly what protoc-gen-go-grpc
// emits for a client method of each call shape, so a generated client's
// method value can be passed to the Invoke functions without an adapter
// shim.

// UnaryStub is a unary client method: one request in, one response out.
type UnaryStub[Req, Resp any] func(ctx context.Context, in *Req, opts ...grpc.CallOption) (*Resp, error)

// ServerStreamStub is a server-streaming client method: one request in, a
// stream of responses out.
type ServerStreamStub[Req, Resp any] func(ctx context.Context, in *Req, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Resp], error)

// ClientStreamStub is a client-streaming client method: a stream of
// requests in, one response out once the request stream is half-closed.
type ClientStreamStub[Req, Resp any] func(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[Req, Resp], error)

// BidiStreamStub is a bidirectional-streaming client method: requests and
// responses flow independently over the same call.
type BidiStreamStub[Req, Resp any] func(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[Req, Resp], error)
