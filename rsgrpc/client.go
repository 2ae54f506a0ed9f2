package rsgrpc

import (
	"context"

	"google.golang.org/grpc"

	"shk.dev/rs/internal/logging"
	"shk.dev/rs/rs"
)

// ServiceClient is the per-service RPC surface: it owns a reference to the
// completion queue all of its calls are driven by, plus the logger their
// state machines report through. The stub itself is passed per-invocation
// as a method value, so one ServiceClient serves every method of a
// generated client.
type ServiceClient struct {
	queue *Queue
	log   *logging.Logger
}

// ClientOption configures a ServiceClient at construction time.
type ClientOption func(*ServiceClient)

// WithLogger routes the call state machines' reporting through log.
func WithLogger(log *logging.Logger) ClientOption {
	return func(c *ServiceClient) {
		if log != nil {
			c.log = log
		}
	}
}

// NewServiceClient builds a ServiceClient whose calls are posted to queue.
func NewServiceClient(queue *Queue, opts ...ClientOption) *ServiceClient {
	c := &ServiceClient{queue: queue, log: logging.L()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Queue returns the completion queue this client posts to; the caller is
// responsible for driving it with ProcessOne/ProcessAll.
func (c *ServiceClient) Queue() *Queue {
	return c.queue
}

// InvokeUnary lifts a unary client method into a cold Publisher of its one
// response. Each Subscribe allocates a fresh call; nothing touches the
// transport until the subscription's first positive request.
func InvokeUnary[Req, Resp any](
	client *ServiceClient,
	ctx context.Context,
	stub UnaryStub[Req, Resp],
	request *Req,
	opts ...grpc.CallOption,
) rs.Publisher[*Resp] {
	return rs.MakePublisher(func(subscriber rs.Subscriber[*Resp]) rs.Subscription {
		return newUnaryCall(client, ctx, stub, request, opts, subscriber)
	})
}

// InvokeServerStream lifts a server-streaming client method into a cold
// Publisher of its responses. Reads are posted one at a time and only while
// downstream demand remains.
func InvokeServerStream[Req, Resp any](
	client *ServiceClient,
	ctx context.Context,
	stub ServerStreamStub[Req, Resp],
	request *Req,
	opts ...grpc.CallOption,
) rs.Publisher[*Resp] {
	return rs.MakePublisher(func(subscriber rs.Subscriber[*Resp]) rs.Subscription {
		return newServerStreamCall(client, ctx, stub, request, opts, subscriber)
	})
}

// InvokeClientStream lifts a client-streaming method into a cold Publisher
// of its single response; requests supplies the outgoing stream and is
// pulled one element at a time as writes complete.
func InvokeClientStream[Req, Resp any](
	client *ServiceClient,
	ctx context.Context,
	stub ClientStreamStub[Req, Resp],
	requests rs.Publisher[*Req],
	opts ...grpc.CallOption,
) rs.Publisher[*Resp] {
	return rs.MakePublisher(func(subscriber rs.Subscriber[*Resp]) rs.Subscription {
		return newClientStreamCall(client, ctx, stub, requests, opts, subscriber)
	})
}

// InvokeBidi lifts a bidirectional-streaming method into a cold Publisher
// of its responses; requests supplies the outgoing stream.
func InvokeBidi[Req, Resp any](
	client *ServiceClient,
	ctx context.Context,
	stub BidiStreamStub[Req, Resp],
	requests rs.Publisher[*Req],
	opts ...grpc.CallOption,
) rs.Publisher[*Resp] {
	return rs.MakePublisher(func(subscriber rs.Subscriber[*Resp]) rs.Subscription {
		return newBidiCall(client, ctx, stub, requests, opts, subscriber)
	})
}
