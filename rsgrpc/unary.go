package rsgrpc

import (
	"context"
	"weak"

	"google.golang.org/grpc"
	grpcstatus "google.golang.org/grpc/status"

	"shk.dev/rs/internal/logging"
	"shk.dev/rs/rs"
)

// unaryCall drives a single request/response RPC. On the first positive
// request it posts the blocking stub call to the queue; the completion
// event delivers on_next(response)+on_complete or on_error(status).
type unaryCall[Req, Resp any] struct {
	queue      *Queue
	stub       UnaryStub[Req, Resp]
	request    *Req
	opts       []grpc.CallOption
	subscriber rs.Subscriber[*Resp]
	log        *logging.Logger

	ctx      context.Context
	cancelFn context.CancelFunc

	// self is non-nil exactly while the stub call is outstanding on the
	// queue. The queue's tag callback reaches the object only through
	// weakSelf, so this strong slot (or the downstream Subscription) is
	// what keeps the call reachable mid-flight.
	self     *unaryCall[Req, Resp]
	weakSelf weak.Pointer[unaryCall[Req, Resp]]

	started   bool
	cancelled bool

	response *Resp
	status   *grpcstatus.Status
}

func newUnaryCall[Req, Resp any](
	client *ServiceClient,
	ctx context.Context,
	stub UnaryStub[Req, Resp],
	request *Req,
	opts []grpc.CallOption,
	subscriber rs.Subscriber[*Resp],
) rs.Subscription {
	callCtx, cancel := context.WithCancel(ctx)
	c := &unaryCall[Req, Resp]{
		queue:      client.queue,
		stub:       stub,
		request:    request,
		opts:       opts,
		subscriber: subscriber,
		log:        client.log,
		ctx:        callCtx,
		cancelFn:   cancel,
	}
	c.weakSelf = weak.Make(c)
	return c
}

func (c *unaryCall[Req, Resp]) Request(n rs.ElementCount) {
	if c.cancelled || c.started || !n.IsPositive() {
		return
	}
	c.started = true
	c.self = c.weakSelf.Value()
	// The tag callback reaches the call only through the weak handle; a
	// call that dropped its self-reference is left unreferenced.
	weakSelf := c.weakSelf
	tag := c.queue.Register(func(success bool) {
		if call := weakSelf.Value(); call != nil {
			call.onDone(success)
		}
	})
	err := c.queue.Go(func() (uint64, bool) {
		response, callErr := c.stub(c.ctx, c.request, c.opts...)
		c.response = response
		c.status = grpcstatus.Convert(callErr)
		return tag, true
	})
	if err != nil {
		// The queue is already shut down; mirror the runloop-shutdown
		// completion and deliver nothing.
		c.self = nil
	}
}

func (c *unaryCall[Req, Resp]) Cancel() {
	c.cancelled = true
	c.cancelFn()
}

func (c *unaryCall[Req, Resp]) onDone(success bool) {
	c.log.Debug("unary call completed",
		logging.Bool("success", success),
		logging.String("status", c.status.Code().String()))
	if !c.cancelled {
		handleUnaryResponse(success, c.status, c.response, c.subscriber)
	}
	c.self = nil
	c.cancelFn()
}
