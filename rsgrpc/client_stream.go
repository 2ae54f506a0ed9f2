package rsgrpc

import (
	"context"
	"weak"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"shk.dev/rs/internal/logging"
	"shk.dev/rs/rs"
)

// clientStreamCall drives a stream-of-requests/single-response RPC. The
// response is read only after the write stream has been half-closed.
//
// Writes are serialized through a single-slot enqueue: the next request,
// the pending writes_done, and the pending finish each wait until no other
// operation is outstanding before being posted, so at most one transport
// operation is ever in flight for the call.
type clientStreamCall[Req, Resp any] struct {
	queue      *Queue
	stub       ClientStreamStub[Req, Resp]
	requests   rs.Publisher[*Req]
	opts       []grpc.CallOption
	subscriber rs.Subscriber[*Resp]
	log        *logging.Logger

	ctx      context.Context
	cancelFn context.CancelFunc

	// self is non-nil exactly while a queue operation is outstanding.
	self     *clientStreamCall[Req, Resp]
	weakSelf weak.Pointer[clientStreamCall[Req, Resp]]

	stream   grpc.ClientStreamingClient[Req, Resp]
	upstream rs.Subscription

	started   bool
	cancelled bool

	nextRequest        *Req
	requestErr         error
	enqueuedWritesDone bool
	enqueuedFinish     bool

	openErr  error
	response *Resp
	status   *grpcstatus.Status
}

func newClientStreamCall[Req, Resp any](
	client *ServiceClient,
	ctx context.Context,
	stub ClientStreamStub[Req, Resp],
	requests rs.Publisher[*Req],
	opts []grpc.CallOption,
	subscriber rs.Subscriber[*Resp],
) rs.Subscription {
	callCtx, cancel := context.WithCancel(ctx)
	c := &clientStreamCall[Req, Resp]{
		queue:      client.queue,
		stub:       stub,
		requests:   requests,
		opts:       opts,
		subscriber: subscriber,
		log:        client.log,
		ctx:        callCtx,
		cancelFn:   cancel,
	}
	c.weakSelf = weak.Make(c)
	return c
}

func (c *clientStreamCall[Req, Resp]) Request(n rs.ElementCount) {
	if c.cancelled || c.started || !n.IsPositive() {
		return
	}
	//1.- The single response is delivered regardless of how much demand
	// beyond the first request arrives, so only the first positive request
	// matters: it opens the stream.
	c.started = true
	c.post((*clientStreamCall[Req, Resp]).onOpened, func() bool {
		stream, err := c.stub(c.ctx, c.opts...)
		c.stream, c.openErr = stream, err
		return err == nil
	})
}

func (c *clientStreamCall[Req, Resp]) Cancel() {
	c.cancelled = true
	c.cancelFn()
	if c.upstream != nil {
		c.upstream.Cancel()
	}
}

// OnNext buffers the next outgoing request. The slot holds at most one
// value because one more element is requested from the request publisher
// only when the previous one is posted as a write.
func (c *clientStreamCall[Req, Resp]) OnNext(request *Req) {
	c.nextRequest = request
	c.runEnqueuedOperation()
}

// OnError records the request stream's failure and still half-closes the
// write side so the protocol terminates cleanly; the recorded error is
// delivered instead of the response on final completion.
func (c *clientStreamCall[Req, Resp]) OnError(err error) {
	c.requestErr = err
	c.enqueuedWritesDone = true
	c.runEnqueuedOperation()
}

func (c *clientStreamCall[Req, Resp]) OnComplete() {
	c.enqueuedWritesDone = true
	c.runEnqueuedOperation()
}

func (c *clientStreamCall[Req, Resp]) post(done func(*clientStreamCall[Req, Resp], bool), op func() bool) {
	c.self = c.weakSelf.Value()
	weakSelf := c.weakSelf
	tag := c.queue.Register(func(success bool) {
		if call := weakSelf.Value(); call != nil {
			done(call, success)
		}
	})
	err := c.queue.Go(func() (uint64, bool) {
		return tag, op()
	})
	if err != nil {
		c.self = nil
	}
}

func (c *clientStreamCall[Req, Resp]) operationInProgress() bool {
	return c.self != nil
}

func (c *clientStreamCall[Req, Resp]) runEnqueuedOperation() {
	if c.operationInProgress() || c.cancelled || c.stream == nil {
		return
	}
	switch {
	case c.nextRequest != nil:
		request := c.nextRequest
		c.nextRequest = nil
		c.post((*clientStreamCall[Req, Resp]).onWriteDone, func() bool {
			return c.stream.Send(request) == nil
		})
		c.upstream.Request(rs.NewElementCount(1))
	case c.enqueuedWritesDone:
		c.enqueuedWritesDone = false
		c.enqueuedFinish = true
		c.post((*clientStreamCall[Req, Resp]).onWritesDoneDone, func() bool {
			return c.stream.CloseSend() == nil
		})
	case c.enqueuedFinish:
		c.enqueuedFinish = false
		c.post((*clientStreamCall[Req, Resp]).onFinishDone, func() bool {
			response := new(Resp)
			err := c.stream.RecvMsg(response)
			c.response = response
			if err != nil {
				c.status = grpcstatus.Convert(err)
			} else {
				c.status = grpcstatus.New(codes.OK, "")
			}
			return true
		})
	}
}

func (c *clientStreamCall[Req, Resp]) onOpened(success bool) {
	c.self = nil
	if !success {
		if !c.cancelled {
			c.subscriber.OnError(ErrorFromStatus(grpcstatus.Convert(c.openErr)))
		}
		return
	}
	//1.- The stream exists now; start pulling requests one at a time. The
	// request publisher reaches the call only weakly, so it cannot keep a
	// dropped call alive on its own.
	c.upstream = c.requests.Subscribe(clientStreamUpstream[Req, Resp]{call: c.weakSelf})
	c.upstream.Request(rs.NewElementCount(1))
	c.runEnqueuedOperation()
}

func (c *clientStreamCall[Req, Resp]) onWriteDone(success bool) {
	c.self = nil
	if success {
		c.runEnqueuedOperation()
		return
	}
	if c.cancelled {
		return
	}
	//1.- A failed write means the stream broke underneath the call; the
	// real status is only available from the read side, so skip the
	// half-close and go straight to finish.
	c.nextRequest = nil
	c.enqueuedWritesDone = false
	c.enqueuedFinish = true
	c.runEnqueuedOperation()
}

func (c *clientStreamCall[Req, Resp]) onWritesDoneDone(success bool) {
	c.self = nil
	// Whether or not the half-close went through, finish is already
	// enqueued and resolves the call's real status.
	c.runEnqueuedOperation()
}

func (c *clientStreamCall[Req, Resp]) onFinishDone(success bool) {
	c.log.Debug("client stream finished",
		logging.Bool("success", success),
		logging.String("status", c.status.Code().String()),
		logging.Bool("request_stream_error", c.requestErr != nil))
	if !c.cancelled {
		if c.requestErr != nil {
			c.subscriber.OnError(c.requestErr)
		} else {
			handleUnaryResponse(success, c.status, c.response, c.subscriber)
		}
	}
	c.self = nil
	c.cancelFn()
}

// clientStreamUpstream feeds the request publisher's signals into the write
// loop through the weak handle, so signals arriving after the call has been
// dropped fall on the floor instead of resurrecting it.
type clientStreamUpstream[Req, Resp any] struct {
	call weak.Pointer[clientStreamCall[Req, Resp]]
}

func (s clientStreamUpstream[Req, Resp]) OnNext(request *Req) {
	if c := s.call.Value(); c != nil {
		c.OnNext(request)
	}
}

func (s clientStreamUpstream[Req, Resp]) OnError(err error) {
	if c := s.call.Value(); c != nil {
		c.OnError(err)
	}
}

func (s clientStreamUpstream[Req, Resp]) OnComplete() {
	if c := s.call.Value(); c != nil {
		c.OnComplete()
	}
}
