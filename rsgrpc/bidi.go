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

// bidiReaderPhase is the state of a bidi call's read half.
type bidiReaderPhase int

const (
	brAwaitingRequest bidiReaderPhase = iota
	brReadingResponse
	brEnd
)

func (p bidiReaderPhase) String() string {
	switch p {
	case brAwaitingRequest:
		return "awaiting_request"
	case brReadingResponse:
		return "reading_response"
	case brEnd:
		return "end"
	default:
		return "unknown"
	}
}

// bidiCall drives a bidirectional streaming RPC. The write half mirrors the
// client-streaming write loop; the read half mirrors the server-streaming
// read loop; each posts its operations under its own tags so the two can be
// in flight simultaneously. Nothing terminal is delivered downstream until
// both halves have finished — only then is it known whether the call as a
// whole failed.
type bidiCall[Req, Resp any] struct {
	queue      *Queue
	stub       BidiStreamStub[Req, Resp]
	requests   rs.Publisher[*Req]
	opts       []grpc.CallOption
	subscriber rs.Subscriber[*Resp]
	log        *logging.Logger

	ctx      context.Context
	cancelFn context.CancelFunc

	// self is non-nil exactly while at least one queue operation is
	// outstanding; ops counts them across both halves.
	self     *bidiCall[Req, Resp]
	weakSelf weak.Pointer[bidiCall[Req, Resp]]
	ops      int

	stream   grpc.BidiStreamingClient[Req, Resp]
	upstream rs.Subscription

	started   bool
	cancelled bool
	openErr   error

	// Demand that arrives between the opening request and the open
	// completion; folded into the read half once the stream exists.
	pendingDemand rs.ElementCount

	// Write half.
	writerBusy         bool
	nextRequest        *Req
	enqueuedWritesDone bool
	enqueuedFinish     bool
	writerDone         bool

	// Read half.
	readerPhase bidiReaderPhase
	requested   rs.ElementCount
	response    *Resp
	recvErr     error
	readerDone  bool

	requestErr error
	status     *grpcstatus.Status
}

func newBidiCall[Req, Resp any](
	client *ServiceClient,
	ctx context.Context,
	stub BidiStreamStub[Req, Resp],
	requests rs.Publisher[*Req],
	opts []grpc.CallOption,
	subscriber rs.Subscriber[*Resp],
) rs.Subscription {
	callCtx, cancel := context.WithCancel(ctx)
	c := &bidiCall[Req, Resp]{
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

func (c *bidiCall[Req, Resp]) Request(n rs.ElementCount) {
	if c.cancelled {
		return
	}
	if !c.started {
		if !n.IsPositive() {
			return
		}
		c.started = true
		c.pendingDemand, _ = c.pendingDemand.Add(n)
		c.post((*bidiCall[Req, Resp]).onOpened, func() bool {
			stream, err := c.stub(c.ctx, c.opts...)
			c.stream, c.openErr = stream, err
			return err == nil
		})
		return
	}
	if c.stream == nil {
		// Open still in flight; fold the demand in once it lands.
		c.pendingDemand, _ = c.pendingDemand.Add(n)
		return
	}
	c.readerRequest(n)
}

func (c *bidiCall[Req, Resp]) Cancel() {
	c.cancelled = true
	c.cancelFn()
	if c.upstream != nil {
		c.upstream.Cancel()
	}
}

// OnNext, OnError, and OnComplete receive the outgoing request stream.
func (c *bidiCall[Req, Resp]) OnNext(request *Req) {
	c.nextRequest = request
	c.runEnqueuedOperation()
}

func (c *bidiCall[Req, Resp]) OnError(err error) {
	// Recorded rather than delivered: the reader stops at its next
	// completion and the error surfaces once both halves are done.
	c.requestErr = err
	c.enqueuedWritesDone = true
	c.runEnqueuedOperation()
}

func (c *bidiCall[Req, Resp]) OnComplete() {
	c.enqueuedWritesDone = true
	c.runEnqueuedOperation()
}

func (c *bidiCall[Req, Resp]) retain() {
	c.ops++
	c.self = c.weakSelf.Value()
}

func (c *bidiCall[Req, Resp]) release() {
	c.ops--
	if c.ops == 0 {
		c.self = nil
	}
}

func (c *bidiCall[Req, Resp]) post(done func(*bidiCall[Req, Resp], bool), op func() bool) {
	c.retain()
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
		c.release()
	}
}

func (c *bidiCall[Req, Resp]) onOpened(success bool) {
	c.release()
	if !success {
		if !c.cancelled {
			c.subscriber.OnError(ErrorFromStatus(grpcstatus.Convert(c.openErr)))
		}
		c.readerDone = true
		c.writerDone = true
		c.readerPhase = brEnd
		return
	}
	//1.- Route buffered demand into the read half now that reads can be
	// posted.
	demand := c.pendingDemand
	c.pendingDemand = rs.NewElementCount(0)
	c.readerRequest(demand)
	//2.- Start pulling outgoing requests one at a time, through the weak
	// handle so the request publisher cannot keep a dropped call alive.
	c.upstream = c.requests.Subscribe(bidiUpstream[Req, Resp]{call: c.weakSelf})
	c.upstream.Request(rs.NewElementCount(1))
	c.runEnqueuedOperation()
}

// readerRequest adds demand to the read half and posts a read when the half
// is idle, exactly the server-streaming maybe-read step.
func (c *bidiCall[Req, Resp]) readerRequest(n rs.ElementCount) {
	c.requested, _ = c.requested.Add(n)
	if c.readerPhase != brAwaitingRequest || !c.requested.IsPositive() {
		return
	}
	c.requested, _ = c.requested.Sub(rs.NewElementCount(1))
	c.readerPhase = brReadingResponse
	c.post((*bidiCall[Req, Resp]).onReadDone, func() bool {
		response, err := c.stream.Recv()
		c.response, c.recvErr = response, err
		return err == nil
	})
}

func (c *bidiCall[Req, Resp]) onReadDone(success bool) {
	c.release()
	c.log.Debug("bidi read event",
		logging.String("reader_phase", c.readerPhase.String()),
		logging.Bool("success", success))
	if !success || c.requestErr != nil || c.cancelled {
		//1.- End of the read stream, an upstream failure that must win, or
		// a cancelled call: stop reading and resolve this half's status.
		c.readerPhase = brEnd
		c.status = statusFromRecvError(c.recvErr)
		c.readerDone = true
		c.tryShutdown()
		return
	}
	c.subscriber.OnNext(c.response)
	c.readerPhase = brAwaitingRequest
	c.readerRequest(rs.NewElementCount(0))
}

func (c *bidiCall[Req, Resp]) runEnqueuedOperation() {
	if c.writerBusy || c.cancelled || c.stream == nil {
		return
	}
	switch {
	case c.nextRequest != nil:
		request := c.nextRequest
		c.nextRequest = nil
		c.writerBusy = true
		c.post((*bidiCall[Req, Resp]).onWriteDone, func() bool {
			return c.stream.Send(request) == nil
		})
		c.upstream.Request(rs.NewElementCount(1))
	case c.enqueuedWritesDone:
		c.enqueuedWritesDone = false
		c.enqueuedFinish = true
		c.writerBusy = true
		c.post((*bidiCall[Req, Resp]).onWritesDoneDone, func() bool {
			return c.stream.CloseSend() == nil
		})
	case c.enqueuedFinish:
		//1.- The write half has nothing left to send; its final event just
		// marks the half finished. The call's status belongs to the read
		// half, which observes it from the stream's end.
		c.enqueuedFinish = false
		c.writerBusy = true
		c.post((*bidiCall[Req, Resp]).onFinishDone, func() bool { return true })
	}
}

func (c *bidiCall[Req, Resp]) onWriteDone(success bool) {
	c.writerBusy = false
	c.release()
	if success {
		c.runEnqueuedOperation()
		return
	}
	//1.- A failed write means the stream broke; the read half surfaces the
	// status. This half is done.
	c.writerDone = true
	c.tryShutdown()
}

func (c *bidiCall[Req, Resp]) onWritesDoneDone(success bool) {
	c.writerBusy = false
	c.release()
	c.runEnqueuedOperation()
}

func (c *bidiCall[Req, Resp]) onFinishDone(success bool) {
	c.writerBusy = false
	c.release()
	c.writerDone = true
	c.tryShutdown()
}

// tryShutdown delivers the call's terminal signal once both halves have
// finished, then drops any remaining self-reference.
func (c *bidiCall[Req, Resp]) tryShutdown() {
	if !c.writerDone || !c.readerDone {
		return
	}
	c.log.Debug("bidi call shutting down",
		logging.Bool("cancelled", c.cancelled),
		logging.Bool("request_stream_error", c.requestErr != nil))
	if !c.cancelled {
		switch {
		case c.status != nil && c.status.Code() != codes.OK:
			c.subscriber.OnError(ErrorFromStatus(c.status))
		case c.requestErr != nil:
			c.subscriber.OnError(c.requestErr)
		default:
			c.subscriber.OnComplete()
		}
	}
	c.self = nil
	c.cancelFn()
}

// bidiUpstream feeds the outgoing request stream into the write half.
type bidiUpstream[Req, Resp any] struct {
	call weak.Pointer[bidiCall[Req, Resp]]
}

func (s bidiUpstream[Req, Resp]) OnNext(request *Req) {
	if c := s.call.Value(); c != nil {
		c.OnNext(request)
	}
}

func (s bidiUpstream[Req, Resp]) OnError(err error) {
	if c := s.call.Value(); c != nil {
		c.OnError(err)
	}
}

func (s bidiUpstream[Req, Resp]) OnComplete() {
	if c := s.call.Value(); c != nil {
		c.OnComplete()
	}
}
