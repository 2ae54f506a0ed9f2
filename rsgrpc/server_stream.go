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

// serverStreamPhase is the per-call state of a server-streaming invocation.
type serverStreamPhase int

const (
	ssInit serverStreamPhase = iota
	ssAwaitingRequest
	ssReadingResponse
	ssFinishing
	ssEnd
)

func (p serverStreamPhase) String() string {
	switch p {
	case ssInit:
		return "init"
	case ssAwaitingRequest:
		return "awaiting_request"
	case ssReadingResponse:
		return "reading_response"
	case ssFinishing:
		return "finishing"
	case ssEnd:
		return "end"
	default:
		return "unknown"
	}
}

// serverStreamCall drives a request/stream-of-responses RPC. requested
// tracks how many elements downstream has asked for that have not yet been
// read from the transport; reads are only posted while it is positive, so
// the transport is never asked to produce more than downstream will accept.
type serverStreamCall[Req, Resp any] struct {
	queue      *Queue
	stub       ServerStreamStub[Req, Resp]
	request    *Req
	opts       []grpc.CallOption
	subscriber rs.Subscriber[*Resp]
	log        *logging.Logger

	ctx      context.Context
	cancelFn context.CancelFunc

	// self is non-nil exactly while a queue operation is outstanding. In
	// the awaiting_request phase it must be nil: if downstream drops its
	// Subscription while no read is posted, nothing else references the
	// call and the collector may reclaim it.
	self     *serverStreamCall[Req, Resp]
	weakSelf weak.Pointer[serverStreamCall[Req, Resp]]

	phase     serverStreamPhase
	requested rs.ElementCount
	started   bool
	cancelled bool

	stream   grpc.ServerStreamingClient[Resp]
	openErr  error
	response *Resp
	recvErr  error
}

func newServerStreamCall[Req, Resp any](
	client *ServiceClient,
	ctx context.Context,
	stub ServerStreamStub[Req, Resp],
	request *Req,
	opts []grpc.CallOption,
	subscriber rs.Subscriber[*Resp],
) rs.Subscription {
	callCtx, cancel := context.WithCancel(ctx)
	c := &serverStreamCall[Req, Resp]{
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

func (c *serverStreamCall[Req, Resp]) Request(n rs.ElementCount) {
	if c.cancelled {
		return
	}
	if !c.started {
		if !n.IsPositive() {
			return
		}
		//1.- Remember the initial demand and open the stream; reads start
		// once the open completes.
		c.started = true
		c.requested, _ = c.requested.Add(n)
		c.post(func() bool {
			stream, err := c.stub(c.ctx, c.request, c.opts...)
			c.stream, c.openErr = stream, err
			return err == nil
		})
		return
	}
	c.requested, _ = c.requested.Add(n)
	if c.phase == ssAwaitingRequest {
		c.maybeReadNext()
	}
}

func (c *serverStreamCall[Req, Resp]) Cancel() {
	c.cancelled = true
	c.cancelFn()
}

// post retains self, registers a tag routed back into onEvent, and launches
// op; op returns the completion's success flag.
func (c *serverStreamCall[Req, Resp]) post(op func() bool) {
	c.self = c.weakSelf.Value()
	weakSelf := c.weakSelf
	tag := c.queue.Register(func(success bool) {
		if call := weakSelf.Value(); call != nil {
			call.onEvent(success)
		}
	})
	err := c.queue.Go(func() (uint64, bool) {
		return tag, op()
	})
	if err != nil {
		c.phase = ssEnd
		c.self = nil
	}
}

func (c *serverStreamCall[Req, Resp]) onEvent(success bool) {
	c.log.Debug("server stream event",
		logging.String("phase", c.phase.String()),
		logging.Bool("success", success))
	switch c.phase {
	case ssInit:
		if !success {
			if !c.cancelled {
				c.subscriber.OnError(ErrorFromStatus(grpcstatus.Convert(c.openErr)))
			}
			c.finish()
			return
		}
		c.maybeReadNext()
	case ssReadingResponse:
		if c.cancelled {
			c.finish()
			return
		}
		if !success {
			//1.- The read side ended; one more event resolves the final
			// status on the runloop before anything terminal is delivered.
			c.phase = ssFinishing
			c.post(func() bool { return true })
			return
		}
		c.subscriber.OnNext(c.response)
		c.maybeReadNext()
	case ssFinishing:
		st := statusFromRecvError(c.recvErr)
		if !c.cancelled {
			if st.Code() == codes.OK {
				c.subscriber.OnComplete()
			} else {
				c.subscriber.OnError(ErrorFromStatus(st))
			}
		}
		c.finish()
	case ssAwaitingRequest, ssEnd:
		// No operation of ours is outstanding in these phases; the event
		// belongs to a misbehaving transport and there is nothing safe to
		// invoke.
		c.log.Warn("unexpected completion event",
			logging.String("phase", c.phase.String()))
	}
}

// maybeReadNext posts the next read if downstream demand remains, otherwise
// parks in awaiting_request with the self-reference dropped.
func (c *serverStreamCall[Req, Resp]) maybeReadNext() {
	if c.cancelled {
		c.finish()
		return
	}
	if c.requested.IsPositive() {
		c.requested, _ = c.requested.Sub(rs.NewElementCount(1))
		c.phase = ssReadingResponse
		c.post(func() bool {
			response, err := c.stream.Recv()
			c.response, c.recvErr = response, err
			return err == nil
		})
		return
	}
	c.phase = ssAwaitingRequest
	c.self = nil
}

func (c *serverStreamCall[Req, Resp]) finish() {
	c.phase = ssEnd
	c.self = nil
	c.cancelFn()
}
