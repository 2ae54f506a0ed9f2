package rstest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc/metadata"
)

// clientStreamBase supplies the grpc.ClientStream surface the fake streams
// share. Header/trailer metadata and raw message plumbing are inert; the
// typed Send/Recv/RecvMsg methods on each fake carry the scripted behavior.
type clientStreamBase struct{}

func (clientStreamBase) Header() (metadata.MD, error) { return metadata.MD{}, nil }
func (clientStreamBase) Trailer() metadata.MD         { return metadata.MD{} }
func (clientStreamBase) CloseSend() error             { return nil }
func (clientStreamBase) Context() context.Context     { return context.Background() }
func (clientStreamBase) SendMsg(m any) error          { return nil }
func (clientStreamBase) RecvMsg(m any) error          { return io.EOF }

// ServerStream is a scripted grpc.ServerStreamingClient: Recv yields the
// configured responses in order, then FinalErr, or io.EOF if FinalErr is
// nil (a clean end of stream).
type ServerStream[Resp any] struct {
	clientStreamBase
	mu        sync.Mutex
	responses []*Resp
	finalErr  error
}

// NewServerStream scripts a server-streaming read side.
func NewServerStream[Resp any](finalErr error, responses ...*Resp) *ServerStream[Resp] {
	return &ServerStream[Resp]{responses: responses, finalErr: finalErr}
}

func (s *ServerStream[Resp]) Recv() (*Resp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.responses) > 0 {
		response := s.responses[0]
		s.responses = s.responses[1:]
		return response, nil
	}
	if s.finalErr != nil {
		return nil, s.finalErr
	}
	return nil, io.EOF
}

// ClientStream is a scripted grpc.ClientStreamingClient: it records what
// was sent and answers the final RecvMsg with the configured response or
// FinalErr.
type ClientStream[Req, Resp any] struct {
	clientStreamBase
	mu       sync.Mutex
	sent     []*Req
	closed   bool
	sendErr  error
	response *Resp
	finalErr error
}

// NewClientStream scripts a client-streaming call that answers with
// response once the write side closes, or fails with finalErr if non-nil.
func NewClientStream[Req, Resp any](response *Resp, finalErr error) *ClientStream[Req, Resp] {
	return &ClientStream[Req, Resp]{response: response, finalErr: finalErr}
}

// FailSendsWith makes every subsequent Send return err.
func (s *ClientStream[Req, Resp]) FailSendsWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

func (s *ClientStream[Req, Resp]) Send(request *Req) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	if s.closed {
		return fmt.Errorf("rstest: Send after CloseSend")
	}
	s.sent = append(s.sent, request)
	return nil
}

func (s *ClientStream[Req, Resp]) CloseSend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *ClientStream[Req, Resp]) CloseAndRecv() (*Resp, error) {
	if err := s.CloseSend(); err != nil {
		return nil, err
	}
	response := new(Resp)
	if err := s.RecvMsg(response); err != nil {
		return nil, err
	}
	return response, nil
}

func (s *ClientStream[Req, Resp]) RecvMsg(m any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalErr != nil {
		return s.finalErr
	}
	out, ok := m.(*Resp)
	if !ok {
		return fmt.Errorf("rstest: RecvMsg got %T", m)
	}
	if s.response == nil {
		return io.EOF
	}
	*out = *s.response
	return nil
}

// Sent returns a copy of the requests written so far.
func (s *ClientStream[Req, Resp]) Sent() []*Req {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Req, len(s.sent))
	copy(out, s.sent)
	return out
}

// Closed reports whether the write side has been half-closed.
func (s *ClientStream[Req, Resp]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// BidiStream is a scripted grpc.BidiStreamingClient combining the recorded
// write side of ClientStream with the scripted read side of ServerStream.
type BidiStream[Req, Resp any] struct {
	clientStreamBase
	mu        sync.Mutex
	sent      []*Req
	closed    bool
	sendErr   error
	responses []*Resp
	finalErr  error
}

// NewBidiStream scripts a bidi call's read side; writes are recorded.
func NewBidiStream[Req, Resp any](finalErr error, responses ...*Resp) *BidiStream[Req, Resp] {
	return &BidiStream[Req, Resp]{responses: responses, finalErr: finalErr}
}

// FailSendsWith makes every subsequent Send return err.
func (s *BidiStream[Req, Resp]) FailSendsWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

func (s *BidiStream[Req, Resp]) Send(request *Req) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	if s.closed {
		return fmt.Errorf("rstest: Send after CloseSend")
	}
	s.sent = append(s.sent, request)
	return nil
}

func (s *BidiStream[Req, Resp]) CloseSend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *BidiStream[Req, Resp]) Recv() (*Resp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.responses) > 0 {
		response := s.responses[0]
		s.responses = s.responses[1:]
		return response, nil
	}
	if s.finalErr != nil {
		return nil, s.finalErr
	}
	return nil, io.EOF
}

// Sent returns a copy of the requests written so far.
func (s *BidiStream[Req, Resp]) Sent() []*Req {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Req, len(s.sent))
	copy(out, s.sent)
	return out
}

// Closed reports whether the write side has been half-closed.
func (s *BidiStream[Req, Resp]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
