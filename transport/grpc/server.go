package grpc

import (
	"github.com/google/uuid"
	grpclib "google.golang.org/grpc"

	"goa.design/clue/log"

	"goa.design/goa-ai/dispatcher"
	"goa.design/goa-ai/model"
)

// Server implements GenerateHandler, translating a single streamed Generate
// RPC into a dispatcher.Dispatch call and writing each emitted delta back to
// the client as its own stream message.
type Server struct {
	Dispatcher *dispatcher.Dispatcher
}

// NewServer returns a Server backed by d.
func NewServer(d *dispatcher.Dispatcher) *Server {
	return &Server{Dispatcher: d}
}

// Generate implements GenerateHandler. A fresh 8-character request id is
// generated for every call and threaded through every log line, mirroring
// the upstream Python service's request_id = str(uuid.uuid4())[:8].
func (s *Server) Generate(req *GenerateRequest, stream grpclib.ServerStream) error {
	ctx := stream.Context()
	requestID := uuid.NewString()[:8]
	ctx = log.With(ctx, log.KV{K: "request_id", V: requestID})

	backend := req.Request.Selector.Backend
	if backend == "" {
		backend = dispatcher.DefaultBackend
	}
	log.Print(ctx, log.KV{K: "event", V: "generate.start"}, log.KV{K: "backend", V: backend}, log.KV{K: "model", V: req.Request.Selector.Model})

	err := s.Dispatcher.Dispatch(ctx, req.Request, func(delta model.Delta) error {
		switch {
		case delta.Type == model.DeltaError:
			log.Error(ctx, nil, log.KV{K: "event", V: "generate.error"}, log.KV{K: "code", V: string(delta.Err.Code)})
		case delta.Final:
			log.Print(ctx, log.KV{K: "event", V: "generate.complete"})
		default:
			log.Debug(ctx, log.KV{K: "event", V: "generate.delta"}, log.KV{K: "type", V: string(delta.Type)})
		}
		return stream.SendMsg(&GenerateResponse{Delta: delta})
	})
	if err != nil {
		log.Error(ctx, err, log.KV{K: "event", V: "generate.transport_error"})
	}
	return err
}
