package grpc

import (
	"google.golang.org/grpc"

	"goa.design/goa-ai/model"
)

// GenerateRequest is the wire payload for the Generate RPC.
type GenerateRequest struct {
	Request model.Request `json:"request"`
}

// GenerateResponse is one server-streamed message of the Generate RPC. Each
// message carries exactly one model.Delta; the stream ends after the delta
// with Final set to true is sent.
type GenerateResponse struct {
	Delta model.Delta `json:"delta"`
}

// GenerateHandler is implemented by the gateway's Server and invoked once per
// RPC, with full control over reading the single request message and writing
// the response stream.
type GenerateHandler interface {
	Generate(req *GenerateRequest, stream grpc.ServerStream) error
}

func generateHandler(srv any, stream grpc.ServerStream) error {
	req := new(GenerateRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(GenerateHandler).Generate(req, stream)
}

// ServiceName is the gRPC service name advertised in reflection and in the
// health service's per-service status.
const ServiceName = "goa.ai.llmgateway.v1.LLMGateway"

// serviceDesc is hand-registered because the service has no .proto source;
// it mirrors the shape grpc-go's protoc-gen-go-grpc would produce for a
// service with one server-streaming method.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GenerateHandler)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Generate",
			Handler:       generateHandler,
			ServerStreams: true,
		},
	},
	Metadata: "llmgateway.proto",
}

// RegisterGenerateServer registers srv's Generate method on s using the
// hand-built service descriptor above.
func RegisterGenerateServer(s *grpc.Server, srv GenerateHandler) {
	s.RegisterService(&serviceDesc, srv)
}
