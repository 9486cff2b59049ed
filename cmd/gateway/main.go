// Command gateway runs the streaming LLM gateway's gRPC server.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"goa.design/clue/log"

	"goa.design/goa-ai/dispatcher"
	"goa.design/goa-ai/providers/anthropic"
	"goa.design/goa-ai/providers/google"
	"goa.design/goa-ai/providers/openai"
	"goa.design/goa-ai/providers/xai"
	transportgrpc "goa.design/goa-ai/transport/grpc"
)

const defaultGRPCPort = "50051"

func main() {
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))

	port := os.Getenv("GRPC_PORT")
	if port == "" {
		port = defaultGRPCPort
	}

	registry := dispatcher.NewRegistry()
	registry.Register("google-native", google.New())
	registry.Register("anthropic", anthropic.New())
	registry.Register("openai", openai.New())
	registry.Register("xai", xai.New())

	srv := transportgrpc.NewServer(dispatcher.New(registry))

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(log.UnaryServerInterceptor(ctx)),
		grpc.ChainStreamInterceptor(log.StreamServerInterceptor(ctx)),
	)
	transportgrpc.RegisterGenerateServer(grpcServer, srv)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", net.JoinHostPort("", port))
	if err != nil {
		log.Fatalf(ctx, err, "failed to listen on port %q", port)
	}

	// The service's SERVING status is set only once the listener is bound,
	// per §6, and before Serve starts accepting health checks.
	healthServer.SetServingStatus(transportgrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	errc := make(chan error, 1)
	go func() {
		log.Print(ctx, log.KV{K: "event", V: "gateway.listening"}, log.KV{K: "port", V: port})
		errc <- grpcServer.Serve(lis)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		log.Fatalf(ctx, err, "gRPC server exited")
	case sig := <-sigc:
		log.Print(ctx, log.KV{K: "event", V: "gateway.shutting_down"}, log.KV{K: "signal", V: fmt.Sprintf("%v", sig)})
		grpcServer.GracefulStop()
	}
}
