package handler

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer registers the checkout service next to the standard health
// and reflection services.
func NewGRPCServer(h *GRPCHandler, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	server := grpc.NewServer(opts...)

	RegisterCheckoutServiceServer(server, h)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus(CheckoutServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(server)
	return server
}
