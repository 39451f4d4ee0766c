// Package grpcserver exposes the standard gRPC health service so
// orchestrators can probe the salary service the same way they probe the
// other backends.
package grpcserver

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check service name of this process.
const ServiceName = "jobmate.salary.v1.SalaryService"

// Server is a gRPC server carrying the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// New builds a Server. Both the empty (overall) service and ServiceName
// start as NOT_SERVING until SetServing(true).
func New(opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.SetServing(false)
	return s
}

// SetServing flips the reported status of the process.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop marks the service NOT_SERVING, tells watchers, and drains in-flight
// RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
