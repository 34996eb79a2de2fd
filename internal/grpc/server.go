// Package grpc serves the analytics API over gRPC, alongside the standard health service.
package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/services"
	"github.com/aerolens/aerolens/internal/utils"
)

const maxMessageSize = 1024 * 1024 * 10 // 10MB

// Server represents the analytics gRPC server
type Server struct {
	address    string
	grpcServer *grpc.Server
	health     *health.Server
	logger     *logging.Logger
	handler    *AnalyticsHandler
}

// NewServer creates a new gRPC server instance
func NewServer(address string, logger *logging.Logger, analytics *services.AnalyticsService) *Server {
	s := &Server{
		address: address,
		logger:  logger.With("component", "grpc"),
		handler: NewAnalyticsHandler(analytics),
		health:  health.NewServer(),
	}

	s.grpcServer = grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMessageSize),
		grpc.MaxSendMsgSize(maxMessageSize),
		grpc.ChainUnaryInterceptor(s.timeoutInterceptor, s.loggingInterceptor),
	)
	s.grpcServer.RegisterService(&ServiceDesc, s.handler)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// Start listens on the configured address and serves until ctx is canceled
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.logger.Info("gRPC server starting", "address", s.address)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down gRPC server")
		s.Stop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Serve serves on an existing listener
func (s *Server) Serve(listener net.Listener) error {
	if err := s.grpcServer.Serve(listener); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop marks the service not serving and stops gracefully
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// timeoutInterceptor bounds calls that arrive without a deadline
func (s *Server) timeoutInterceptor(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, utils.GRPCRequestTimeout)
		defer cancel()
	}
	return handler(ctx, req)
}

func (s *Server) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	fields := []interface{}{
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		s.logger.Warn("gRPC call failed", append(fields, "error", err)...)
	} else {
		s.logger.Debug("gRPC call completed", fields...)
	}
	return resp, err
}
