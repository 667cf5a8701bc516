// Package handlers exposes the bot over the network: a gRPC server carrying
// the standard health service, and an HTTP server with the transport
// webhook, the operator API, the liveness check and prometheus metrics.
package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/artlix/backend/internal/jobbot/auth"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	WebhookPath  = "/api/telegram/webhook"
	HealthPath   = "/api/health"
	JobsPath     = "/v1/companies/{code}/jobs"
	MetricsPath  = "/metrics"
	shutdownWait = 5 * time.Second
)

// Routes are the HTTP handlers mounted by RegisterHTTPRoutes. Metrics may be nil.
type Routes struct {
	Webhook  http.Handler
	Operator *OperatorHandler
	Metrics  http.Handler
}

type route struct {
	method string
	path   string
	fn     runtime.HandlerFunc
}

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	s := &Server{
		grpcServer:   grpc.NewServer(grpcOpts...),
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		health:       health.NewServer(),
		logger:       logger.Named("server"),
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

// RegisterHTTPRoutes mounts the routes on a gateway mux behind the auth middleware.
func (s *Server) RegisterHTTPRoutes(routes Routes, jwtSecret string) error {
	mux := runtime.NewServeMux()

	handlers := []route{
		{http.MethodPost, WebhookPath, wrap(routes.Webhook)},
		{http.MethodGet, HealthPath, routes.Operator.Health},
		{http.MethodGet, JobsPath, routes.Operator.ListJobs},
	}
	if routes.Metrics != nil {
		handlers = append(handlers, route{http.MethodGet, MetricsPath, wrap(routes.Metrics)})
	}

	for _, h := range handlers {
		if err := mux.HandlePath(h.method, h.path, h.fn); err != nil {
			return fmt.Errorf("failed to register %s %s: %w", h.method, h.path, err)
		}
	}

	s.httpServer.Handler = auth.HTTPMiddleware(mux, jwtSecret)
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

func wrap(h http.Handler) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		h.ServeHTTP(w, r)
	}
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()

	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Servers stopped")
}
