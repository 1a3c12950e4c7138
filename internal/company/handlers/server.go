// Package handlers provides gRPC and HTTP server implementations for
// serving the RiskService, bridging the transport layer and the analysis
// service, translating between Struct messages and domain models.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gartstein/companyrisk/internal/company/auth"
	"github.com/gartstein/companyrisk/internal/company/controller"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// AnalysisController defines the business logic interface
// that the gRPC/HTTP handlers will invoke.
type AnalysisController interface {
	Analyze(ctx context.Context, companyNumber, mode string) (*controller.Analysis, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*controller.Analysis, error)
	LatestAnalysis(ctx context.Context, companyNumber string) (*controller.Analysis, error)
}

// HTTP routes served by the gateway.
const (
	analyzeRoute = "/v1/companies/{company_number}/analyses"
	latestRoute  = "/v1/companies/{company_number}/analyses/latest"
	getRoute     = "/v1/analyses/{id}"
	metricsRoute = "/metrics"
)

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	httpServer   *http.Server
	conn         *grpc.ClientConn
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
	return &Server{
		grpcServer:   grpc.NewServer(grpcOpts...),
		healthServer: health.NewServer(),
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		logger:       logger.Named("server"),
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
}

// RegisterGRPCHandler registers the RiskService and the standard health service.
func (s *Server) RegisterGRPCHandler(h RiskServiceServer) {
	s.grpcServer.RegisterService(&RiskServiceDesc, h)
	healthpb.RegisterHealthServer(s.grpcServer, s.healthServer)
	s.healthServer.SetServingStatus(RiskServiceName, healthpb.HealthCheckResponse_SERVING)
}

// RegisterHTTPGateway sets up the HTTP reverse-proxy to the gRPC endpoint with
// the specified dial options. metricsHandler serves /metrics; nil uses the
// default Prometheus registry.
func (s *Server) RegisterHTTPGateway(_ context.Context, dialOpts []grpc.DialOption, jwtSecret string, metricsHandler http.Handler) error {
	conn, err := grpc.NewClient("localhost"+s.grpcEndpoint, dialOpts...)
	if err != nil {
		return err
	}
	s.conn = conn

	gw, err := newGateway(NewRiskServiceClient(conn))
	if err != nil {
		return err
	}
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	mux := http.NewServeMux()
	mux.Handle(metricsRoute, metricsHandler)
	// Wrap the gateway with auth middleware
	mux.Handle("/", auth.HTTPMiddleware(gw, jwtSecret))

	s.httpServer.Handler = mux
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// newGateway maps the REST routes onto RiskService calls.
func newGateway(client *RiskServiceClient) (*runtime.ServeMux, error) {
	mux := runtime.NewServeMux()

	err := mux.HandlePath(http.MethodPost, analyzeRoute, func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		inbound, outbound := runtime.MarshalerForRequest(mux, r)
		in := &structpb.Struct{}
		if err := inbound.NewDecoder(r.Body).Decode(in); err != nil && !errors.Is(err, io.EOF) {
			runtime.HTTPError(r.Context(), mux, outbound, w, r, status.Errorf(codes.InvalidArgument, "%v", err))
			return
		}
		if in.Fields == nil {
			in.Fields = map[string]*structpb.Value{}
		}
		in.Fields["company_number"] = structpb.NewStringValue(params["company_number"])
		forward(mux, w, r, outbound, AnalyzeCompanyFullMethod, analyzeRoute, client.AnalyzeCompany, in)
	})
	if err != nil {
		return nil, err
	}

	err = mux.HandlePath(http.MethodGet, latestRoute, func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		_, outbound := runtime.MarshalerForRequest(mux, r)
		in := &structpb.Struct{Fields: map[string]*structpb.Value{
			"company_number": structpb.NewStringValue(params["company_number"]),
		}}
		forward(mux, w, r, outbound, GetAnalysisFullMethod, latestRoute, client.GetAnalysis, in)
	})
	if err != nil {
		return nil, err
	}

	err = mux.HandlePath(http.MethodGet, getRoute, func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		_, outbound := runtime.MarshalerForRequest(mux, r)
		in := &structpb.Struct{Fields: map[string]*structpb.Value{
			"id": structpb.NewStringValue(params["id"]),
		}}
		forward(mux, w, r, outbound, GetAnalysisFullMethod, getRoute, client.GetAnalysis, in)
	})
	if err != nil {
		return nil, err
	}
	return mux, nil
}

type unaryCall func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

// forward invokes a RiskService method with the request headers propagated
// as gRPC metadata and writes the response or error.
func forward(
	mux *runtime.ServeMux,
	w http.ResponseWriter,
	r *http.Request,
	outbound runtime.Marshaler,
	method, pattern string,
	call unaryCall,
	in *structpb.Struct,
) {
	ctx, err := runtime.AnnotateContext(r.Context(), mux, r, method, runtime.WithHTTPPathPattern(pattern))
	if err != nil {
		runtime.HTTPError(r.Context(), mux, outbound, w, r, err)
		return
	}

	var md runtime.ServerMetadata
	resp, err := call(ctx, in, grpc.Header(&md.HeaderMD), grpc.Trailer(&md.TrailerMD))
	ctx = runtime.NewServerMetadataContext(ctx, md)
	if err != nil {
		runtime.HTTPError(ctx, mux, outbound, w, r, err)
		return
	}
	runtime.ForwardResponseMessage(ctx, mux, outbound, w, r, resp)
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	// Start gRPC Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	// Start HTTP Server
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.healthServer.Shutdown()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("Gateway connection close error", zap.Error(err))
		}
	}
	s.grpcServer.GracefulStop()

	s.logger.Info("Servers stopped")
}
