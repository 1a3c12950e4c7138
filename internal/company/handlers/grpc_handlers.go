package handlers

import (
	"context"

	"github.com/gartstein/companyrisk/internal/company/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// RiskHandler provides gRPC methods for risk analyses,
// mapping requests to an AnalysisController.
type RiskHandler struct {
	service AnalysisController
	logger  *zap.Logger
}

var _ RiskServiceServer = (*RiskHandler)(nil)

// NewRiskHandler constructs a new RiskHandler with the given service and logger.
func NewRiskHandler(service AnalysisController, logger *zap.Logger) *RiskHandler {
	return &RiskHandler{
		service: service,
		logger:  logger.Named("grpc_handler"),
	}
}

// AnalyzeCompany runs a new analysis of the requested company.
func (h *RiskHandler) AnalyzeCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	number := stringField(req, "company_number")
	if number == "" {
		return nil, status.Error(codes.InvalidArgument, "company_number required")
	}
	mode := stringField(req, "mode")

	fields := []zap.Field{zap.String("company_number", number), zap.String("mode", mode)}
	if sub, ok := auth.Subject(ctx); ok {
		fields = append(fields, zap.String("subject", sub))
	}
	h.logger.Info("Analysis requested", fields...)

	analysis, err := h.service.Analyze(ctx, number, mode)
	if err != nil {
		h.logger.Error("Analyze company failed", zap.Error(err), zap.String("company_number", number))
		return nil, h.mapServiceError(err)
	}

	resp, err := analysisToStruct(analysis)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return resp, nil
}

// GetAnalysis fetches an analysis by ID, or the latest analysis of a
// company when only company_number is given.
func (h *RiskHandler) GetAnalysis(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if rawID := stringField(req, "id"); rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid analysis ID")
		}
		analysis, err := h.service.GetAnalysis(ctx, id)
		if err != nil {
			return nil, h.mapServiceError(err)
		}
		resp, err := analysisToStruct(analysis)
		if err != nil {
			return nil, h.mapServiceError(err)
		}
		return resp, nil
	}

	number := stringField(req, "company_number")
	if number == "" {
		return nil, status.Error(codes.InvalidArgument, "id or company_number required")
	}
	analysis, err := h.service.LatestAnalysis(ctx, number)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	resp, err := analysisToStruct(analysis)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return resp, nil
}
