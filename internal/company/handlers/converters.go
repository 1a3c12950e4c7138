package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/companyrisk/internal/company/controller"
	e "github.com/gartstein/companyrisk/internal/company/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// stringField returns a string field of a request, or "" when it is absent
// or not a string.
func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return ""
	}
	return sv.StringValue
}

// analysisToStruct converts an analysis into its wire form. The company
// record goes through its JSON encoding so field names match the CLI output.
func analysisToStruct(a *controller.Analysis) (*structpb.Struct, error) {
	if a == nil || a.Company == nil {
		return nil, errors.New("nil analysis")
	}
	raw, err := json.Marshal(a.Company)
	if err != nil {
		return nil, fmt.Errorf("encode company: %w", err)
	}
	var company map[string]interface{}
	if err := json.Unmarshal(raw, &company); err != nil {
		return nil, fmt.Errorf("decode company: %w", err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"id":         a.ID.String(),
		"mode":       a.Mode,
		"created_at": a.CreatedAt.UTC().Format(time.RFC3339),
		"company":    company,
	})
}

// mapServiceError maps domain or repository errors to appropriate gRPC status codes.
func (h *RiskHandler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrRegistryUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, fmt.Sprintf("internal server error: %v", err))
	}
}
