// Package controller implements the analysis service: it builds a company
// record from the registry, scores it, persists the result and publishes
// a company_scored event.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	dbmodels "github.com/gartstein/companyrisk/internal/company/db/models"
	e "github.com/gartstein/companyrisk/internal/company/errors"
	"github.com/gartstein/companyrisk/internal/company/events"
	"github.com/gartstein/companyrisk/internal/company/metrics"
	"github.com/gartstein/companyrisk/internal/company/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Analysis modes. Binary mode also downloads document content.
const (
	ModeBasic  = "basic"
	ModeBinary = "binary"
)

const companyNumberLength = 8

type EventProducer interface {
	Produce(event events.Event)
}

// Repository defines the storage interface for analyses.
type Repository interface {
	SaveAnalysis(ctx context.Context, id uuid.UUID, mode string, company *models.Company) (*dbmodels.Analysis, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*dbmodels.Analysis, error)
	LatestAnalysis(ctx context.Context, companyNumber string) (*dbmodels.Analysis, error)
	Close() error
}

// RecordBuilder assembles a company record from the registry.
type RecordBuilder interface {
	Build(ctx context.Context, number string, downloadBinary bool) (*models.Company, error)
}

// Scorer writes person and group scores onto a company.
type Scorer interface {
	Score(ctx context.Context, c *models.Company)
}

// Analysis is a scored company record together with its identity.
type Analysis struct {
	ID        uuid.UUID
	Mode      string
	CreatedAt time.Time
	Company   *models.Company
}

// AnalysisService runs and retrieves company risk analyses.
type AnalysisService struct {
	repo     Repository
	builder  RecordBuilder
	scorer   Scorer
	producer EventProducer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAnalysisService constructs an AnalysisService. m may be nil.
func NewAnalysisService(
	repo Repository,
	builder RecordBuilder,
	scorer Scorer,
	producer EventProducer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		repo:     repo,
		builder:  builder,
		scorer:   scorer,
		producer: producer,
		metrics:  m,
		logger:   logger.Named("analysis_service"),
	}
}

// Analyze builds and scores the company, stores the result and fires a
// company_scored event. An empty mode means ModeBasic.
func (s *AnalysisService) Analyze(ctx context.Context, companyNumber, mode string) (*Analysis, error) {
	number, err := NormalizeCompanyNumber(companyNumber)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = ModeBasic
	}
	if mode != ModeBasic && mode != ModeBinary {
		return nil, fmt.Errorf("%w: unknown mode %q", e.ErrInvalidInput, mode)
	}

	company, err := s.builder.Build(ctx, number, mode == ModeBinary)
	if err != nil {
		s.metrics.IncrementAnalysis("error")
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("company %s: %w", number, err)
		}
		return nil, fmt.Errorf("failed to build company record: %w", err)
	}

	s.scorer.Score(ctx, company)

	id := uuid.New()
	record, err := s.repo.SaveAnalysis(ctx, id, mode, company)
	if err != nil {
		s.metrics.IncrementAnalysis("error")
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	s.metrics.IncrementAnalysis("ok")

	s.logger.Info("Company analysed",
		zap.String("analysis_id", id.String()),
		zap.String("company_number", number),
		zap.String("mode", mode),
		zap.Any("summary_score", company.SummaryScore),
	)

	// Produce never blocks; a full queue drops the event.
	s.producer.Produce(events.NewScoredEvent(id, mode, company))

	return &Analysis{
		ID:        id,
		Mode:      mode,
		CreatedAt: record.CreatedAt,
		Company:   company,
	}, nil
}

// GetAnalysis retrieves a stored analysis by ID.
func (s *AnalysisService) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid analysis ID", e.ErrInvalidInput)
	}
	record, err := s.repo.GetAnalysis(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return fromRecord(record)
}

// LatestAnalysis retrieves the most recent analysis of a company.
func (s *AnalysisService) LatestAnalysis(ctx context.Context, companyNumber string) (*Analysis, error) {
	number, err := NormalizeCompanyNumber(companyNumber)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.LatestAnalysis(ctx, number)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	return fromRecord(record)
}

// HandleRequest runs an analysis for an analysis_requested event.
func (s *AnalysisService) HandleRequest(ctx context.Context, event events.Event) error {
	_, err := s.Analyze(ctx, event.CompanyNumber, event.Mode)
	return err
}

// NormalizeCompanyNumber validates a registry company number. Numbers are
// alphanumeric and at most eight characters; purely numeric ones are
// left-padded with zeros.
func NormalizeCompanyNumber(number string) (string, error) {
	n := strings.ToUpper(strings.TrimSpace(number))
	if n == "" || len(n) > companyNumberLength {
		return "", fmt.Errorf("%w: invalid company number %q", e.ErrInvalidInput, number)
	}
	digits := true
	for _, r := range n {
		if r > unicode.MaxASCII || !(unicode.IsDigit(r) || unicode.IsUpper(r)) {
			return "", fmt.Errorf("%w: invalid company number %q", e.ErrInvalidInput, number)
		}
		if !unicode.IsDigit(r) {
			digits = false
		}
	}
	if digits {
		n = strings.Repeat("0", companyNumberLength-len(n)) + n
	}
	return n, nil
}

func fromRecord(record *dbmodels.Analysis) (*Analysis, error) {
	company := models.NewCompany(record.CompanyNumber)
	if len(record.Report) > 0 {
		if err := json.Unmarshal(record.Report, company); err != nil {
			return nil, fmt.Errorf("failed to decode stored report: %w", err)
		}
	}
	return &Analysis{
		ID:        record.ID,
		Mode:      record.Mode,
		CreatedAt: record.CreatedAt,
		Company:   company,
	}, nil
}
