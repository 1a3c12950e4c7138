package controller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	dbmodels "github.com/gartstein/companyrisk/internal/company/db/models"
	e "github.com/gartstein/companyrisk/internal/company/errors"
	"github.com/gartstein/companyrisk/internal/company/events"
	"github.com/gartstein/companyrisk/internal/company/models"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

// MockRepository implements the Repository interface for testing
type MockRepository struct {
	saveAnalysis   func(context.Context, uuid.UUID, string, *models.Company) (*dbmodels.Analysis, error)
	getAnalysis    func(context.Context, uuid.UUID) (*dbmodels.Analysis, error)
	latestAnalysis func(context.Context, string) (*dbmodels.Analysis, error)
}

func (m *MockRepository) SaveAnalysis(ctx context.Context, id uuid.UUID, mode string, c *models.Company) (*dbmodels.Analysis, error) {
	return m.saveAnalysis(ctx, id, mode, c)
}

func (m *MockRepository) GetAnalysis(ctx context.Context, id uuid.UUID) (*dbmodels.Analysis, error) {
	return m.getAnalysis(ctx, id)
}

func (m *MockRepository) LatestAnalysis(ctx context.Context, number string) (*dbmodels.Analysis, error) {
	return m.latestAnalysis(ctx, number)
}

func (m *MockRepository) Close() error {
	return nil
}

type MockBuilder struct {
	build func(context.Context, string, bool) (*models.Company, error)
}

func (m *MockBuilder) Build(ctx context.Context, number string, downloadBinary bool) (*models.Company, error) {
	return m.build(ctx, number, downloadBinary)
}

type MockScorer struct {
	calls int
}

func (m *MockScorer) Score(_ context.Context, c *models.Company) {
	m.calls++
	c.SetSummaryScore(models.GroupOfficers, 25)
}

// MockProducer is a test double for the Kafka producer.
type MockProducer struct {
	mu             sync.Mutex
	producedEvents []events.Event
	wg             *sync.WaitGroup
}

// Produce records the event and signals the wait group.
func (m *MockProducer) Produce(event events.Event) {
	m.mu.Lock()
	m.producedEvents = append(m.producedEvents, event)
	m.mu.Unlock()
	if m.wg != nil {
		m.wg.Done()
	}
}

func TestNormalizeCompanyNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "11004735", want: "11004735"},
		{input: "445790", want: "00445790"},
		{input: " sc123456 ", want: "SC123456"},
		{input: "", wantErr: true},
		{input: "123456789", wantErr: true},
		{input: "12-34", wantErr: true},
		{input: "１２３", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeCompanyNumber(tt.input)
			if tt.wantErr {
				if !errors.Is(err, e.ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAnalysisService_Analyze(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		number        string
		mode          string
		mockSetup     func(*MockRepository, *MockBuilder)
		expectError   bool
		expectedError error
		wantBinary    bool
	}{
		{
			name:   "successful basic analysis",
			number: "445790",
			mockSetup: func(mr *MockRepository, mb *MockBuilder) {
				mb.build = func(_ context.Context, n string, _ bool) (*models.Company, error) {
					c := models.NewCompany(n)
					c.Name = "TESCO PLC"
					return c, nil
				}
				mr.saveAnalysis = func(_ context.Context, id uuid.UUID, mode string, _ *models.Company) (*dbmodels.Analysis, error) {
					return &dbmodels.Analysis{ID: id, Mode: mode, CreatedAt: now}, nil
				}
			},
		},
		{
			name:   "binary mode downloads documents",
			number: "11004735",
			mode:   ModeBinary,
			mockSetup: func(mr *MockRepository, mb *MockBuilder) {
				mb.build = func(_ context.Context, n string, downloadBinary bool) (*models.Company, error) {
					if !downloadBinary {
						return nil, errors.New("expected binary download")
					}
					return models.NewCompany(n), nil
				}
				mr.saveAnalysis = func(_ context.Context, id uuid.UUID, mode string, _ *models.Company) (*dbmodels.Analysis, error) {
					return &dbmodels.Analysis{ID: id, Mode: mode, CreatedAt: now}, nil
				}
			},
			wantBinary: true,
		},
		{
			name:          "invalid number",
			number:        "not-a-number",
			mockSetup:     func(_ *MockRepository, _ *MockBuilder) {},
			expectError:   true,
			expectedError: e.ErrInvalidInput,
		},
		{
			name:          "unknown mode",
			number:        "11004735",
			mode:          "full",
			mockSetup:     func(_ *MockRepository, _ *MockBuilder) {},
			expectError:   true,
			expectedError: e.ErrInvalidInput,
		},
		{
			name:   "company not found",
			number: "11004735",
			mockSetup: func(_ *MockRepository, mb *MockBuilder) {
				mb.build = func(_ context.Context, _ string, _ bool) (*models.Company, error) {
					return nil, e.ErrNotFound
				}
			},
			expectError:   true,
			expectedError: e.ErrNotFound,
		},
		{
			name:   "registry unavailable",
			number: "11004735",
			mockSetup: func(_ *MockRepository, mb *MockBuilder) {
				mb.build = func(_ context.Context, _ string, _ bool) (*models.Company, error) {
					return nil, e.ErrRegistryUnavailable
				}
			},
			expectError:   true,
			expectedError: e.ErrRegistryUnavailable,
		},
		{
			name:   "repository error",
			number: "11004735",
			mockSetup: func(mr *MockRepository, mb *MockBuilder) {
				mb.build = func(_ context.Context, n string, _ bool) (*models.Company, error) {
					return models.NewCompany(n), nil
				}
				mr.saveAnalysis = func(_ context.Context, _ uuid.UUID, _ string, _ *models.Company) (*dbmodels.Analysis, error) {
					return nil, errors.New("database error")
				}
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := zaptest.NewLogger(t)
			mockRepo := &MockRepository{}
			mockBuilder := &MockBuilder{}
			mockScorer := &MockScorer{}
			mockProducer := &MockProducer{wg: new(sync.WaitGroup)}
			tt.mockSetup(mockRepo, mockBuilder)
			service := NewAnalysisService(mockRepo, mockBuilder, mockScorer, mockProducer, nil, logger)

			// For a successful analysis, add one waitgroup counter for the async event.
			if !tt.expectError {
				mockProducer.wg.Add(1)
			}

			result, err := service.Analyze(context.Background(), tt.number, tt.mode)

			if !tt.expectError {
				mockProducer.wg.Wait()
			}

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if tt.expectedError != nil && !errors.Is(err, tt.expectedError) {
					t.Errorf("expected error %v, got %v", tt.expectedError, err)
				}
				if len(mockProducer.producedEvents) != 0 {
					t.Error("expected no event on failure")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.ID == uuid.Nil {
				t.Error("expected analysis ID to be set")
			}
			if mockScorer.calls != 1 {
				t.Errorf("expected company to be scored once, got %d", mockScorer.calls)
			}
			if got := result.Company.SummaryScore[models.GroupOfficers]; got != 25 {
				t.Errorf("expected officers score 25, got %v", got)
			}
			if tt.wantBinary && result.Mode != ModeBinary {
				t.Errorf("expected mode %q, got %q", ModeBinary, result.Mode)
			}
			if !tt.wantBinary && result.Mode != ModeBasic {
				t.Errorf("expected mode %q, got %q", ModeBasic, result.Mode)
			}
			if len(mockProducer.producedEvents) != 1 {
				t.Fatal("expected company_scored event to be produced")
			}
			event := mockProducer.producedEvents[0]
			if event.Type != events.CompanyScored || event.AnalysisID != result.ID.String() {
				t.Errorf("unexpected event %+v", event)
			}
		})
	}
}

func TestAnalysisService_GetAnalysis(t *testing.T) {
	testID := uuid.New()
	company := models.NewCompany("11004735")
	company.Name = "STORED LTD"
	company.SetSummaryScore(models.GroupPSCs, 40)
	report, err := json.Marshal(company)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		input         uuid.UUID
		mockSetup     func(*MockRepository)
		expectError   bool
		expectedError error
	}{
		{
			name:  "successful get",
			input: testID,
			mockSetup: func(mr *MockRepository) {
				mr.getAnalysis = func(_ context.Context, id uuid.UUID) (*dbmodels.Analysis, error) {
					return &dbmodels.Analysis{ID: id, CompanyNumber: "11004735", Mode: ModeBasic, Report: report}, nil
				}
			},
		},
		{
			name:  "not found",
			input: uuid.New(),
			mockSetup: func(mr *MockRepository) {
				mr.getAnalysis = func(_ context.Context, _ uuid.UUID) (*dbmodels.Analysis, error) {
					return nil, e.ErrNotFound
				}
			},
			expectError:   true,
			expectedError: e.ErrNotFound,
		},
		{
			name:          "nil ID",
			input:         uuid.Nil,
			mockSetup:     func(_ *MockRepository) {},
			expectError:   true,
			expectedError: e.ErrInvalidInput,
		},
		{
			name:  "corrupt report",
			input: testID,
			mockSetup: func(mr *MockRepository) {
				mr.getAnalysis = func(_ context.Context, id uuid.UUID) (*dbmodels.Analysis, error) {
					return &dbmodels.Analysis{ID: id, Report: []byte("{")}, nil
				}
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			tt.mockSetup(mockRepo)

			service := NewAnalysisService(mockRepo, &MockBuilder{}, &MockScorer{}, &MockProducer{}, nil, zaptest.NewLogger(t))
			result, err := service.GetAnalysis(context.Background(), tt.input)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if tt.expectedError != nil && !errors.Is(err, tt.expectedError) {
					t.Errorf("expected error %v, got %v", tt.expectedError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.ID != tt.input {
				t.Errorf("expected analysis ID %v, got %v", tt.input, result.ID)
			}
			if result.Company.Name != "STORED LTD" {
				t.Errorf("expected decoded company name, got %q", result.Company.Name)
			}
			if result.Company.SummaryScore[models.GroupPSCs] != 40 {
				t.Errorf("expected pscs score 40, got %v", result.Company.SummaryScore)
			}
		})
	}
}

func TestAnalysisService_LatestAnalysis(t *testing.T) {
	var requested string
	mockRepo := &MockRepository{
		latestAnalysis: func(_ context.Context, number string) (*dbmodels.Analysis, error) {
			requested = number
			return &dbmodels.Analysis{ID: uuid.New(), CompanyNumber: number}, nil
		},
	}
	service := NewAnalysisService(mockRepo, &MockBuilder{}, &MockScorer{}, &MockProducer{}, nil, zaptest.NewLogger(t))

	result, err := service.LatestAnalysis(context.Background(), "445790")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requested != "00445790" {
		t.Errorf("expected normalized number, got %q", requested)
	}
	if result.Company.CompanyNumber != "00445790" {
		t.Errorf("unexpected company number %q", result.Company.CompanyNumber)
	}
}

func TestAnalysisService_HandleRequest(t *testing.T) {
	var built string
	mockBuilder := &MockBuilder{
		build: func(_ context.Context, n string, _ bool) (*models.Company, error) {
			built = n
			return models.NewCompany(n), nil
		},
	}
	mockRepo := &MockRepository{
		saveAnalysis: func(_ context.Context, id uuid.UUID, mode string, _ *models.Company) (*dbmodels.Analysis, error) {
			return &dbmodels.Analysis{ID: id, Mode: mode}, nil
		},
	}
	mockProducer := &MockProducer{wg: new(sync.WaitGroup)}
	mockProducer.wg.Add(1)
	service := NewAnalysisService(mockRepo, mockBuilder, &MockScorer{}, mockProducer, nil, zaptest.NewLogger(t))

	err := service.HandleRequest(context.Background(), events.Event{
		Type:          events.AnalysisRequested,
		CompanyNumber: "11004735",
	})
	mockProducer.wg.Wait()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built != "11004735" {
		t.Errorf("expected build of 11004735, got %q", built)
	}
}
