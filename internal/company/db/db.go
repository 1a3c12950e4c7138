package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	dbmodels "github.com/gartstein/companyrisk/internal/company/db/models"
	e "github.com/gartstein/companyrisk/internal/company/errors"
	"github.com/gartstein/companyrisk/internal/company/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Dialector returns the gorm dialector for the configured driver.
func (cfg *Config) Dialector() (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		}
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", e.ErrInvalidInput, cfg.Driver)
	}
}

func NewRepository(cfg *Config) (*Repository, error) {
	dialector, err := cfg.Dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&dbmodels.Analysis{}, &dbmodels.PersonScore{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// SaveAnalysis persists a scored company under the given analysis ID.
func (r *Repository) SaveAnalysis(ctx context.Context, id uuid.UUID, mode string, company *models.Company) (*dbmodels.Analysis, error) {
	report, err := json.Marshal(company)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	record := &dbmodels.Analysis{
		ID:            id,
		CompanyNumber: company.CompanyNumber,
		CompanyName:   company.Name,
		Mode:          mode,
		OfficersScore: summary(company, models.GroupOfficers),
		PSCsScore:     summary(company, models.GroupPSCs),
		Report:        report,
	}
	for _, o := range company.Officers {
		if o.SummaryScore == nil {
			continue
		}
		record.PersonScores = append(record.PersonScores, personScore(models.GroupOfficers, string(o.Role), &o.Person))
	}
	for _, p := range company.PSCs {
		if p.SummaryScore == nil {
			continue
		}
		record.PersonScores = append(record.PersonScores, personScore(models.GroupPSCs, p.Kind, &p.Person))
	}

	err = r.WithTransaction(ctx, func(repo *Repository) error {
		return repo.db.WithContext(ctx).Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetAnalysis loads an analysis with its person scores.
func (r *Repository) GetAnalysis(ctx context.Context, id uuid.UUID) (*dbmodels.Analysis, error) {
	var analysis dbmodels.Analysis
	result := r.db.WithContext(ctx).Preload("PersonScores").First(&analysis, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &analysis, nil
}

// LatestAnalysis returns the most recent analysis of a company.
func (r *Repository) LatestAnalysis(ctx context.Context, companyNumber string) (*dbmodels.Analysis, error) {
	var analysis dbmodels.Analysis
	result := r.db.WithContext(ctx).
		Preload("PersonScores").
		Where("company_number = ?", companyNumber).
		Order("created_at DESC").
		First(&analysis)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &analysis, nil
}

// DeleteAnalysis removes an analysis and its person scores.
func (r *Repository) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	return r.WithTransaction(ctx, func(repo *Repository) error {
		if err := repo.db.Where("analysis_id = ?", id).Delete(&dbmodels.PersonScore{}).Error; err != nil {
			return err
		}
		result := repo.db.Delete(&dbmodels.Analysis{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		return nil
	})
}

// Exec runs a raw statement, e.g. maintenance in tests.
func (r *Repository) Exec(ctx context.Context, sql string, values ...interface{}) error {
	return r.db.WithContext(ctx).Exec(sql, values...).Error
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func summary(c *models.Company, group string) *float64 {
	v, ok := c.SummaryScore[group]
	if !ok {
		return nil
	}
	return &v
}

func personScore(group, role string, p *models.Person) dbmodels.PersonScore {
	return dbmodels.PersonScore{
		Group:    group,
		Name:     p.Name,
		Role:     role,
		Score:    *p.SummaryScore,
		RedFlags: strings.Join(p.RedFlags, "\n"),
	}
}
