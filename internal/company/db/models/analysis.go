// Package models contains the persisted analysis records,
// configured to work using GORM as the ORM.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is one completed risk analysis of a company.
// Report holds the full JSON record graph as produced by the analysis.
type Analysis struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyNumber string    `gorm:"size:8;index;not null"`
	CompanyName   string    `gorm:"size:160"`
	Mode          string    `gorm:"size:16"`
	OfficersScore *float64
	PSCsScore     *float64
	Report        []byte
	PersonScores  []PersonScore `gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time     `gorm:"index"`
}

// PersonScore is the outcome of scoring one officer or PSC.
// RedFlags is stored newline-separated.
type PersonScore struct {
	ID         uint      `gorm:"primaryKey"`
	AnalysisID uuid.UUID `gorm:"type:uuid;index;not null"`
	Group      string    `gorm:"column:score_group;size:16;not null"`
	Name       string    `gorm:"size:255"`
	Role       string    `gorm:"size:64"`
	Score      float64   `gorm:"check:score >= 0"`
	RedFlags   string    `gorm:"size:2000"`
}
