// Package models defines the in-memory record graph assembled from the
// company registry: the Company itself, its officers and persons with
// significant control, its registered office and its filing history.
package models

import "fmt"

// Summary score keys written by the aggregator.
const (
	GroupOfficers = "officers"
	GroupPSCs     = "pscs"
)

// Company is the root of the record graph. It exclusively owns its
// registered office, PSC, officer and filing lists.
type Company struct {
	// CompanyNumber is the registry identifier, e.g. "11004735".
	CompanyNumber string `json:"company_number"`
	// Name is the registered company name.
	Name string `json:"company_name,omitempty"`
	// Type is the legal form, e.g. "ltd".
	Type string `json:"type,omitempty"`
	// Status is the registry status, e.g. "active".
	Status string `json:"company_status,omitempty"`
	// Jurisdiction is the registering jurisdiction, e.g. "england-wales".
	Jurisdiction string `json:"jurisdiction,omitempty"`
	// DateOfCreation is the incorporation date as reported by the registry.
	DateOfCreation string `json:"date_of_creation,omitempty"`
	// SICCodes are the industry classification codes.
	SICCodes []string `json:"sic_codes,omitempty"`

	CanFile              *bool `json:"can_file,omitempty"`
	HasCharges           *bool `json:"has_charges,omitempty"`
	HasInsolvencyHistory *bool `json:"has_insolvency_history,omitempty"`
	HasSuperSecurePSCs   *bool `json:"has_super_secure_pscs,omitempty"`

	Accounts              map[string]any `json:"accounts,omitempty"`
	ConfirmationStatement map[string]any `json:"confirmation_statement,omitempty"`
	// ETag changes whenever the registry profile changes.
	ETag string `json:"etag,omitempty"`

	TotalPSCsCount        *int `json:"total_pscs_count,omitempty"`
	ActivePSCsCount       *int `json:"active_pscs_count,omitempty"`
	CeasedPSCsCount       *int `json:"ceased_pscs_count,omitempty"`
	TotalOfficersCount    *int `json:"total_officers_count,omitempty"`
	ActiveOfficersCount   *int `json:"active_officers_count,omitempty"`
	InactiveOfficersCount *int `json:"inactive_officers_count,omitempty"`
	ResignedOfficersCount *int `json:"resigned_officers_count,omitempty"`

	RegisteredOffice *RegisteredOffice               `json:"registered_office,omitempty"`
	PSCs             []*PersonWithSignificantControl `json:"pscs"`
	Officers         []*Officer                      `json:"officers"`
	Filings          []*Filing                       `json:"filings"`

	// SummaryScore maps a group name (GroupOfficers, GroupPSCs) to the
	// mean risk score of that group. A key is present only once the
	// group has been aggregated over at least one contributing member.
	SummaryScore map[string]float64 `json:"summary_score"`
}

// NewCompany returns an empty record for the given company number.
func NewCompany(companyNumber string) *Company {
	return &Company{
		CompanyNumber: companyNumber,
		SummaryScore:  make(map[string]float64),
	}
}

// SetSummaryScore records the aggregate score for a group.
func (c *Company) SetSummaryScore(group string, score float64) {
	if c.SummaryScore == nil {
		c.SummaryScore = make(map[string]float64)
	}
	c.SummaryScore[group] = score
}

// Documents returns the documents attached to the filing history, in
// filing order. Filings without document metadata are skipped.
func (c *Company) Documents() []*Document {
	var docs []*Document
	for _, f := range c.Filings {
		if f.Document != nil {
			docs = append(docs, f.Document)
		}
	}
	return docs
}

func (c *Company) String() string {
	if c.Name == "" {
		return c.CompanyNumber
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.CompanyNumber)
}
