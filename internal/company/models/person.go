package models

// OfficerRole is the appointment role reported by the registry.
type OfficerRole string

const (
	RoleDirector                     OfficerRole = "director"
	RoleSecretary                    OfficerRole = "secretary"
	RoleCorporateDirector            OfficerRole = "corporate-director"
	RoleCorporateSecretary           OfficerRole = "corporate-secretary"
	RoleNomineeDirector              OfficerRole = "nominee-director"
	RoleNomineeSecretary             OfficerRole = "nominee-secretary"
	RoleCorporateNomineeDirector     OfficerRole = "corporate-nominee-director"
	RoleCorporateNomineeSecretary    OfficerRole = "corporate-nominee-secretary"
	RoleLLPMember                    OfficerRole = "llp-member"
	RoleLLPDesignatedMember          OfficerRole = "llp-designated-member"
	RoleCorporateLLPMember           OfficerRole = "corporate-llp-member"
	RoleCorporateLLPDesignatedMember OfficerRole = "corporate-llp-designated-member"
	RoleJudicialFactor               OfficerRole = "judicial-factor"
	RoleReceiverAndManager           OfficerRole = "receiver-and-manager"
	RoleCICManager                   OfficerRole = "cic-manager"
)

// Person holds the identity attributes shared by officers and persons with
// significant control. Empty strings and nil pointers mean the registry
// did not supply the value.
type Person struct {
	ID                 string   `json:"id,omitempty"`
	Title              string   `json:"title,omitempty"`
	Forename           string   `json:"forename,omitempty"`
	MiddleName         string   `json:"middle_name,omitempty"`
	Surname            string   `json:"surname,omitempty"`
	Name               string   `json:"name,omitempty"`
	Nationality        string   `json:"nationality,omitempty"`
	CountryOfResidence string   `json:"country_of_residence,omitempty"`
	DOBYear            *int     `json:"dob_year,omitempty"`
	DOBMonth           *int     `json:"dob_month,omitempty"`
	ETag               string   `json:"etag,omitempty"`
	Address            *Address `json:"address,omitempty"`

	// RedFlags and SummaryScore are only meaningful after scoring.
	RedFlags     []string `json:"red_flags"`
	SummaryScore *float64 `json:"summary_score"`
}

// Subject implements Scoreable.
func (p *Person) Subject() *Person {
	return p
}

// ApplyScore stores a scoring outcome on the person. Previous red flags
// are replaced, so scoring the same person twice never duplicates them.
func (p *Person) ApplyScore(score float64, redFlags []string) {
	p.SummaryScore = &score
	p.RedFlags = append(make([]string, 0, len(redFlags)), redFlags...)
}

func (p *Person) String() string {
	return p.Name
}

// Scoreable is implemented by every record the risk evaluator can score.
type Scoreable interface {
	Subject() *Person
}

// Officer is a registered director, secretary or equivalent appointment.
type Officer struct {
	Person
	Role        OfficerRole `json:"officer_role,omitempty"`
	Occupation  string      `json:"occupation,omitempty"`
	AppointedOn string      `json:"appointed_on,omitempty"`
	// Appointment is the officer identifier taken from the appointments link.
	Appointment string `json:"appointment,omitempty"`
}

// IsNaturalPersonRole reports whether the role is held by an individual
// subject to the person risk checks.
func (r OfficerRole) IsNaturalPersonRole() bool {
	return r == RoleDirector || r == RoleSecretary
}

// IsCorporateRole reports whether the role is held by a corporate body
// that receives a fixed default score.
func (r OfficerRole) IsCorporateRole() bool {
	return r == RoleCorporateDirector || r == RoleCorporateSecretary
}

// PersonWithSignificantControl is an individual or entity with substantial
// ownership or control over the company.
type PersonWithSignificantControl struct {
	Person
	// Kind classifies the PSC, e.g. "individual-person-with-significant-control".
	Kind            string   `json:"kind,omitempty"`
	NotifiedOn      string   `json:"notified_on,omitempty"`
	NatureOfControl []string `json:"nature_of_control,omitempty"`
}
