package registry

// Partial records decoded from the Companies House API. Every attribute
// is optional.

type Address struct {
	Premises     Opt[string] `json:"premises"`
	AddressLine1 Opt[string] `json:"address_line_1"`
	AddressLine2 Opt[string] `json:"address_line_2"`
	PostalCode   Opt[string] `json:"postal_code"`
	Locality     Opt[string] `json:"locality"`
	Region       Opt[string] `json:"region"`
	Country      Opt[string] `json:"country"`
}

type DateOfBirth struct {
	Month Opt[int] `json:"month"`
	Year  Opt[int] `json:"year"`
}

type NameElements struct {
	Title      Opt[string] `json:"title"`
	Forename   Opt[string] `json:"forename"`
	MiddleName Opt[string] `json:"middle_name"`
	Surname    Opt[string] `json:"surname"`
}

type CompanyProfile struct {
	CompanyName           Opt[string]         `json:"company_name"`
	CompanyNumber         Opt[string]         `json:"company_number"`
	Type                  Opt[string]         `json:"type"`
	CompanyStatus         Opt[string]         `json:"company_status"`
	Jurisdiction          Opt[string]         `json:"jurisdiction"`
	DateOfCreation        Opt[string]         `json:"date_of_creation"`
	SICCodes              Opt[[]string]       `json:"sic_codes"`
	CanFile               Opt[bool]           `json:"can_file"`
	HasCharges            Opt[bool]           `json:"has_charges"`
	HasInsolvencyHistory  Opt[bool]           `json:"has_insolvency_history"`
	HasSuperSecurePSCs    Opt[bool]           `json:"has_super_secure_pscs"`
	Accounts              Opt[map[string]any] `json:"accounts"`
	ConfirmationStatement Opt[map[string]any] `json:"confirmation_statement"`
	ETag                  Opt[string]         `json:"etag"`

	RegisteredOfficeAddress              Opt[Address] `json:"registered_office_address"`
	RegisteredOfficeIsInDispute          Opt[bool]    `json:"registered_office_is_in_dispute"`
	UndeliverableRegisteredOfficeAddress Opt[bool]    `json:"undeliverable_registered_office_address"`
}

type OfficerLink struct {
	Appointments Opt[string] `json:"appointments"`
}

type OfficerLinks struct {
	Self    Opt[string]      `json:"self"`
	Officer Opt[OfficerLink] `json:"officer"`
}

type OfficerItem struct {
	Name               Opt[string]       `json:"name"`
	OfficerRole        Opt[string]       `json:"officer_role"`
	Occupation         Opt[string]       `json:"occupation"`
	AppointedOn        Opt[string]       `json:"appointed_on"`
	Nationality        Opt[string]       `json:"nationality"`
	CountryOfResidence Opt[string]       `json:"country_of_residence"`
	DateOfBirth        Opt[DateOfBirth]  `json:"date_of_birth"`
	Address            Opt[Address]      `json:"address"`
	Links              Opt[OfficerLinks] `json:"links"`
}

type OfficerList struct {
	TotalResults  Opt[int]      `json:"total_results"`
	ActiveCount   Opt[int]      `json:"active_count"`
	InactiveCount Opt[int]      `json:"inactive_count"`
	ResignedCount Opt[int]      `json:"resigned_count"`
	ItemsPerPage  Opt[int]      `json:"items_per_page"`
	StartIndex    Opt[int]      `json:"start_index"`
	Items         []OfficerItem `json:"items"`
}

type SelfLinks struct {
	Self             Opt[string] `json:"self"`
	DocumentMetadata Opt[string] `json:"document_metadata"`
}

type PSCItem struct {
	Name               Opt[string]       `json:"name"`
	Kind               Opt[string]       `json:"kind"`
	NotifiedOn         Opt[string]       `json:"notified_on"`
	NatureOfControl    Opt[[]string]     `json:"nature_of_control"`
	Nationality        Opt[string]       `json:"nationality"`
	CountryOfResidence Opt[string]       `json:"country_of_residence"`
	DateOfBirth        Opt[DateOfBirth]  `json:"date_of_birth"`
	NameElements       Opt[NameElements] `json:"name_elements"`
	Address            Opt[Address]      `json:"address"`
	ETag               Opt[string]       `json:"etag"`
	Links              Opt[SelfLinks]    `json:"links"`
}

type PSCList struct {
	TotalResults Opt[int]  `json:"total_results"`
	ActiveCount  Opt[int]  `json:"active_count"`
	CeasedCount  Opt[int]  `json:"ceased_count"`
	ItemsPerPage Opt[int]  `json:"items_per_page"`
	StartIndex   Opt[int]  `json:"start_index"`
	Items        []PSCItem `json:"items"`
}

type FilingItem struct {
	TransactionID     Opt[string]           `json:"transaction_id"`
	Category          Opt[string]           `json:"category"`
	Type              Opt[string]           `json:"type"`
	Description       Opt[string]           `json:"description"`
	ActionDate        Opt[string]           `json:"action_date"`
	Date              Opt[string]           `json:"date"`
	PaperFiled        Opt[bool]             `json:"paper_filed"`
	Pages             Opt[int]              `json:"pages"`
	Barcode           Opt[string]           `json:"barcode"`
	DescriptionValues Opt[map[string]any]   `json:"description_values"`
	Resolutions       Opt[[]map[string]any] `json:"resolutions"`
	AssociatedFilings Opt[[]map[string]any] `json:"associated_filings"`
	Links             Opt[SelfLinks]        `json:"links"`
}

type FilingHistory struct {
	TotalCount   Opt[int]     `json:"total_count"`
	ItemsPerPage Opt[int]     `json:"items_per_page"`
	StartIndex   Opt[int]     `json:"start_index"`
	Items        []FilingItem `json:"items"`
}

type DocumentResource struct {
	ContentLength Opt[int64] `json:"content_length"`
}

type DocumentMetadata struct {
	Category            Opt[string]                      `json:"category"`
	SignificantDate     Opt[string]                      `json:"significant_date"`
	SignificantDateType Opt[string]                      `json:"significant_date_type"`
	Filename            Opt[string]                      `json:"filename"`
	CreatedAt           Opt[string]                      `json:"created_at"`
	UpdatedAt           Opt[string]                      `json:"updated_at"`
	ETag                Opt[string]                      `json:"etag"`
	Pages               Opt[int]                         `json:"pages"`
	Barcode             Opt[string]                      `json:"barcode"`
	Resources           Opt[map[string]DocumentResource] `json:"resources"`
}
