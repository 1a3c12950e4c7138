package models

// Address is a free-text postal address as reported by the registry.
type Address struct {
	Premises     string `json:"premises,omitempty"`
	AddressLine1 string `json:"address_line_1,omitempty"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Locality     string `json:"locality,omitempty"`
	Region       string `json:"region,omitempty"`
	Country      string `json:"country,omitempty"`
}

func (a *Address) String() string {
	return a.AddressLine1
}

// RegisteredOffice is the company's official address.
type RegisteredOffice struct {
	Address
	InDispute     *bool `json:"registered_office_is_in_dispute,omitempty"`
	Undeliverable *bool `json:"undeliverable_registered_office_address,omitempty"`
}

// Filing is one entry of the filing history.
type Filing struct {
	TransactionID string `json:"transaction_id"`
	// Category, e.g. "confirmation-statement", "accounts", "incorporation".
	Category string `json:"category,omitempty"`
	// Type is the form code, e.g. "CS01", "AA", "NEWINC".
	Type              string           `json:"type,omitempty"`
	Description       string           `json:"description,omitempty"`
	ActionDate        string           `json:"action_date,omitempty"`
	Date              string           `json:"date,omitempty"`
	PaperFiled        *bool            `json:"paper_filed,omitempty"`
	DescriptionValues map[string]any   `json:"description_values,omitempty"`
	Resolutions       []map[string]any `json:"resolutions,omitempty"`
	AssociatedFilings []map[string]any `json:"associated_filings,omitempty"`

	// Document is nil for legacy filings without document metadata.
	Document *Document `json:"document,omitempty"`
}

func (f *Filing) String() string {
	if f.Type == "" {
		return f.TransactionID
	}
	return f.Type + " (" + f.TransactionID + ")"
}

// ContentType is a document format offered by the document API.
type ContentType string

const (
	ContentPDF   ContentType = "application/pdf"
	ContentJSON  ContentType = "application/json"
	ContentXML   ContentType = "application/xml"
	ContentXHTML ContentType = "application/xhtml+xml"
	ContentCSV   ContentType = "text/csv"
)

// Document is the metadata (and optionally the content) of a filed document.
type Document struct {
	ID                  string `json:"document_id"`
	Barcode             string `json:"barcode,omitempty"`
	Pages               *int   `json:"pages,omitempty"`
	Category            string `json:"category,omitempty"`
	SignificantDate     string `json:"significant_date,omitempty"`
	SignificantDateType string `json:"significant_date_type,omitempty"`
	Filename            string `json:"filename,omitempty"`
	CreatedAt           string `json:"created_at,omitempty"`
	UpdatedAt           string `json:"updated_at,omitempty"`
	ETag                string `json:"etag,omitempty"`

	// Resources maps each available format to its content length.
	Resources map[ContentType]int64 `json:"resources,omitempty"`

	// Binary holds the downloaded content, PDF by default.
	Binary []byte `json:"-"`
}

// Available reports whether the document is offered in the given format.
func (d *Document) Available(ct ContentType) bool {
	_, ok := d.Resources[ct]
	return ok
}

// ContentLength returns the size of the document in the given format.
func (d *Document) ContentLength(ct ContentType) (int64, bool) {
	n, ok := d.Resources[ct]
	return n, ok
}

func (d *Document) String() string {
	return d.ID
}
