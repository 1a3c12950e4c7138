package registry

import (
	"context"
	"strings"
	"time"

	"github.com/gartstein/companyrisk/internal/company/models"
	"go.uber.org/zap"
)

// DefaultDocumentDelay paces binary downloads, which the document API
// rate-limits more aggressively than metadata calls.
const DefaultDocumentDelay = 5 * time.Second

// Source is the registry API surface used by the Builder.
type Source interface {
	CompanyProfile(ctx context.Context, number string) (*CompanyProfile, error)
	Officers(ctx context.Context, number string) (*OfficerList, error)
	PSCs(ctx context.Context, number string) (*PSCList, error)
	FilingHistory(ctx context.Context, number string) (*FilingHistory, error)
	DocumentMetadata(ctx context.Context, documentID string) (*DocumentMetadata, error)
	DocumentContent(ctx context.Context, documentID, contentType string) ([]byte, error)
}

// Builder populates a Company record graph from the registry.
type Builder struct {
	src           Source
	logger        *zap.Logger
	documentDelay time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewBuilder constructs a Builder. A negative documentDelay disables pacing.
func NewBuilder(src Source, documentDelay time.Duration, logger *zap.Logger) *Builder {
	if documentDelay < 0 {
		documentDelay = 0
	}
	return &Builder{
		src:           src,
		logger:        logger.Named("record_builder"),
		documentDelay: documentDelay,
		sleep:         sleepContext,
	}
}

// Build fetches the profile, PSCs, officers and filing history of a
// company. Only a profile failure is returned; failures on the other
// endpoints leave the record partial.
func (b *Builder) Build(ctx context.Context, number string, downloadBinary bool) (*models.Company, error) {
	company := models.NewCompany(number)

	profile, err := b.src.CompanyProfile(ctx, number)
	if err != nil {
		return nil, err
	}
	applyProfile(company, profile)

	if pscs, err := b.src.PSCs(ctx, number); err != nil {
		b.logPartial("pscs", number, err)
	} else {
		applyPSCs(company, pscs)
	}

	if officers, err := b.src.Officers(ctx, number); err != nil {
		b.logPartial("officers", number, err)
	} else {
		applyOfficers(company, officers)
	}

	if history, err := b.src.FilingHistory(ctx, number); err != nil {
		b.logPartial("filings", number, err)
	} else {
		for _, item := range history.Items {
			company.Filings = append(company.Filings, b.buildFiling(ctx, item, downloadBinary))
		}
	}

	b.logger.Info("Company record built",
		zap.String("company_number", number),
		zap.Int("pscs", len(company.PSCs)),
		zap.Int("officers", len(company.Officers)),
		zap.Int("filings", len(company.Filings)),
	)
	return company, nil
}

func (b *Builder) logPartial(section, number string, err error) {
	if isNotFound(err) {
		b.logger.Debug("Registry section not found",
			zap.String("section", section),
			zap.String("company_number", number),
		)
		return
	}
	b.logger.Warn("Registry section unavailable, record left partial",
		zap.Error(err),
		zap.String("section", section),
		zap.String("company_number", number),
	)
}

func applyProfile(c *models.Company, p *CompanyProfile) {
	c.Name = p.CompanyName.Or("")
	c.Type = p.Type.Or("")
	c.Status = p.CompanyStatus.Or("")
	c.Jurisdiction = p.Jurisdiction.Or("")
	c.DateOfCreation = p.DateOfCreation.Or("")
	c.SICCodes = p.SICCodes.Or(nil)
	c.CanFile = p.CanFile.Ptr()
	c.HasCharges = p.HasCharges.Ptr()
	c.HasInsolvencyHistory = p.HasInsolvencyHistory.Ptr()
	c.HasSuperSecurePSCs = p.HasSuperSecurePSCs.Ptr()
	c.Accounts = p.Accounts.Or(nil)
	c.ConfirmationStatement = p.ConfirmationStatement.Or(nil)
	c.ETag = p.ETag.Or("")

	office := &models.RegisteredOffice{
		InDispute:     p.RegisteredOfficeIsInDispute.Ptr(),
		Undeliverable: p.UndeliverableRegisteredOfficeAddress.Ptr(),
	}
	if addr, ok := p.RegisteredOfficeAddress.Get(); ok {
		office.Address = *toAddress(addr)
	}
	c.RegisteredOffice = office
}

func applyPSCs(c *models.Company, list *PSCList) {
	c.TotalPSCsCount = list.TotalResults.Ptr()
	c.ActivePSCsCount = list.ActiveCount.Ptr()
	c.CeasedPSCsCount = list.CeasedCount.Ptr()

	for _, item := range list.Items {
		psc := &models.PersonWithSignificantControl{
			Kind:            item.Kind.Or(""),
			NotifiedOn:      item.NotifiedOn.Or(""),
			NatureOfControl: item.NatureOfControl.Or(nil),
		}
		psc.Name = item.Name.Or("")
		psc.Nationality = item.Nationality.Or("")
		psc.CountryOfResidence = item.CountryOfResidence.Or("")
		psc.ETag = item.ETag.Or("")
		if links, ok := item.Links.Get(); ok {
			psc.ID = lastSegment(links.Self.Or(""), 1)
		}
		if ne, ok := item.NameElements.Get(); ok {
			psc.Title = ne.Title.Or("")
			psc.Forename = ne.Forename.Or("")
			psc.MiddleName = ne.MiddleName.Or("")
			psc.Surname = ne.Surname.Or("")
		}
		if dob, ok := item.DateOfBirth.Get(); ok {
			psc.DOBYear = dob.Year.Ptr()
			psc.DOBMonth = dob.Month.Ptr()
		}
		psc.Address = toAddress(item.Address.Or(Address{}))
		psc.RedFlags = []string{}
		c.PSCs = append(c.PSCs, psc)
	}
}

func applyOfficers(c *models.Company, list *OfficerList) {
	c.TotalOfficersCount = list.TotalResults.Ptr()
	c.ActiveOfficersCount = list.ActiveCount.Ptr()
	c.InactiveOfficersCount = list.InactiveCount.Ptr()
	c.ResignedOfficersCount = list.ResignedCount.Ptr()

	for _, item := range list.Items {
		o := &models.Officer{
			Role:        models.OfficerRole(item.OfficerRole.Or("")),
			Occupation:  item.Occupation.Or(""),
			AppointedOn: item.AppointedOn.Or(""),
		}
		o.Name = item.Name.Or("")
		o.Nationality = item.Nationality.Or("")
		o.CountryOfResidence = item.CountryOfResidence.Or("")
		if links, ok := item.Links.Get(); ok {
			o.ID = lastSegment(links.Self.Or(""), 1)
			if officer, ok := links.Officer.Get(); ok {
				// /officers/{officer_id}/appointments
				o.Appointment = lastSegment(officer.Appointments.Or(""), 2)
			}
		}
		if dob, ok := item.DateOfBirth.Get(); ok {
			o.DOBYear = dob.Year.Ptr()
			o.DOBMonth = dob.Month.Ptr()
		}
		o.Address = toAddress(item.Address.Or(Address{}))
		o.RedFlags = []string{}
		c.Officers = append(c.Officers, o)
	}
}

func (b *Builder) buildFiling(ctx context.Context, item FilingItem, downloadBinary bool) *models.Filing {
	f := &models.Filing{
		TransactionID:     item.TransactionID.Or(""),
		Category:          item.Category.Or(""),
		Type:              item.Type.Or(""),
		Description:       item.Description.Or(""),
		ActionDate:        item.ActionDate.Or(""),
		Date:              item.Date.Or(""),
		PaperFiled:        item.PaperFiled.Ptr(),
		DescriptionValues: item.DescriptionValues.Or(nil),
		Resolutions:       item.Resolutions.Or(nil),
		AssociatedFilings: item.AssociatedFilings.Or(nil),
	}

	links, _ := item.Links.Get()
	metadataURL := links.DocumentMetadata.Or("")
	if metadataURL == "" {
		// legacy filings carry no document metadata
		return f
	}

	doc := &models.Document{
		ID:      lastSegment(metadataURL, 1),
		Pages:   item.Pages.Ptr(),
		Barcode: item.Barcode.Or(""),
	}
	f.Document = doc

	meta, err := b.src.DocumentMetadata(ctx, doc.ID)
	if err != nil {
		b.logger.Warn("Document metadata unavailable",
			zap.Error(err),
			zap.String("document_id", doc.ID),
		)
	} else {
		applyDocumentMetadata(doc, meta)
	}

	if downloadBinary {
		b.download(ctx, doc)
	}
	return f
}

func applyDocumentMetadata(doc *models.Document, meta *DocumentMetadata) {
	doc.Category = meta.Category.Or("")
	doc.SignificantDate = meta.SignificantDate.Or("")
	doc.SignificantDateType = meta.SignificantDateType.Or("")
	doc.Filename = meta.Filename.Or("")
	doc.CreatedAt = meta.CreatedAt.Or("")
	doc.UpdatedAt = meta.UpdatedAt.Or("")
	doc.ETag = meta.ETag.Or("")
	if doc.Pages == nil {
		doc.Pages = meta.Pages.Ptr()
	}
	if doc.Barcode == "" {
		doc.Barcode = meta.Barcode.Or("")
	}

	resources, ok := meta.Resources.Get()
	if !ok {
		return
	}
	doc.Resources = make(map[models.ContentType]int64, len(resources))
	for ct, r := range resources {
		doc.Resources[models.ContentType(ct)] = r.ContentLength.Or(0)
	}
}

// download fetches the PDF rendition of a document after the pacing delay.
func (b *Builder) download(ctx context.Context, doc *models.Document) {
	if err := b.sleep(ctx, b.documentDelay); err != nil {
		return
	}
	content, err := b.src.DocumentContent(ctx, doc.ID, string(models.ContentPDF))
	if err != nil {
		b.logger.Warn("Document download failed",
			zap.Error(err),
			zap.String("document_id", doc.ID),
		)
		return
	}
	doc.Binary = content
}

func toAddress(a Address) *models.Address {
	return &models.Address{
		Premises:     a.Premises.Or(""),
		AddressLine1: a.AddressLine1.Or(""),
		AddressLine2: a.AddressLine2.Or(""),
		PostalCode:   a.PostalCode.Or(""),
		Locality:     a.Locality.Or(""),
		Region:       a.Region.Or(""),
		Country:      a.Country.Or(""),
	}
}

// lastSegment returns the n-th path segment from the end of a link,
// counting from 1.
func lastSegment(link string, n int) string {
	parts := strings.Split(strings.TrimRight(link, "/"), "/")
	if n < 1 || n > len(parts) {
		return ""
	}
	return parts[len(parts)-n]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
