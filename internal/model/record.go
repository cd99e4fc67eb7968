// Package model defines the company contact record and its merge semantics.
package model

// Field keys for Record. These double as export column headers.
const (
	FieldCompanyName        = "company_name"
	FieldCountry            = "country"
	FieldCompanyContactPage = "company_contact_page"
	FieldCompanyEmail       = "company_email"
	FieldCompanyPhone       = "company_phone"
	FieldCEO                = "ceo"
	FieldCEOEmail           = "ceo_email"
	FieldCEOPhone           = "ceo_phone"
	FieldCofounder          = "cofounder"
	FieldCofounderEmail     = "cofounder_email"
	FieldCofounderPhone     = "cofounder_phone"
)

// Columns is the fixed export column order.
var Columns = []string{
	FieldCompanyName,
	FieldCountry,
	FieldCompanyContactPage,
	FieldCompanyEmail,
	FieldCompanyPhone,
	FieldCEO,
	FieldCEOEmail,
	FieldCEOPhone,
	FieldCofounder,
	FieldCofounderEmail,
	FieldCofounderPhone,
}

// Record holds contact data for a single company. CompanyName and Country
// form the identity and are set once at collection time; every other field
// follows fill-if-empty semantics across enrichment stages.
type Record struct {
	CompanyName string `json:"company_name"`
	Country     string `json:"country"`

	// ProfileURL is the directory profile page from collection. It feeds the
	// profile enrichment stage and is not an export column.
	ProfileURL string `json:"profile_url,omitempty"`

	CompanyContactPage string `json:"company_contact_page,omitempty"`
	CompanyEmail       string `json:"company_email,omitempty"`
	CompanyPhone       string `json:"company_phone,omitempty"`

	CEO            string `json:"ceo,omitempty"`
	CEOEmail       string `json:"ceo_email,omitempty"`
	CEOPhone       string `json:"ceo_phone,omitempty"`
	Cofounder      string `json:"cofounder,omitempty"`
	CofounderEmail string `json:"cofounder_email,omitempty"`
	CofounderPhone string `json:"cofounder_phone,omitempty"`
}

// fieldRef maps an enrichment field key to its struct field. Identity fields
// are deliberately absent so no stage can overwrite them.
func (r *Record) fieldRef(key string) *string {
	switch key {
	case FieldCompanyContactPage:
		return &r.CompanyContactPage
	case FieldCompanyEmail:
		return &r.CompanyEmail
	case FieldCompanyPhone:
		return &r.CompanyPhone
	case FieldCEO:
		return &r.CEO
	case FieldCEOEmail:
		return &r.CEOEmail
	case FieldCEOPhone:
		return &r.CEOPhone
	case FieldCofounder:
		return &r.Cofounder
	case FieldCofounderEmail:
		return &r.CofounderEmail
	case FieldCofounderPhone:
		return &r.CofounderPhone
	default:
		return nil
	}
}

// Field returns the current value for an enrichment field key, or "" for
// identity and unknown keys.
func (r *Record) Field(key string) string {
	if ref := r.fieldRef(key); ref != nil {
		return *ref
	}
	return ""
}

// Row renders the record in Columns order. Unset fields become blank cells.
func (r *Record) Row() []string {
	return []string{
		r.CompanyName,
		r.Country,
		r.CompanyContactPage,
		r.CompanyEmail,
		r.CompanyPhone,
		r.CEO,
		r.CEOEmail,
		r.CEOPhone,
		r.Cofounder,
		r.CofounderEmail,
		r.CofounderPhone,
	}
}

// MissingContactFields returns the subset of {company_email, company_phone}
// not yet populated, in column order.
func (r *Record) MissingContactFields() []string {
	var missing []string
	if IsEmpty(r.CompanyEmail) {
		missing = append(missing, FieldCompanyEmail)
	}
	if IsEmpty(r.CompanyPhone) {
		missing = append(missing, FieldCompanyPhone)
	}
	return missing
}

// NeedsContactFallback reports whether the record qualifies for the
// contact-page fallback stage: a contact page is known and email or phone
// is still missing.
func (r *Record) NeedsContactFallback() bool {
	return !IsEmpty(r.CompanyContactPage) && len(r.MissingContactFields()) > 0
}
