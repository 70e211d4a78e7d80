package college

import "strings"

const (
	DefaultIDPrefix         = "STU"
	DefaultIDFormat         = "{prefix}{year}{sequence:D4}"
	DefaultIDStartingNumber = 1
)

// College is the organization unit students are enrolled in.
// It is managed from the settings screens; the admissions workflow only reads it.
type College struct {
	ID               int    `json:"id"`
	Code             string `json:"code"`
	NameEn           string `json:"name_en"`
	NameAr           string `json:"name_ar"`
	IDPrefix         string `json:"id_prefix"`
	IDFormat         string `json:"id_format"`
	IDStartingNumber int    `json:"id_starting_number"`
	IsActive         bool   `json:"is_active"`
}

// IDSettings drives how student IDs are generated for a College.
type IDSettings struct {
	Prefix           string
	Format           string
	StartingSequence int
}

// StudentIDSettings returns the College's student ID settings, falling back to the defaults for unset values.
func (c College) StudentIDSettings() IDSettings {
	s := IDSettings{
		Prefix:           strings.TrimSpace(c.IDPrefix),
		Format:           strings.TrimSpace(c.IDFormat),
		StartingSequence: c.IDStartingNumber,
	}
	if s.Prefix == "" {
		s.Prefix = DefaultIDPrefix
	}
	if s.Format == "" {
		s.Format = DefaultIDFormat
	}
	if s.StartingSequence < 1 {
		s.StartingSequence = DefaultIDStartingNumber
	}
	return s
}
