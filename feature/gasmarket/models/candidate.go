package models

import (
	"strings"
	"time"
)

// Candidate is a gas market record that has not been stored yet. It is the
// payload of the create endpoints and the output of the upload parser.
type Candidate struct {
	Date        Date    `json:"DATA" yaml:"data"`
	Spreadsheet string  `json:"PLANILHA" yaml:"planilha"`
	Sheet       string  `json:"ABA" yaml:"aba"`
	Product     string  `json:"PRODUTO" yaml:"produto"`
	Location    *string `json:"LOCAL,omitempty" yaml:"local,omitempty"`
	Company     *string `json:"EMPRESA,omitempty" yaml:"empresa,omitempty"`
	Unit        string  `json:"UNIDADE" yaml:"unidade"`
	Value       float64 `json:"VALOR" yaml:"valor"`
}

// Trim returns a copy with surrounding whitespace removed. Blank optional
// fields become nil.
func (c Candidate) Trim() Candidate {
	c.Spreadsheet = strings.TrimSpace(c.Spreadsheet)
	c.Sheet = strings.TrimSpace(c.Sheet)
	c.Product = strings.TrimSpace(c.Product)
	c.Unit = strings.TrimSpace(c.Unit)
	c.Location = OptionalString(c.Location)
	c.Company = OptionalString(c.Company)
	return c
}

// MissingFields lists required fields that are empty after trimming.
func (c Candidate) MissingFields() []string {
	var missing []string
	if c.Date.IsZero() {
		missing = append(missing, "DATA")
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"PLANILHA", c.Spreadsheet},
		{"ABA", c.Sheet},
		{"PRODUTO", c.Product},
		{"UNIDADE", c.Unit},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// GroupKey returns the (date, spreadsheet, sheet) key, exact on trimmed text.
func (c Candidate) GroupKey() string {
	return strings.Join([]string{
		c.Date.String(),
		strings.TrimSpace(c.Spreadsheet),
		strings.TrimSpace(c.Sheet),
	}, "\x1f")
}

// IdentityKey returns the (date, spreadsheet, sheet, product) key, case
// insensitive on the text parts.
func (c Candidate) IdentityKey() string {
	return strings.Join([]string{
		c.Date.String(),
		strings.ToLower(strings.TrimSpace(c.Spreadsheet)),
		strings.ToLower(strings.TrimSpace(c.Sheet)),
		strings.ToLower(strings.TrimSpace(c.Product)),
	}, "\x1f")
}

// ToRecord converts the candidate into a new row created at createdAt.
func (c Candidate) ToRecord(createdAt time.Time) Record {
	c = c.Trim()
	return Record{
		Date:        c.Date,
		Spreadsheet: c.Spreadsheet,
		Sheet:       c.Sheet,
		Product:     c.Product,
		Location:    c.Location,
		Company:     c.Company,
		Unit:        c.Unit,
		Value:       c.Value,
		CreatedAt:   createdAt,
	}
}

// OptionalString trims s and returns nil when nothing is left.
func OptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
