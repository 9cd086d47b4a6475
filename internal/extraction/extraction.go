// Package extraction reads vehicle identification fields out of repair
// estimate PDFs. Extractors run in order; the first non-empty value for each
// field wins.
package extraction

import (
	"context"
	"strings"

	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
)

// minConfidentFields is the number of fields an extractor must fill before
// later extractors are skipped.
const minConfidentFields = 2

// Fields are the vehicle attributes read from a document.
type Fields struct {
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Year    string `json:"year"`
	Plate   string `json:"plate"`
	Chassis string `json:"chassis"`
}

// Count returns how many fields are filled.
func (f Fields) Count() int {
	n := 0
	for _, v := range []string{f.Brand, f.Model, f.Year, f.Plate, f.Chassis} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// Merge fills f's empty fields from other.
func (f Fields) Merge(other Fields) Fields {
	pick := func(a, b string) string {
		if strings.TrimSpace(a) != "" {
			return a
		}
		return b
	}
	return Fields{
		Brand:   pick(f.Brand, other.Brand),
		Model:   pick(f.Model, other.Model),
		Year:    pick(f.Year, other.Year),
		Plate:   pick(f.Plate, other.Plate),
		Chassis: pick(f.Chassis, other.Chassis),
	}
}

// Document is an uploaded PDF. Text is filled lazily from PDF.
type Document struct {
	PDF  []byte
	text *string
}

// NewDocument wraps raw PDF bytes.
func NewDocument(pdf []byte) *Document {
	return &Document{PDF: pdf}
}

// Text returns the document's decoded text, computed once.
func (d *Document) Text() string {
	if d.text == nil {
		t := PDFText(d.PDF)
		d.text = &t
	}
	return *d.text
}

// Extractor reads fields from a document.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, doc *Document) (Fields, error)
}

// Service runs extractors in order.
type Service struct {
	extractors []Extractor
	log        *logger.Logger
}

// New creates a service running extractors in the given order.
func New(log *logger.Logger, extractors ...Extractor) *Service {
	return &Service{extractors: extractors, log: log}
}

// Extract returns the merged fields of every extractor that ran. Extractor
// errors are logged and the next extractor runs. It stops once the merged
// result has enough fields and fails only when nothing was found.
func (s *Service) Extract(ctx context.Context, pdf []byte) (Fields, error) {
	if len(pdf) == 0 {
		return Fields{}, apperr.Validation("empty document")
	}

	doc := NewDocument(pdf)
	var merged Fields
	for _, ex := range s.extractors {
		fields, err := ex.Extract(ctx, doc)
		if err != nil {
			s.log.Warn("vehicle extractor failed", "extractor", ex.Name(), "error", err)
			continue
		}
		merged = merged.Merge(normalize(fields))
		if merged.Count() >= minConfidentFields {
			break
		}
	}

	if merged.Count() == 0 {
		return Fields{}, apperr.Validation("no vehicle data found in document")
	}
	return merged, nil
}

func normalize(f Fields) Fields {
	f.Brand = strings.TrimSpace(f.Brand)
	f.Model = strings.TrimSpace(f.Model)
	f.Year = strings.TrimSpace(f.Year)
	f.Plate = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(f.Plate), "-", ""))
	f.Chassis = strings.ToUpper(strings.TrimSpace(f.Chassis))
	if len(f.Chassis) != 17 {
		f.Chassis = ""
	}
	return f
}
