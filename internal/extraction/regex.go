package extraction

import (
	"context"
	"regexp"
	"strings"
)

var (
	labelRe = regexp.MustCompile(`(?i)\b(marca|montadora|fabricante|modelo|ano(?:\s*/\s*modelo)?|ano\s+fab(?:rica[cç][aã]o)?|placa|chassi|chassis)\s*[:\-]\s*`)
	plateRe = regexp.MustCompile(`\b([A-Z]{3})-?([0-9][A-Z0-9][0-9]{2})\b`)
	vinRe   = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)
	yearRe  = regexp.MustCompile(`\b((?:19|20)\d{2})(?:\s*/\s*((?:19|20)\d{2}))?\b`)
	digitRe = regexp.MustCompile(`[0-9]`)
	alphaRe = regexp.MustCompile(`[A-Z]`)
)

// knownBrands maps spellings found on estimates to the display brand.
var knownBrands = []struct {
	token string
	brand string
}{
	{"MERCEDES-BENZ", "Mercedes-Benz"},
	{"MERCEDES", "Mercedes-Benz"},
	{"VOLKSWAGEN", "Volkswagen"},
	{"VW", "Volkswagen"},
	{"CHEVROLET", "Chevrolet"},
	{"GM", "Chevrolet"},
	{"FIAT", "Fiat"},
	{"FORD", "Ford"},
	{"TOYOTA", "Toyota"},
	{"HONDA", "Honda"},
	{"HYUNDAI", "Hyundai"},
	{"RENAULT", "Renault"},
	{"NISSAN", "Nissan"},
	{"JEEP", "Jeep"},
	{"PEUGEOT", "Peugeot"},
	{"CITROEN", "Citroën"},
	{"CITROËN", "Citroën"},
	{"MITSUBISHI", "Mitsubishi"},
	{"KIA", "Kia"},
	{"BMW", "BMW"},
	{"AUDI", "Audi"},
}

var brandPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(knownBrands))
	for i, b := range knownBrands {
		out[i] = regexp.MustCompile(`(?m)(?:^|[^A-Z])` + regexp.QuoteMeta(b.token) + `(?:[ /]+([A-Z0-9][A-Z0-9.\-]*))?(?:[^A-Z]|$)`)
	}
	return out
}()

// RegexExtractor reads labeled fields and well-known patterns from the
// document text.
type RegexExtractor struct{}

// NewRegexExtractor creates the local fallback extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

func (e *RegexExtractor) Name() string { return "regex" }

func (e *RegexExtractor) Extract(_ context.Context, doc *Document) (Fields, error) {
	return ExtractFromText(doc.Text()), nil
}

// ExtractFromText applies labeled fields first, then free patterns.
func ExtractFromText(text string) Fields {
	labeled := labeledFields(text)
	upper := strings.ToUpper(text)

	f := Fields{
		Brand:   labeled["marca"],
		Model:   labeled["modelo"],
		Year:    labeled["ano"],
		Plate:   findPlate(strings.ToUpper(labeled["placa"])),
		Chassis: findVIN(strings.ToUpper(labeled["chassi"])),
	}

	if y := yearRe.FindString(f.Year); y != "" {
		f.Year = compactYear(y)
	} else {
		f.Year = ""
	}
	if f.Plate == "" {
		f.Plate = findPlate(upper)
	}
	if f.Chassis == "" {
		f.Chassis = findVIN(upper)
	}
	if f.Year == "" {
		if m := yearRe.FindString(text); m != "" {
			f.Year = compactYear(m)
		}
	}
	if f.Brand == "" {
		f.Brand, f.Model = brandFromText(upper, f.Model)
	} else {
		f.Brand = canonicalBrand(f.Brand)
	}
	return f
}

// labeledFields returns the value after each recognised label, cut at the
// next label or end of line.
func labeledFields(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		locs := labelRe.FindAllStringSubmatchIndex(line, -1)
		for i, loc := range locs {
			end := len(line)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			value := strings.TrimSpace(line[loc[1]:end])
			if value == "" {
				continue
			}
			key := labelKey(line[loc[2]:loc[3]])
			if _, seen := out[key]; !seen {
				out[key] = value
			}
		}
	}
	return out
}

func labelKey(label string) string {
	l := strings.ToLower(label)
	switch {
	case strings.HasPrefix(l, "marca"), strings.HasPrefix(l, "montadora"), strings.HasPrefix(l, "fabricante"):
		return "marca"
	case strings.HasPrefix(l, "modelo"):
		return "modelo"
	case strings.HasPrefix(l, "ano"):
		return "ano"
	case strings.HasPrefix(l, "placa"):
		return "placa"
	default:
		return "chassi"
	}
}

func findPlate(s string) string {
	m := plateRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1] + m[2]
}

func findVIN(s string) string {
	for _, candidate := range vinRe.FindAllString(s, -1) {
		if digitRe.MatchString(candidate) && alphaRe.MatchString(candidate) {
			return candidate
		}
	}
	return ""
}

func compactYear(y string) string {
	return strings.Join(strings.Fields(y), "")
}

func canonicalBrand(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, b := range knownBrands {
		if upper == b.token || strings.HasPrefix(upper, b.token+" ") {
			return b.brand
		}
	}
	return strings.TrimSpace(raw)
}

// brandFromText finds a known brand as a whole word and, when model is
// empty, takes the next word on the same line as the model.
func brandFromText(upper, model string) (string, string) {
	for i, b := range knownBrands {
		m := brandPatterns[i].FindStringSubmatch(upper)
		if m == nil {
			continue
		}
		if model == "" && len(m) > 1 && m[1] != "" && yearRe.FindString(m[1]) != m[1] {
			model = titleCase(m[1])
		}
		return b.brand, model
	}
	return "", model
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
