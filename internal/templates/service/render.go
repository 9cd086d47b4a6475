package service

import "strings"

// Placeholders understood by Render.
const (
	PlaceholderBrand    = "{brand}"
	PlaceholderModel    = "{model}"
	PlaceholderYear     = "{year}"
	PlaceholderChassis  = "{chassis}"
	PlaceholderPlate    = "{plate}"
	PlaceholderParts    = "{parts}"
	PlaceholderLink     = "{link}"
	PlaceholderSupplier = "{supplier}"
)

// Values fills the placeholders of a template.
type Values struct {
	Brand    string
	Model    string
	Year     string
	Chassis  string
	Plate    string
	Parts    string
	Link     string
	Supplier string
}

// Render substitutes every known placeholder; unknown braces are left alone.
func Render(content string, v Values) string {
	r := strings.NewReplacer(
		PlaceholderBrand, v.Brand,
		PlaceholderModel, v.Model,
		PlaceholderYear, v.Year,
		PlaceholderChassis, v.Chassis,
		PlaceholderPlate, v.Plate,
		PlaceholderParts, v.Parts,
		PlaceholderLink, v.Link,
		PlaceholderSupplier, v.Supplier,
	)
	return strings.TrimSpace(r.Replace(content))
}

// HasLink reports whether content places the response link itself.
func HasLink(content string) bool {
	return strings.Contains(content, PlaceholderLink)
}
