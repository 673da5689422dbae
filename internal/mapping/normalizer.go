package mapping

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Row is the canonical record produced from one raw price-list row.
// Numeric fields stay as strings here; parsing them is the classifier's
// job so an unparseable price surfaces as a classified error row instead
// of being dropped.
type Row struct {
	SupplierSKU  string `json:"supplier_sku"`
	Title        string `json:"title"`
	Brand        string `json:"brand"`
	CategoryPath string `json:"category_path"`
	Price        string `json:"price"`
	Currency     string `json:"currency"`
	MinQty       string `json:"min_qty"`
}

// transforms are the declarative value transforms a FieldRule may apply,
// in the order they are listed.
var transforms = map[string]func(string) string{
	"trim": strings.TrimSpace,
	"lower": func(s string) string {
		return cases.Lower(language.Und).String(s)
	},
	"upper": func(s string) string {
		return cases.Upper(language.Und).String(s)
	},
	"fold": func(s string) string {
		return cases.Fold().String(s)
	},
	"decimal": normalizeDecimal,
}

// Normalize maps a raw row through a supplier mapping. For each field the
// candidate headers are scanned in priority order, the first non-empty
// value wins, declared transforms apply, and the declared default fills
// the gap. Required fields that stay empty are reported in missing; the
// row is still returned so the caller can emit it as an error row.
// Pure function, no side effects.
func Normalize(m Mapping, raw map[string]string) (Row, []string) {
	// Header matching is case-insensitive on trimmed names
	cells := make(map[string]string, len(raw))
	for k, v := range raw {
		cells[strings.ToLower(strings.TrimSpace(k))] = v
	}

	var row Row
	var missing []string

	for field, rule := range m.Fields {
		value := ""
		for _, header := range rule.Headers {
			if v, ok := cells[strings.ToLower(strings.TrimSpace(header))]; ok && strings.TrimSpace(v) != "" {
				value = v
				break
			}
		}
		if value != "" {
			for _, t := range rule.Transforms {
				value = transforms[t](value)
			}
		}
		if value == "" {
			value = rule.Default
		}
		if value == "" && rule.Required {
			missing = append(missing, field)
		}

		switch field {
		case FieldSupplierSKU:
			row.SupplierSKU = value
		case FieldTitle:
			row.Title = value
		case FieldBrand:
			row.Brand = value
		case FieldCategoryPath:
			row.CategoryPath = value
		case FieldPrice:
			row.Price = value
		case FieldCurrency:
			row.Currency = value
		case FieldMinQty:
			row.MinQty = value
		}
	}

	return row, missing
}

// normalizeDecimal rewrites decimal-comma numbers to decimal-dot form and
// strips currency noise, e.g. "$ 1.234,50" -> "1234.50".
func normalizeDecimal(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")

	if strings.Contains(s, ",") {
		// Comma is the decimal separator; dots are thousand separators
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}
