// Package supplier identifies ingredient rows attributable to a single sand
// supplier, for the supplier-filtered market pass.
package supplier

import (
	"strings"

	"github.com/tgordon67/frac-focus/internal/config"
	"github.com/tgordon67/frac-focus/internal/model"
)

// Default match lists used when the config carries none. The supplier names
// are the spellings observed in disclosure data; the product exclusions weed
// out sand types the supplier does not sell.
var (
	defaultSupplierPatterns = []string{
		"ATLAS SAND",
		"ATLAS SAND COMPANY",
		"ATLAS ENERGY",
		"ATLAS PROPPANT",
		"ATLAS OSR",
	}
	defaultProductExclude = []string{
		"NORTHERN WHITE",
		"RESIN COATED",
		"RESIN-COATED",
		"CERAMIC",
	}
)

// Matcher decides whether an ingredient row is attributable to the
// configured supplier.
type Matcher struct {
	supplierPatterns []string
	productInclude   []string
	productExclude   []string
}

// NewMatcher builds a Matcher from configuration, falling back to the
// built-in lists where the config is empty.
func NewMatcher(cfg config.AtlasConfig) *Matcher {
	m := &Matcher{
		supplierPatterns: normalizeAll(cfg.SupplierPatterns),
		productInclude:   normalizeAll(cfg.ProductsInclude),
		productExclude:   normalizeAll(cfg.ProductsExclude),
	}
	if len(m.supplierPatterns) == 0 {
		m.supplierPatterns = normalizeAll(defaultSupplierPatterns)
	}
	if len(m.productExclude) == 0 {
		m.productExclude = normalizeAll(defaultProductExclude)
	}
	return m
}

// NormalizeName canonicalizes a supplier name for matching: uppercased,
// corporate suffixes stripped, punctuation removed, whitespace collapsed.
func NormalizeName(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = strings.NewReplacer(",", " ", ".", " ", "(", " ", ")", " ").Replace(s)

	fields := strings.Fields(s)
	for len(fields) > 0 {
		switch fields[len(fields)-1] {
		case "LLC", "INC", "LP", "LTD", "CO", "CORP", "COMPANY":
			fields = fields[:len(fields)-1]
		default:
			return strings.Join(fields, " ")
		}
	}
	return ""
}

// MatchRecord reports whether one ingredient row belongs to the supplier.
// Supplier name must contain a pattern; product filters then refine by trade
// name and ingredient name.
func (m *Matcher) MatchRecord(rec model.IngredientRecord) bool {
	name := NormalizeName(rec.SupplierName)
	if name == "" {
		return false
	}

	matched := false
	for _, p := range m.supplierPatterns {
		if strings.Contains(name, p) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	product := NormalizeName(rec.TradeName) + " " + NormalizeName(rec.IngredientName)
	for _, p := range m.productExclude {
		if strings.Contains(product, p) {
			return false
		}
	}
	if len(m.productInclude) > 0 {
		for _, p := range m.productInclude {
			if strings.Contains(product, p) {
				return true
			}
		}
		return false
	}
	return true
}

// MatchDisclosure reports whether any ingredient row in the disclosure
// matches. A single matching row attributes the whole disclosure's proppant,
// since sand supply is per-job in practice.
func (m *Matcher) MatchDisclosure(d *model.Disclosure) bool {
	for _, rec := range d.Records {
		if m.MatchRecord(rec) {
			return true
		}
	}
	return false
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := NormalizeName(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
