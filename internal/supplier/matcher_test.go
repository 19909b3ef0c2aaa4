package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tgordon67/frac-focus/internal/config"
	"github.com/tgordon67/frac-focus/internal/model"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Atlas Sand Company, LLC", "ATLAS SAND"},
		{"ATLAS SAND CO.", "ATLAS SAND"},
		{"atlas energy solutions inc", "ATLAS ENERGY SOLUTIONS"},
		{"  Halliburton  ", "HALLIBURTON"},
		{"U.S. Silica Company", "U S SILICA"},
		{"LLC", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func rec(supplier, trade, ingredient string) model.IngredientRecord {
	return model.IngredientRecord{
		SupplierName:   supplier,
		TradeName:      trade,
		IngredientName: ingredient,
	}
}

func TestMatchRecordDefaults(t *testing.T) {
	m := NewMatcher(config.AtlasConfig{})

	tests := []struct {
		name string
		rec  model.IngredientRecord
		want bool
	}{
		{"exact supplier", rec("Atlas Sand Company, LLC", "100 Mesh", "Crystalline Silica"), true},
		{"supplier variant", rec("ATLAS ENERGY SOLUTIONS", "40/70 Sand", "Sand"), true},
		{"other supplier", rec("US Silica", "100 Mesh", "Sand"), false},
		{"empty supplier", rec("", "100 Mesh", "Sand"), false},
		{"excluded product", rec("Atlas Sand Company, LLC", "Northern White 40/70", "Sand"), false},
		{"resin coated excluded", rec("Atlas Sand", "Resin Coated Sand", "Sand"), false},
		{"ceramic excluded", rec("Atlas Sand", "", "Ceramic Proppant"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.MatchRecord(tt.rec))
		})
	}
}

func TestMatchRecordIncludeList(t *testing.T) {
	m := NewMatcher(config.AtlasConfig{
		SupplierPatterns: []string{"Atlas Sand"},
		ProductsInclude:  []string{"100 Mesh", "40/70"},
	})

	assert.True(t, m.MatchRecord(rec("Atlas Sand Company", "100 Mesh", "")))
	assert.False(t, m.MatchRecord(rec("Atlas Sand Company", "30/50 Sand", "")))
}

func TestMatchDisclosure(t *testing.T) {
	m := NewMatcher(config.AtlasConfig{})

	d := &model.Disclosure{
		ID: "d1",
		Records: []model.IngredientRecord{
			rec("Halliburton", "Gel", "Guar"),
			rec("Atlas Sand Company, LLC", "100 Mesh", "Sand"),
		},
	}
	assert.True(t, m.MatchDisclosure(d))

	none := &model.Disclosure{
		ID:      "d2",
		Records: []model.IngredientRecord{rec("Halliburton", "Gel", "Guar")},
	}
	assert.False(t, m.MatchDisclosure(none))
}
