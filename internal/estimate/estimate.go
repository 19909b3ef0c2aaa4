// Package estimate derives market-share and revenue figures from the
// supplier-attributed detail rows.
package estimate

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tgordon67/frac-focus/internal/config"
	"github.com/tgordon67/frac-focus/internal/model"
)

// MarketRow is one quarter's supplier-vs-market comparison within a group.
type MarketRow struct {
	Quarter          string
	Keys             []string
	MarketTons       float64
	SupplierTons     float64
	SharePct         float64 // supplier share of market tons, 0-100
	SupplierWells    int
	MarketWells      int
	RevenueMM        float64 // blended revenue estimate, millions USD
	ContractTons     float64
	SpotTons         float64
	BlendedPricePerT float64
}

// Pricing carries the revenue model inputs.
type Pricing struct {
	PricePerTon    float64 // contract price, USD per short ton
	ContractPct    float64 // fraction of volume sold on contract, 0-1
	SpotAdjustment float64 // spot price as a multiple of contract price
}

// PricingFromConfig lifts the configured pricing assumptions.
func PricingFromConfig(cfg config.AtlasConfig) Pricing {
	return Pricing{
		PricePerTon:    cfg.PricePerTon,
		ContractPct:    cfg.ContractPct,
		SpotAdjustment: cfg.SpotAdjustment,
	}
}

// MarketShare computes per-quarter supplier share of total market proppant
// for one grouping. Excluded rows never contribute. Output is sorted
// lexicographically by quarter then keys.
func MarketShare(details []model.DetailRow, keys []string, pricing Pricing) []MarketRow {
	type acc struct {
		quarter       string
		keys          []string
		marketLbs     float64
		supplierLbs   float64
		marketWells   map[string]struct{}
		supplierWells map[string]struct{}
	}
	groups := make(map[string]*acc)

	for _, row := range details {
		if row.Excluded {
			continue
		}
		kv := make([]string, len(keys))
		for i, k := range keys {
			kv[i] = keyValue(row, k)
		}
		mapKey := row.Quarter + "\x1f" + strings.Join(kv, "\x1f")

		a, ok := groups[mapKey]
		if !ok {
			a = &acc{
				quarter:       row.Quarter,
				keys:          kv,
				marketWells:   make(map[string]struct{}),
				supplierWells: make(map[string]struct{}),
			}
			groups[mapKey] = a
		}
		a.marketLbs += row.ProppantLbs
		a.marketWells[row.DisclosureID] = struct{}{}
		if row.IsAtlas {
			a.supplierLbs += row.ProppantLbs
			a.supplierWells[row.DisclosureID] = struct{}{}
		}
	}

	mapKeys := make([]string, 0, len(groups))
	for k := range groups {
		mapKeys = append(mapKeys, k)
	}
	sort.Strings(mapKeys)

	out := make([]MarketRow, 0, len(groups))
	for _, k := range mapKeys {
		a := groups[k]
		row := MarketRow{
			Quarter:       a.quarter,
			Keys:          a.keys,
			MarketTons:    a.marketLbs / 2000,
			SupplierTons:  a.supplierLbs / 2000,
			MarketWells:   len(a.marketWells),
			SupplierWells: len(a.supplierWells),
		}
		if row.MarketTons > 0 {
			row.SharePct = row.SupplierTons / row.MarketTons * 100
		}
		applyPricing(&row, pricing)
		out = append(out, row)
	}
	return out
}

// applyPricing fills the revenue fields of one row from the supplier tonnage.
func applyPricing(row *MarketRow, p Pricing) {
	row.ContractTons = row.SupplierTons * p.ContractPct
	row.SpotTons = row.SupplierTons - row.ContractTons

	spotPrice := p.PricePerTon * p.SpotAdjustment
	revenue := row.ContractTons*p.PricePerTon + row.SpotTons*spotPrice
	row.RevenueMM = revenue / 1_000_000
	if row.SupplierTons > 0 {
		row.BlendedPricePerT = revenue / row.SupplierTons
	}
}

// BacksolvePricing infers the blended realized price per ton implied by
// reported revenue. volumes maps quarter label to supplier tons; reported
// maps quarter label to revenue in USD. Quarters present in only one map are
// skipped. The result maps quarter to implied USD per ton.
func BacksolvePricing(volumes, reported map[string]float64) (map[string]float64, error) {
	if len(volumes) == 0 || len(reported) == 0 {
		return nil, eris.New("estimate: backsolve needs both volumes and reported revenue")
	}

	out := make(map[string]float64)
	for q, tons := range volumes {
		rev, ok := reported[q]
		if !ok {
			continue
		}
		if tons <= 0 {
			return nil, eris.Errorf("estimate: quarter %s has no volume to price against", q)
		}
		out[q] = rev / tons
	}
	if len(out) == 0 {
		return nil, eris.New("estimate: no overlapping quarters between volumes and reported revenue")
	}
	return out, nil
}

func keyValue(row model.DetailRow, key string) string {
	switch key {
	case "basin":
		return row.Basin
	case "state":
		return row.StateName
	case "county":
		return row.CountyName
	default:
		return ""
	}
}
