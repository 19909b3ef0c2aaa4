// Package aggregate rolls allocated, classified disclosure-quarter rows up
// into grouped summary tables and writes the output artifacts.
package aggregate

import (
	"sort"
	"strings"

	"github.com/tgordon67/frac-focus/internal/model"
)

// Grouping names one rollup and the key columns beyond Quarter.
type Grouping struct {
	Name string   // output table name, e.g. "quarterly_by_basin"
	Keys []string // subset of "basin", "state", "county"
}

// The standard groupings produced on every run.
var (
	ByBasin       = Grouping{Name: "quarterly_by_basin", Keys: []string{"basin"}}
	ByState       = Grouping{Name: "quarterly_by_state", Keys: []string{"state"}}
	ByCounty      = Grouping{Name: "quarterly_by_county", Keys: []string{"state", "county"}}
	BasinCounties = Grouping{Name: "basin_by_county", Keys: []string{"county"}}
)

// keyValue extracts one grouping key from a detail row.
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

// ColumnTitle maps a grouping key to its output column header.
func ColumnTitle(key string) string {
	switch key {
	case "basin":
		return "Basin"
	case "state":
		return "StateName"
	case "county":
		return "CountyName"
	default:
		return key
	}
}

type accumulator struct {
	quarter     string
	keys        []string
	proppantLbs float64
	waterGal    float64
	wells       map[string]struct{}
}

// Aggregate groups detail rows by (quarter, grouping keys) and produces one
// AggregateRow per key combination present in the data. No synthetic
// zero-filled rows are emitted for absent combinations. Excluded disclosures
// never contribute. Output order is lexicographic over the full key, so two
// runs over identical input emit identical tables.
func Aggregate(rows []model.DetailRow, g Grouping) []model.AggregateRow {
	groups := make(map[string]*accumulator)

	for _, row := range rows {
		if row.Excluded {
			continue
		}
		keys := make([]string, len(g.Keys))
		for i, k := range g.Keys {
			keys[i] = keyValue(row, k)
		}
		mapKey := row.Quarter + "\x1f" + strings.Join(keys, "\x1f")

		acc, ok := groups[mapKey]
		if !ok {
			acc = &accumulator{quarter: row.Quarter, keys: keys, wells: make(map[string]struct{})}
			groups[mapKey] = acc
		}
		acc.proppantLbs += row.ProppantLbs
		acc.waterGal += row.WaterGal
		acc.wells[row.DisclosureID] = struct{}{}
	}

	mapKeys := make([]string, 0, len(groups))
	for k := range groups {
		mapKeys = append(mapKeys, k)
	}
	sort.Strings(mapKeys)

	out := make([]model.AggregateRow, 0, len(groups))
	for _, k := range mapKeys {
		acc := groups[k]
		out = append(out, model.AggregateRow{
			Quarter:     acc.quarter,
			Keys:        acc.keys,
			ProppantLbs: acc.proppantLbs,
			WaterGal:    acc.waterGal,
			WellCount:   len(acc.wells),
		})
	}
	return out
}

// FilterBasin returns the detail rows assigned to one basin.
func FilterBasin(rows []model.DetailRow, basin string) []model.DetailRow {
	var out []model.DetailRow
	for _, row := range rows {
		if row.Basin == basin {
			out = append(out, row)
		}
	}
	return out
}
