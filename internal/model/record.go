// Package model defines the core types flowing through the disclosure pipeline.
package model

import "time"

// CalcMethod identifies which proppant mass calculation strategy fired.
type CalcMethod string

const (
	// MethodReportedMass sums directly reported ingredient masses.
	MethodReportedMass CalcMethod = "reported_mass"
	// MethodPercentProxy derives mass from job-mass percentages and fluid mass.
	MethodPercentProxy CalcMethod = "percent_proxy"
	// MethodNone means no quantity could be computed.
	MethodNone CalcMethod = "none"
)

// ExcludeReason codes why a disclosure was excluded from aggregation.
type ExcludeReason string

const (
	// ExcludeMissingVolume marks disclosures with no usable base water volume.
	ExcludeMissingVolume ExcludeReason = "missing_volume"
)

// IngredientRecord is one normalized ingredient row within a disclosure.
type IngredientRecord struct {
	DisclosureID   string
	IngredientID   string
	Purpose        string
	IngredientName string
	SupplierName   string
	TradeName      string

	PercentOfJobMass *float64 // percent by mass of total job fluid, 0-100
	ReportedMass     *float64 // directly reported ingredient mass (lbs)

	JobStart time.Time
	JobEnd   time.Time

	WaterVolumeGal    *float64 // total base water volume for the disclosure
	TotalFluidMassLbs *float64 // WaterVolumeGal x water density

	StateName  string
	CountyName string
	APINumber  string

	PercentClipped bool // negative percent was clipped to zero
	EndDefaulted   bool // end date missing or unparseable, defaulted to start
}

// Disclosure is an ephemeral grouping of all ingredient rows sharing a
// DisclosureID. It is built per run and never persisted.
type Disclosure struct {
	ID      string
	Records []IngredientRecord

	JobStart        time.Time
	JobEnd          time.Time
	DurationDays    int // JobEnd - JobStart in days; clamped to 0 when negative
	DurationClamped bool

	WaterVolumeGal    *float64
	TotalFluidMassLbs *float64

	StateName  string
	CountyName string
	APINumber  string
}

// QuarterShare is one disclosure's allocation to one calendar quarter.
type QuarterShare struct {
	DisclosureID string
	Quarter      Quarter
	ProppantLbs  float64
	WaterGal     float64
}

// DetailRow is the audit trail: one row per disclosure-quarter carrying the
// allocated quantities and every flag raised along the way.
type DetailRow struct {
	DisclosureID string
	Quarter      string
	ProppantLbs  float64
	WaterGal     float64

	StateName  string
	CountyName string
	Basin      string
	APINumber  string

	JobStart     time.Time
	DurationDays int

	CalcMethod       CalcMethod
	MassCompleteness float64 // fraction of rows carrying ReportedMass
	PercentSum       float64 // summed percent across qualifying rows

	ReportedMassLbs *float64 // reported-mass quantity, when any row carried one
	ProxyMassLbs    *float64 // percent-proxy quantity, when computable

	OutlierLongJob     bool
	ImplausiblePercent bool
	IsAtlas            bool

	Excluded      bool
	ExcludeReason ExcludeReason
}

// AggregateRow is one output row of a grouped rollup. Keys holds the values
// of the grouping columns beyond Quarter, in grouping order.
type AggregateRow struct {
	Quarter     string
	Keys        []string
	ProppantLbs float64
	WaterGal    float64
	WellCount   int
}

// ProppantTons converts pounds to short tons.
func (r AggregateRow) ProppantTons() float64 { return r.ProppantLbs / 2000 }

// ProppantMMLbs scales pounds to millions of pounds.
func (r AggregateRow) ProppantMMLbs() float64 { return r.ProppantLbs / 1_000_000 }

// WaterMMGal scales gallons to millions of gallons.
func (r AggregateRow) WaterMMGal() float64 { return r.WaterGal / 1_000_000 }

// AvgProppantPerWellLbs returns pounds per well, 0 when the group is empty.
func (r AggregateRow) AvgProppantPerWellLbs() float64 {
	if r.WellCount == 0 {
		return 0
	}
	return r.ProppantLbs / float64(r.WellCount)
}

// AvgWaterPerWellGal returns gallons per well, 0 when the group is empty.
func (r AggregateRow) AvgWaterPerWellGal() float64 {
	if r.WellCount == 0 {
		return 0
	}
	return r.WaterGal / float64(r.WellCount)
}
