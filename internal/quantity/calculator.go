// Package quantity computes the proppant mass of a disclosure from its
// ingredient rows using a prioritized set of strategies.
package quantity

import (
	"github.com/tgordon67/frac-focus/internal/config"
	"github.com/tgordon67/frac-focus/internal/model"
)

// Result is the computed quantity plus the audit trail of how it was derived.
type Result struct {
	ProppantLbs float64
	Method      model.CalcMethod

	MassCompleteness float64 // fraction of rows carrying a reported mass
	PercentSum       float64 // summed percent across rows

	ReportedMassLbs *float64 // reported-mass total, when any row carried one
	ProxyMassLbs    *float64 // percent-proxy total, when computable

	ImplausiblePercent bool
	Excluded           bool
	ExcludeReason      model.ExcludeReason
}

// Calculator selects and applies the calculation strategy for one disclosure.
type Calculator struct {
	cfg config.PipelineConfig
}

// New creates a Calculator.
func New(cfg config.PipelineConfig) Calculator {
	return Calculator{cfg: cfg}
}

// Compute derives the proppant mass for one disclosure.
//
// Strategy, in priority order:
//  1. If at least MassCompletenessMin of the rows carry a reported mass and
//     the mass sum is positive, use the reported-mass sum.
//  2. Otherwise derive mass from the summed job-mass percentage and the
//     total fluid mass. A missing fluid mass excludes the disclosure.
func (c Calculator) Compute(d *model.Disclosure) Result {
	var res Result
	res.Method = model.MethodNone

	if len(d.Records) == 0 {
		res.Excluded = true
		res.ExcludeReason = model.ExcludeMissingVolume
		return res
	}

	var massSum float64
	var massCount int
	for _, rec := range d.Records {
		if rec.ReportedMass != nil {
			massSum += *rec.ReportedMass
			massCount++
		}
		if rec.PercentOfJobMass != nil {
			res.PercentSum += *rec.PercentOfJobMass
		}
	}
	res.MassCompleteness = float64(massCount) / float64(len(d.Records))

	if res.PercentSum > c.cfg.PercentPlausibleMax {
		// Implausible but not dropped: downstream validation surfaces it.
		res.ImplausiblePercent = true
	}

	if massCount > 0 {
		s := massSum
		res.ReportedMassLbs = &s
	}
	if d.TotalFluidMassLbs != nil && *d.TotalFluidMassLbs > 0 && res.PercentSum >= 0 {
		proxy := res.PercentSum / 100 * *d.TotalFluidMassLbs
		res.ProxyMassLbs = &proxy
	}

	// Priority 1: reported masses, when populated for enough of the rows.
	if res.MassCompleteness >= c.cfg.MassCompletenessMin && massSum > 0 {
		res.ProppantLbs = massSum
		res.Method = model.MethodReportedMass
		return res
	}

	// Priority 2: percentage proxy against total fluid mass.
	if d.TotalFluidMassLbs == nil || *d.TotalFluidMassLbs <= 0 {
		res.Excluded = true
		res.ExcludeReason = model.ExcludeMissingVolume
		return res
	}

	if res.PercentSum > 0 {
		res.ProppantLbs = res.PercentSum / 100 * *d.TotalFluidMassLbs
	}
	res.Method = model.MethodPercentProxy
	return res
}
