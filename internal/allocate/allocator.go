// Package allocate splits a disclosure's computed quantity across calendar
// quarters. This is the algorithmic heart of the pipeline: every downstream
// aggregate is only as correct as the boundary-overlap arithmetic here.
package allocate

import (
	"time"

	"github.com/tgordon67/frac-focus/internal/config"
	"github.com/tgordon67/frac-focus/internal/model"
)

// Allocation is the ordered set of quarter shares for one disclosure.
type Allocation struct {
	Shares         []model.QuarterShare
	OutlierLongJob bool
}

// Allocator applies the three-tier duration policy.
type Allocator struct {
	cfg config.PipelineConfig
}

// New creates an Allocator.
func New(cfg config.PipelineConfig) Allocator {
	return Allocator{cfg: cfg}
}

// Allocate distributes proppantLbs and waterGal across the quarters touched
// by the disclosure's job span.
//
// Policy by duration d (days):
//   - d <= ShortJobMaxDays: everything to the quarter containing the start
//     date; the job is treated as a just-in-time delivery event.
//   - d > ShortJobMaxDays: proportional over the half-open span
//     [start, start+d), one share per quarter touched. The final quarter
//     takes the exact remainder so the shares always sum to the input.
//   - d > OutlierJobDays: proportional as above, plus an outlier annotation
//     for manual review. Never excluded.
func (a Allocator) Allocate(d *model.Disclosure, proppantLbs, waterGal float64) Allocation {
	var alloc Allocation
	alloc.OutlierLongJob = d.DurationDays > a.cfg.OutlierJobDays

	if d.DurationDays <= a.cfg.ShortJobMaxDays {
		alloc.Shares = []model.QuarterShare{{
			DisclosureID: d.ID,
			Quarter:      model.QuarterOf(d.JobStart),
			ProppantLbs:  proppantLbs,
			WaterGal:     waterGal,
		}}
		return alloc
	}

	spans := quarterSpans(d.JobStart, d.DurationDays)

	var propSum, waterSum float64
	for i, s := range spans {
		share := model.QuarterShare{DisclosureID: d.ID, Quarter: s.quarter}
		if i == len(spans)-1 {
			// Conservation invariant: the last quarter absorbs any
			// floating-point remainder.
			share.ProppantLbs = proppantLbs - propSum
			share.WaterGal = waterGal - waterSum
		} else {
			frac := float64(s.days) / float64(d.DurationDays)
			share.ProppantLbs = proppantLbs * frac
			share.WaterGal = waterGal * frac
			propSum += share.ProppantLbs
			waterSum += share.WaterGal
		}
		alloc.Shares = append(alloc.Shares, share)
	}
	return alloc
}

type span struct {
	quarter model.Quarter
	days    int
}

// quarterSpans partitions the half-open interval [start, start+duration) by
// calendar-quarter boundary. The day counts sum to exactly duration.
func quarterSpans(start time.Time, duration int) []span {
	end := start.AddDate(0, 0, duration)
	q := model.QuarterOf(start)

	var spans []span
	cur := start
	for cur.Before(end) {
		next := q.Next().Start()
		sliceEnd := next
		if end.Before(next) {
			sliceEnd = end
		}
		spans = append(spans, span{quarter: q, days: daysBetween(cur, sliceEnd)})
		cur = sliceEnd
		q = q.Next()
	}
	return spans
}

// daysBetween counts whole days between two UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
