// Package validate runs the fixed battery of data-quality checks over a
// completed pipeline run and renders the advisory report. Validation never
// fails the run; the report is the single channel for non-fatal issues.
package validate

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tgordon67/frac-focus/internal/config"
	"github.com/tgordon67/frac-focus/internal/model"
	"github.com/tgordon67/frac-focus/internal/normalize"
)

// Severity categorizes a validation issue.
type Severity string

const (
	Critical Severity = "CRITICAL"
	Warning  Severity = "WARNING"
	Info     Severity = "INFO"
)

// Issue is one validation finding.
type Issue struct {
	Severity Severity
	Message  string
}

// Report is the structured output of a validation pass.
type Report struct {
	GeneratedAt time.Time
	Issues      []Issue
}

// Add appends a formatted issue.
func (r *Report) Add(sev Severity, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of issues at one severity.
func (r *Report) Count(sev Severity) int {
	var n int
	for _, i := range r.Issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

// Render produces the human-readable report grouped under severity headers.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 78) + "\n")
	b.WriteString("DISCLOSURE DATA VALIDATION REPORT\n")
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05"))
	b.WriteString(strings.Repeat("=", 78) + "\n")

	for _, sev := range []Severity{Critical, Warning, Info} {
		issues := r.bySeverity(sev)
		if len(issues) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", sev)
		b.WriteString(strings.Repeat("-", 78) + "\n")
		for _, i := range issues {
			fmt.Fprintf(&b, "  - %s\n", i.Message)
		}
	}

	if len(r.Issues) == 0 {
		b.WriteString("\nNo validation issues found\n")
	}
	return b.String()
}

func (r *Report) bySeverity(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Validator runs the check battery.
type Validator struct {
	cfg config.PipelineConfig
}

// New creates a Validator.
func New(cfg config.PipelineConfig) Validator {
	return Validator{cfg: cfg}
}

// Run inspects the detail rows and normalization counters and produces the
// report. now is injected for deterministic tests.
func (v Validator) Run(details []model.DetailRow, stats normalize.Stats, now time.Time) *Report {
	report := &Report{GeneratedAt: now}

	// One representative row per disclosure: flags are disclosure-level.
	perDisclosure := firstPerDisclosure(details)
	total := len(perDisclosure)
	if total == 0 {
		report.Add(Critical, "no disclosures survived normalization")
		return report
	}

	v.checkNormalization(report, stats)
	v.checkCompleteness(report, perDisclosure, total)
	v.checkOutliers(report, perDisclosure, total, now)
	v.checkCrossCalculation(report, perDisclosure)
	v.checkCoverage(report, perDisclosure, total)

	zap.L().Info("validation complete",
		zap.String("component", "validate"),
		zap.Int("critical", report.Count(Critical)),
		zap.Int("warnings", report.Count(Warning)),
		zap.Int("info", report.Count(Info)),
	)
	return report
}

func (v Validator) checkNormalization(report *Report, stats normalize.Stats) {
	if stats.BadStartDate > 0 {
		report.Add(Warning, "%d rows dropped for unparseable start dates", stats.BadStartDate)
	}
	if stats.EndDateDefaulted > 0 {
		report.Add(Info, "%d rows had missing end dates defaulted to the start date", stats.EndDateDefaulted)
	}
	if stats.NegativeClipped > 0 {
		report.Add(Warning, "%d rows had negative percentages clipped to 0", stats.NegativeClipped)
	}
	if stats.WaterCeilingDrops > 0 {
		report.Add(Warning, "%d rows dropped for water volume >= %.0f gal", stats.WaterCeilingDrops, v.cfg.WaterCeilingGal)
	}
	if stats.Duplicates > 0 {
		report.Add(Info, "%d duplicate ingredient rows removed", stats.Duplicates)
	}
}

func (v Validator) checkCompleteness(report *Report, rows []model.DetailRow, total int) {
	var missingGeo, excluded int
	for _, r := range rows {
		if r.StateName == "" || r.CountyName == "" {
			missingGeo++
		}
		if r.Excluded {
			excluded++
		}
	}
	if missingGeo > 0 {
		report.Add(Warning, "%d of %d disclosures (%.1f%%) missing state or county",
			missingGeo, total, pct(missingGeo, total))
	}
	if excluded > 0 {
		report.Add(Warning, "%d of %d disclosures (%.1f%%) excluded for missing volume data",
			excluded, total, pct(excluded, total))
	}
}

func (v Validator) checkOutliers(report *Report, rows []model.DetailRow, total int, now time.Time) {
	var longJobs, zeroDuration, implausible, highWater, future, pre2010, zeroProppant int
	maxDuration := 0
	cutoff2010 := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, r := range rows {
		if r.DurationDays > v.cfg.OutlierJobDays {
			longJobs++
			if r.DurationDays > maxDuration {
				maxDuration = r.DurationDays
			}
		}
		if r.DurationDays == 0 {
			zeroDuration++
		}
		if r.ImplausiblePercent {
			implausible++
		}
		if r.WaterGal > v.cfg.WaterWarnGal && v.cfg.WaterWarnGal > 0 {
			highWater++
		}
		if r.JobStart.After(now) {
			future++
		}
		if r.JobStart.Before(cutoff2010) {
			pre2010++
		}
		if !r.Excluded && r.ProppantLbs == 0 {
			zeroProppant++
		}
	}

	if longJobs > 0 {
		report.Add(Warning, "%d jobs with duration > %d days flagged for manual review (max: %d days)",
			longJobs, v.cfg.OutlierJobDays, maxDuration)
	}
	if zeroDuration > 0 {
		report.Add(Info, "%d jobs with 0-day duration (same start and end date)", zeroDuration)
	}
	if implausible > 0 {
		report.Add(Warning, "%d disclosures with proppant percent > %.0f%%",
			implausible, v.cfg.PercentPlausibleMax)
	}
	if highWater > 0 {
		report.Add(Warning, "%d disclosures with water > %.0fM gallons",
			highWater, v.cfg.WaterWarnGal/1e6)
	}
	if future > 0 {
		report.Add(Warning, "%d disclosures with future start dates", future)
	}
	if pre2010 > 0 {
		report.Add(Info, "%d disclosures before 2010 (may have limited chemical detail data)", pre2010)
	}
	if zeroProppant > 0 {
		report.Add(Info, "%d of %d disclosures (%.1f%%) with 0 proppant",
			zeroProppant, total, pct(zeroProppant, total))
	}
}

// checkCrossCalculation compares the two calculation strategies on a sample
// of disclosures that allow both, flagging large relative discrepancies.
func (v Validator) checkCrossCalculation(report *Report, rows []model.DetailRow) {
	sample := v.cfg.CrossCheckSample
	if sample <= 0 {
		sample = 100
	}

	var checked, discrepant int
	for _, r := range rows {
		if checked >= sample {
			break
		}
		if r.ReportedMassLbs == nil || r.ProxyMassLbs == nil || *r.ReportedMassLbs <= 0 {
			continue
		}
		checked++
		diff := math.Abs(*r.ProxyMassLbs-*r.ReportedMassLbs) / *r.ReportedMassLbs
		if diff > 0.20 {
			discrepant++
		}
	}
	if discrepant > 0 {
		report.Add(Info, "%d/%d sampled disclosures have >20%% discrepancy between reported and percentage-based mass",
			discrepant, checked)
	}
}

func (v Validator) checkCoverage(report *Report, rows []model.DetailRow, total int) {
	var other, atlas int
	for _, r := range rows {
		if r.Basin == "Other" {
			other++
		}
		if r.IsAtlas {
			atlas++
		}
	}
	if other > 0 {
		report.Add(Info, "%d of %d disclosures (%.1f%%) not classified into major basins",
			other, total, pct(other, total))
	}
	if atlas > 0 {
		report.Add(Info, "%d of %d disclosures (%.1f%%) attributed to the configured supplier",
			atlas, total, pct(atlas, total))
	}
}

// firstPerDisclosure keeps the first detail row of each disclosure, in input
// order. Allocation emits quarter shares in chronological order, so the first
// row carries the disclosure-level flags.
func firstPerDisclosure(rows []model.DetailRow) []model.DetailRow {
	seen := make(map[string]struct{}, len(rows))
	var out []model.DetailRow
	for _, r := range rows {
		if _, ok := seen[r.DisclosureID]; ok {
			continue
		}
		seen[r.DisclosureID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
