package allocate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgordon67/frac-focus/internal/config"
	"github.com/tgordon67/frac-focus/internal/model"
)

func testCfg() config.PipelineConfig {
	return config.PipelineConfig{
		ShortJobMaxDays: 45,
		OutlierJobDays:  365,
	}
}

func job(start string, days int) *model.Disclosure {
	t, err := time.Parse("2006-01-02", start)
	if err != nil {
		panic(err)
	}
	return &model.Disclosure{
		ID:           "d1",
		JobStart:     t.UTC(),
		JobEnd:       t.UTC().AddDate(0, 0, days),
		DurationDays: days,
	}
}

func sumShares(shares []model.QuarterShare) (prop, water float64) {
	for _, s := range shares {
		prop += s.ProppantLbs
		water += s.WaterGal
	}
	return prop, water
}

func TestAllocateShortJob(t *testing.T) {
	a := New(testCfg())
	alloc := a.Allocate(job("2024-02-10", 4), 1000, 500)

	require.Len(t, alloc.Shares, 1)
	assert.Equal(t, "2024Q1", alloc.Shares[0].Quarter.Label())
	assert.Equal(t, 1000.0, alloc.Shares[0].ProppantLbs)
	assert.Equal(t, 500.0, alloc.Shares[0].WaterGal)
	assert.False(t, alloc.OutlierLongJob)
}

func TestAllocateBoundarySpanning(t *testing.T) {
	// 60-day job from 2023-12-01: 31 days in 2023Q4, 29 days in 2024Q1.
	a := New(testCfg())
	alloc := a.Allocate(job("2023-12-01", 60), 6000, 0)

	require.Len(t, alloc.Shares, 2)
	assert.Equal(t, "2023Q4", alloc.Shares[0].Quarter.Label())
	assert.Equal(t, "2024Q1", alloc.Shares[1].Quarter.Label())
	assert.InDelta(t, 6000*31.0/60.0, alloc.Shares[0].ProppantLbs, 1e-9)
	assert.InDelta(t, 6000*29.0/60.0, alloc.Shares[1].ProppantLbs, 1e-9)

	prop, _ := sumShares(alloc.Shares)
	assert.Equal(t, 6000.0, prop) // exact, not just within tolerance
}

func TestAllocateConservation(t *testing.T) {
	a := New(testCfg())
	target := 1_234_567.89
	water := 9_876_543.21

	for _, days := range []int{0, 1, 44, 45, 46, 200, 365, 366, 10000} {
		alloc := a.Allocate(job("2023-11-17", days), target, water)

		prop, wat := sumShares(alloc.Shares)
		assert.InEpsilon(t, target, prop, 1e-6, "duration %d days", days)
		assert.InEpsilon(t, water, wat, 1e-6, "duration %d days", days)
	}
}

func TestAllocateShortTierBoundary(t *testing.T) {
	a := New(testCfg())

	// Exactly 45 days: still a single-quarter allocation at the start quarter.
	alloc := a.Allocate(job("2023-12-01", 45), 1000, 0)
	require.Len(t, alloc.Shares, 1)
	assert.Equal(t, "2023Q4", alloc.Shares[0].Quarter.Label())

	// 46 days from the same start crosses into proportional territory.
	alloc = a.Allocate(job("2023-12-01", 46), 1000, 0)
	require.Len(t, alloc.Shares, 2)
}

func TestAllocateOutlierFlaggedNotExcluded(t *testing.T) {
	a := New(testCfg())
	alloc := a.Allocate(job("2020-01-01", 366), 1000, 0)

	assert.True(t, alloc.OutlierLongJob)
	assert.NotEmpty(t, alloc.Shares)
	prop, _ := sumShares(alloc.Shares)
	assert.InEpsilon(t, 1000.0, prop, 1e-9)
}

func TestAllocateQuarterOrdering(t *testing.T) {
	a := New(testCfg())
	alloc := a.Allocate(job("2022-02-01", 400), 1000, 0)

	require.Greater(t, len(alloc.Shares), 4)
	for i := 1; i < len(alloc.Shares); i++ {
		assert.True(t, alloc.Shares[i-1].Quarter.Before(alloc.Shares[i].Quarter))
	}
}

func TestAllocateSpanDaysPartition(t *testing.T) {
	// A full-year job starting on a quarter boundary splits into exact
	// quarter-length spans.
	a := New(testCfg())
	alloc := a.Allocate(job("2023-01-01", 365), 365, 0)

	require.Len(t, alloc.Shares, 4)
	assert.InDelta(t, 90.0, alloc.Shares[0].ProppantLbs, 1e-9)  // Q1 2023: 90 days
	assert.InDelta(t, 91.0, alloc.Shares[1].ProppantLbs, 1e-9)  // Q2: 91
	assert.InDelta(t, 92.0, alloc.Shares[2].ProppantLbs, 1e-9)  // Q3: 92
	assert.InDelta(t, 92.0, alloc.Shares[3].ProppantLbs, 1e-9)  // Q4: 92
}

func TestAllocateZeroQuantity(t *testing.T) {
	a := New(testCfg())
	alloc := a.Allocate(job("2023-12-01", 60), 0, 0)
	prop, wat := sumShares(alloc.Shares)
	assert.True(t, math.Abs(prop) < 1e-12)
	assert.True(t, math.Abs(wat) < 1e-12)
}
