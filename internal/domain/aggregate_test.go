package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrecedence = SourcePrecedence{"manual", "noaa", "pacioos"}

func TestAggregateReadings(t *testing.T) {
	asOf := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)
	staleness := time.Hour

	t.Run("most recent value per metric wins", func(t *testing.T) {
		readings := []Reading{
			{BeachID: 1, Timestamp: asOf.Add(-30 * time.Minute), Source: "noaa",
				Values: map[Metric]float64{MetricWaveHeightFt: 2.0}},
			{BeachID: 1, Timestamp: asOf.Add(-10 * time.Minute), Source: "noaa",
				Values: map[Metric]float64{MetricWaveHeightFt: 4.5}},
		}

		cond := AggregateReadings(readings, asOf, staleness, testPrecedence)

		obs, ok := cond.Get(MetricWaveHeightFt)
		require.True(t, ok)
		assert.Equal(t, 4.5, obs.Value)
		assert.Equal(t, asOf.Add(-10*time.Minute), obs.ObservedAt)
	})

	t.Run("timestamp tie breaks by source precedence", func(t *testing.T) {
		ts := asOf.Add(-5 * time.Minute)
		readings := []Reading{
			{BeachID: 1, Timestamp: ts, Source: "pacioos",
				Values: map[Metric]float64{MetricWindMph: 18.0}},
			{BeachID: 1, Timestamp: ts, Source: "manual",
				Values: map[Metric]float64{MetricWindMph: 12.0}},
			{BeachID: 1, Timestamp: ts, Source: "noaa",
				Values: map[Metric]float64{MetricWindMph: 15.0}},
		}

		cond := AggregateReadings(readings, asOf, staleness, testPrecedence)

		obs, ok := cond.Get(MetricWindMph)
		require.True(t, ok)
		assert.Equal(t, "manual", obs.Source)
		assert.Equal(t, 12.0, obs.Value)
	})

	t.Run("tie break is order independent", func(t *testing.T) {
		ts := asOf.Add(-5 * time.Minute)
		forward := []Reading{
			{BeachID: 1, Timestamp: ts, Source: "manual", Values: map[Metric]float64{MetricWindMph: 12.0}},
			{BeachID: 1, Timestamp: ts, Source: "pacioos", Values: map[Metric]float64{MetricWindMph: 18.0}},
		}
		reversed := []Reading{forward[1], forward[0]}

		a := AggregateReadings(forward, asOf, staleness, testPrecedence)
		b := AggregateReadings(reversed, asOf, staleness, testPrecedence)

		obsA, _ := a.Get(MetricWindMph)
		obsB, _ := b.Get(MetricWindMph)
		assert.Equal(t, obsA, obsB)
		assert.Equal(t, "manual", obsA.Source)
	})

	t.Run("unlisted sources rank below listed and tie with each other", func(t *testing.T) {
		ts := asOf.Add(-5 * time.Minute)
		readings := []Reading{
			{BeachID: 1, Timestamp: ts, Source: "calc", Values: map[Metric]float64{MetricTideFt: 1.1}},
			{BeachID: 1, Timestamp: ts, Source: "pacioos", Values: map[Metric]float64{MetricTideFt: 0.9}},
		}

		cond := AggregateReadings(readings, asOf, staleness, testPrecedence)

		obs, ok := cond.Get(MetricTideFt)
		require.True(t, ok)
		assert.Equal(t, "pacioos", obs.Source)
	})

	t.Run("reading older than staleness window is missing", func(t *testing.T) {
		readings := []Reading{
			{BeachID: 1, Timestamp: asOf.Add(-2 * time.Hour), Source: "noaa",
				Values: map[Metric]float64{MetricWaveHeightFt: 9.9}},
		}

		cond := AggregateReadings(readings, asOf, staleness, testPrecedence)

		_, ok := cond.Get(MetricWaveHeightFt)
		assert.False(t, ok, "stale value must be treated as missing, not used")
	})

	t.Run("reading exactly at the staleness cutoff still counts", func(t *testing.T) {
		readings := []Reading{
			{BeachID: 1, Timestamp: asOf.Add(-staleness), Source: "noaa",
				Values: map[Metric]float64{MetricWaveHeightFt: 3.2}},
		}

		cond := AggregateReadings(readings, asOf, staleness, testPrecedence)

		_, ok := cond.Get(MetricWaveHeightFt)
		assert.True(t, ok)
	})

	t.Run("reading after asOf is ignored", func(t *testing.T) {
		readings := []Reading{
			{BeachID: 1, Timestamp: asOf.Add(time.Minute), Source: "noaa",
				Values: map[Metric]float64{MetricWaveHeightFt: 6.0}},
		}

		cond := AggregateReadings(readings, asOf, staleness, testPrecedence)

		assert.True(t, cond.AllMissing())
	})

	t.Run("sparse readings merge across sources", func(t *testing.T) {
		readings := []Reading{
			{BeachID: 1, Timestamp: asOf.Add(-20 * time.Minute), Source: "noaa",
				Values: map[Metric]float64{MetricWaveHeightFt: 3.1, MetricWavePeriodSec: 11}},
			{BeachID: 1, Timestamp: asOf.Add(-15 * time.Minute), Source: "pacioos",
				Values: map[Metric]float64{MetricWindMph: 9.0}},
		}

		cond := AggregateReadings(readings, asOf, staleness, testPrecedence)

		assert.Len(t, cond.Values, 3)
		wind, _ := cond.Get(MetricWindMph)
		assert.Equal(t, "pacioos", wind.Source)
		wave, _ := cond.Get(MetricWaveHeightFt)
		assert.Equal(t, "noaa", wave.Source)
	})

	t.Run("no readings yields all-missing, not an error", func(t *testing.T) {
		cond := AggregateReadings(nil, asOf, staleness, testPrecedence)

		assert.True(t, cond.AllMissing())
		assert.Equal(t, asOf, cond.AsOf)
	})
}

func TestSourcePrecedenceRank(t *testing.T) {
	p := SourcePrecedence{"manual", "noaa"}

	assert.Equal(t, 0, p.Rank("manual"))
	assert.Equal(t, 1, p.Rank("noaa"))
	assert.Equal(t, 2, p.Rank("pacioos"))
	assert.Equal(t, 2, p.Rank("calc"), "all unlisted sources share the bottom rank")
}
