package domain

import "time"

// Metric identifies one measured quantity. The string values double as
// column/field names in storage and on the wire.
type Metric string

const (
	MetricWaveHeightFt  Metric = "wave_height_ft"
	MetricWavePeriodSec Metric = "wave_period_sec"
	MetricWindMph       Metric = "wind_mph"
	MetricWindDirDeg    Metric = "wind_dir_deg"
	MetricWaterTempF    Metric = "water_temp_f"
	MetricTideFt        Metric = "tide_ft"
)

// Metrics lists every tracked measurement type.
var Metrics = []Metric{
	MetricWaveHeightFt,
	MetricWavePeriodSec,
	MetricWindMph,
	MetricWindDirDeg,
	MetricWaterTempF,
	MetricTideFt,
}

// ThresholdMetrics are the metrics that drive threshold classification.
var ThresholdMetrics = []Metric{MetricWaveHeightFt, MetricWindMph}

// SourceManual is the reserved source name for hand-entered readings.
// It always wins source-precedence ties.
const SourceManual = "manual"

// Reading is one timestamped batch of measurements from a single source.
// Values is sparse: a source reports only the metrics it knows. Readings
// are append-only and never mutated after creation.
type Reading struct {
	BeachID   int64              `json:"beach_id"`
	Timestamp time.Time          `json:"ts"`
	Source    string             `json:"source"`
	Values    map[Metric]float64 `json:"values"`
}

// SourcePrecedence is an ordered list of source names, highest precedence
// first. Sources not in the list rank below every listed source, equal to
// one another.
type SourcePrecedence []string

// DefaultSourcePrecedence reflects the production feed hierarchy: manual
// entries, then the NOAA station feed, then the PacIOOS model feed.
var DefaultSourcePrecedence = SourcePrecedence{SourceManual, "noaa", "pacioos"}

// Rank returns the precedence rank of a source; lower is better. Unlisted
// sources all share the rank just past the end of the list.
func (p SourcePrecedence) Rank(source string) int {
	for i, s := range p {
		if s == source {
			return i
		}
	}
	return len(p)
}
