package domain

import "time"

// MetricComparison records one threshold classification for the reason
// payload: the value used, the boundaries it was compared against, the
// resulting band, and which source/timestamp supplied the value.
type MetricComparison struct {
	Metric     Metric    `json:"metric"`
	Value      float64   `json:"value"`
	SafeMax    float64   `json:"safe_max"`
	CautionMax float64   `json:"caution_max"`
	Band       Status    `json:"band"`
	Source     string    `json:"source,omitempty"`
	ObservedAt time.Time `json:"observed_at,omitempty"`
}

// Reason is the structured explanation attached to every snapshot. Each
// pipeline layer appends what it contributed, so auditors can explain a
// historical status without recomputing it.
type Reason struct {
	Comparisons    []MetricComparison `json:"comparisons,omitempty"`
	MissingMetrics []Metric           `json:"missing_metrics,omitempty"`

	AdvisoryIDs      []string         `json:"advisory_ids,omitempty"`
	AdvisorySeverity AdvisorySeverity `json:"advisory_severity,omitempty"`

	OverrideID   string       `json:"override_id,omitempty"`
	OverrideType OverrideType `json:"override_type,omitempty"`
	Closed       bool         `json:"closed,omitempty"`
	Notices      []string     `json:"notices,omitempty"`
}

// StatusSnapshot is the immutable historical record of one computed
// status. Exactly one snapshot exists per (beach, timestamp); the unique
// key is enforced by storage and makes recomputation idempotent.
type StatusSnapshot struct {
	BeachID      int64     `json:"beach_id" db:"beach_id"`
	Timestamp    time.Time `json:"ts" db:"ts"`
	Status       Status    `json:"status" db:"status"`
	WaveHeightFt *float64  `json:"wave_height_ft,omitempty" db:"wave_height_ft"`
	WindMph      *float64  `json:"wind_mph,omitempty" db:"wind_mph"`
	HasAdvisory  bool      `json:"has_advisory" db:"has_advisory"`
	Reason       Reason    `json:"reason"`
}

// Transition is a detected status change for one beach, produced by the
// compiler when a new snapshot differs from the latest prior one.
type Transition struct {
	BeachID int64     `json:"beach_id"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
	At      time.Time `json:"at"`
	Reason  Reason    `json:"reason"`
}
