package domain

import "fmt"

// Thresholds holds the per-beach classification boundaries for the two
// tracked metrics. Values at or below SafeMax classify as safe, values at
// or below CautionMax as caution, anything above as dangerous.
type Thresholds struct {
	WaveSafeMax    float64 `json:"wave_safe_max" db:"wave_threshold_safe"`
	WaveCautionMax float64 `json:"wave_caution_max" db:"wave_threshold_caution"`
	WindSafeMax    float64 `json:"wind_safe_max" db:"wind_threshold_safe"`
	WindCautionMax float64 `json:"wind_caution_max" db:"wind_threshold_caution"`
}

// DefaultThresholds are applied to beaches whose configuration carries no
// thresholds of its own: wave height 3.0/6.0 ft, wind 15/25 mph.
var DefaultThresholds = Thresholds{
	WaveSafeMax:    3.0,
	WaveCautionMax: 6.0,
	WindSafeMax:    15.0,
	WindCautionMax: 25.0,
}

// IsZero reports whether no thresholds are set.
func (t Thresholds) IsZero() bool {
	return t == Thresholds{}
}

// Validate enforces the safe-max < caution-max invariant per metric.
func (t Thresholds) Validate() error {
	if t.WaveSafeMax <= 0 || t.WaveCautionMax <= 0 || t.WindSafeMax <= 0 || t.WindCautionMax <= 0 {
		return fmt.Errorf("thresholds must be positive: %+v", t)
	}
	if t.WaveSafeMax >= t.WaveCautionMax {
		return fmt.Errorf("wave safe-max %.1f must be below caution-max %.1f", t.WaveSafeMax, t.WaveCautionMax)
	}
	if t.WindSafeMax >= t.WindCautionMax {
		return fmt.Errorf("wind safe-max %.1f must be below caution-max %.1f", t.WindSafeMax, t.WindCautionMax)
	}
	return nil
}

// Beach is a monitored location. It is owned by the admin/configuration
// flow; the status engine only ever reads it.
type Beach struct {
	ID   int64   `json:"id" db:"id"`
	Name string  `json:"name" db:"name"`
	Slug string  `json:"slug" db:"slug"`
	Lat  float64 `json:"lat" db:"lat"`
	Lng  float64 `json:"lng" db:"lng"`
	// StationID names the NOAA station polled for this beach; empty when
	// readings arrive only through the broker.
	StationID  string     `json:"station_id,omitempty" db:"station_id"`
	Thresholds Thresholds `json:"thresholds"`
	Active     bool       `json:"is_active" db:"is_active"`
}

// EffectiveThresholds returns the beach's own thresholds, or the defaults
// when the beach carries none.
func (b Beach) EffectiveThresholds() Thresholds {
	if b.Thresholds.IsZero() {
		return DefaultThresholds
	}
	return b.Thresholds
}
