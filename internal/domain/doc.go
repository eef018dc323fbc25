// Package domain models beach safety status determination.
//
// # Status Scale
//
// A beach's status is one of four discrete values:
//
//	safe       conditions within the beach's safe thresholds (display: green)
//	caution    at least one tracked metric in its caution band (display: yellow)
//	dangerous  a tracked metric beyond its caution threshold, an active
//	           danger advisory, or an administrative closure (display: red)
//	unknown    no usable measurements (display: gray)
//
// Severity is ordered safe < caution < dangerous. The status pipeline only
// ever raises severity or forces an absolute value; no layer lowers a
// status computed by a layer beneath it.
//
// # Measurement Conventions
//
// Readings carry a sparse set of metric values keyed by metric name. Units
// follow the upstream feeds: wave height in feet, wave period in seconds,
// wind speed in mph, wind direction in degrees, water temperature in °F,
// tide level in feet relative to MLLW.
//
// Sources are free-form strings with a configured precedence order:
//
//	manual > primary live feed (noaa) > secondary live feed (pacioos) > others
//
// When two readings for the same metric share a timestamp, the value from
// the higher-precedence source wins. A metric with no reading inside the
// staleness window is missing, not stale-but-usable: missing tracked
// metrics degrade toward unknown rather than silently reusing old numbers.
//
// # Layered Determination
//
// Status is computed by an ordered pipeline of pure functions over a
// shared Determination value:
//
//	EvaluateThresholds  measured values vs. per-beach thresholds
//	ApplyAdvisories     official advisories raise or force the status
//	ApplyOverrides      administrative overrides outrank everything
//
// Threshold comparisons are inclusive: a value exactly equal to a
// threshold classifies into the lower-risk band, so a beach sitting
// exactly on its safe-max does not flap between safe and caution.
//
// Every layer records what it contributed in the Determination's Reason,
// so any historical snapshot can be explained without recomputation.
package domain
