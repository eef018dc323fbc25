package domain

import "time"

// Observation is one authoritative metric value selected by aggregation,
// with the source and timestamp that supplied it.
type Observation struct {
	Value      float64   `json:"value"`
	Source     string    `json:"source"`
	ObservedAt time.Time `json:"observed_at"`
}

// Conditions holds the aggregated current value per metric for one beach
// at one computation instant. Metrics with no usable reading are simply
// absent, and absence — not a stale value — is what downstream layers see.
type Conditions struct {
	AsOf   time.Time              `json:"as_of"`
	Values map[Metric]Observation `json:"values,omitempty"`
}

// Get returns the aggregated observation for a metric, if one exists.
func (c Conditions) Get(m Metric) (Observation, bool) {
	obs, ok := c.Values[m]
	return obs, ok
}

// AllMissing reports whether no metric has a usable value.
func (c Conditions) AllMissing() bool {
	return len(c.Values) == 0
}

// AggregateReadings selects, per metric, the authoritative current value
// from a beach's readings as of the given instant.
//
// A reading contributes only if its timestamp is at or before asOf and no
// older than the staleness window. Among contributing readings for a
// metric, the most recent wins; equal timestamps break by source
// precedence, never by slice order. With no readings at all the result is
// all-missing — absence of data is a normal state, not an error.
func AggregateReadings(readings []Reading, asOf time.Time, staleness time.Duration, prec SourcePrecedence) Conditions {
	cutoff := asOf.Add(-staleness)
	best := make(map[Metric]Observation)

	for _, r := range readings {
		if r.Timestamp.After(asOf) || r.Timestamp.Before(cutoff) {
			continue
		}
		for metric, value := range r.Values {
			obs := Observation{Value: value, Source: r.Source, ObservedAt: r.Timestamp}
			cur, ok := best[metric]
			if !ok || supersedes(obs, cur, prec) {
				best[metric] = obs
			}
		}
	}

	if len(best) == 0 {
		best = nil
	}
	return Conditions{AsOf: asOf, Values: best}
}

// supersedes reports whether candidate should replace current: strictly
// newer wins, and a timestamp tie goes to the higher-precedence source.
func supersedes(candidate, current Observation, prec SourcePrecedence) bool {
	if candidate.ObservedAt.After(current.ObservedAt) {
		return true
	}
	if candidate.ObservedAt.Equal(current.ObservedAt) {
		return prec.Rank(candidate.Source) < prec.Rank(current.Source)
	}
	return false
}
