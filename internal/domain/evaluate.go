package domain

// Determination is the status-with-reason value threaded through the
// layered pipeline. Each stage returns a new value and may only raise the
// severity or force an absolute status, never silently lower it.
type Determination struct {
	Status      Status
	HasAdvisory bool
	Reason      Reason
}

// EvaluateThresholds is the first pipeline stage: it classifies the
// aggregated conditions against the beach's thresholds and produces the
// candidate status.
//
// Each tracked metric bands independently — safe (value ≤ safe-max),
// caution (≤ caution-max), dangerous (above) — and the candidate is the
// worst band. Boundary values land in the lower-risk band. With both
// tracked metrics missing the candidate is unknown; with one missing,
// the available metric classifies alone.
func EvaluateThresholds(cond Conditions, t Thresholds) Determination {
	d := Determination{Status: StatusUnknown}

	for _, metric := range ThresholdMetrics {
		safeMax, cautionMax := t.boundsFor(metric)

		obs, ok := cond.Get(metric)
		if !ok {
			d.Reason.MissingMetrics = append(d.Reason.MissingMetrics, metric)
			continue
		}

		band := classifyValue(obs.Value, safeMax, cautionMax)
		d.Reason.Comparisons = append(d.Reason.Comparisons, MetricComparison{
			Metric:     metric,
			Value:      obs.Value,
			SafeMax:    safeMax,
			CautionMax: cautionMax,
			Band:       band,
			Source:     obs.Source,
			ObservedAt: obs.ObservedAt,
		})
		d.Status = WorstStatus(d.Status, band)
	}

	return d
}

// classifyValue bands a single value. Comparisons are inclusive so a
// value sitting exactly on a threshold does not flap across it.
func classifyValue(value, safeMax, cautionMax float64) Status {
	switch {
	case value <= safeMax:
		return StatusSafe
	case value <= cautionMax:
		return StatusCaution
	default:
		return StatusDangerous
	}
}

// boundsFor returns the (safe-max, caution-max) pair for a tracked metric.
func (t Thresholds) boundsFor(m Metric) (float64, float64) {
	if m == MetricWindMph {
		return t.WindSafeMax, t.WindCautionMax
	}
	return t.WaveSafeMax, t.WaveCautionMax
}
