package domain

// ApplyAdvisories is the second pipeline stage: it merges the advisories
// active at computation time into the candidate determination.
//
// A danger advisory forces the status to dangerous. A warning advisory
// raises the status to at least caution but never lowers it. An info
// advisory leaves the status alone. Any active advisory sets HasAdvisory,
// and every contributing advisory ID lands in the reason so the effect is
// traceable to its sources.
//
// Callers pass only advisories already filtered to active-at-now; the
// function does not re-check validity windows.
func ApplyAdvisories(d Determination, advisories []Advisory) Determination {
	if len(advisories) == 0 {
		return d
	}

	d.HasAdvisory = true
	var worst AdvisorySeverity
	for _, a := range advisories {
		d.Reason.AdvisoryIDs = append(d.Reason.AdvisoryIDs, a.ID)
		if a.Severity.Outranks(worst) {
			worst = a.Severity
		}
	}
	d.Reason.AdvisorySeverity = worst

	switch worst {
	case SeverityDanger:
		d.Status = StatusDangerous
	case SeverityWarning:
		d.Status = WorstStatus(d.Status, StatusCaution)
	}
	return d
}
