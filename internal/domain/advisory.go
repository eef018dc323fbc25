package domain

import "time"

// AdvisorySeverity grades an official advisory's effect on status.
type AdvisorySeverity string

const (
	SeverityInfo    AdvisorySeverity = "info"
	SeverityWarning AdvisorySeverity = "warning"
	SeverityDanger  AdvisorySeverity = "danger"
)

var advisoryRank = map[AdvisorySeverity]int{
	SeverityInfo:    1,
	SeverityWarning: 2,
	SeverityDanger:  3,
}

// Valid reports whether s is a known severity.
func (s AdvisorySeverity) Valid() bool {
	_, ok := advisoryRank[s]
	return ok
}

// Outranks reports whether s is strictly more severe than other.
func (s AdvisorySeverity) Outranks(other AdvisorySeverity) bool {
	return advisoryRank[s] > advisoryRank[other]
}

// AdvisoryStatus is the lifecycle state of an advisory record.
type AdvisoryStatus string

const (
	AdvisoryActive   AdvisoryStatus = "active"
	AdvisoryResolved AdvisoryStatus = "resolved"
)

// Advisory is an official time-bounded warning from an external authority
// (e.g. a water-quality advisory from the Department of Health, or a high
// surf advisory from the NWS).
type Advisory struct {
	ID          string           `json:"id" db:"id"`
	BeachID     int64            `json:"beach_id" db:"beach_id"`
	Source      string           `json:"source" db:"source"`
	Status      AdvisoryStatus   `json:"status" db:"status"`
	Severity    AdvisorySeverity `json:"severity" db:"severity"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description,omitempty" db:"description"`
	URL         string           `json:"url,omitempty" db:"url"`
	StartedAt   time.Time        `json:"started_at" db:"started_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty" db:"resolved_at"`
}

// ActiveAt reports whether the advisory affects status computation at the
// given instant: its record is active, it has started, and it has not
// ended (no resolution time, or a resolution time still in the future).
func (a Advisory) ActiveAt(now time.Time) bool {
	if a.Status != AdvisoryActive {
		return false
	}
	if a.StartedAt.After(now) {
		return false
	}
	if a.ResolvedAt != nil && !a.ResolvedAt.After(now) {
		return false
	}
	return true
}
