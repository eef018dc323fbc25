package domain

import "time"

// OverrideType distinguishes the three kinds of administrative override.
type OverrideType string

const (
	// OverrideStatusLock forces the status to the override's declared value.
	OverrideStatusLock OverrideType = "status_lock"
	// OverrideClosure closes the beach: status is forced to dangerous and
	// the closure is flagged in the reason. Closure outranks a status lock.
	OverrideClosure OverrideType = "closure"
	// OverrideNotice attaches a message to the reason without changing status.
	OverrideNotice OverrideType = "notice"
)

// Valid reports whether t is a known override type.
func (t OverrideType) Valid() bool {
	switch t {
	case OverrideStatusLock, OverrideClosure, OverrideNotice:
		return true
	}
	return false
}

// ManualOverride is an administrator-issued, time-bounded directive that
// supersedes computed status. Value holds the forced status for a
// status_lock, or free text (closure reason, notice body) otherwise.
type ManualOverride struct {
	ID        string       `json:"id" db:"id"`
	BeachID   int64        `json:"beach_id" db:"beach_id"`
	Type      OverrideType `json:"override_type" db:"override_type"`
	Value     string       `json:"value" db:"value"`
	Reason    string       `json:"reason,omitempty" db:"reason"`
	StartsAt  time.Time    `json:"starts_at" db:"starts_at"`
	EndsAt    time.Time    `json:"ends_at" db:"ends_at"`
	IsActive  bool         `json:"is_active" db:"is_active"`
	CreatedBy string       `json:"created_by" db:"admin_user_id"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// InEffectAt reports whether the override applies at the given instant:
// it is active and now falls within [StartsAt, EndsAt].
func (o ManualOverride) InEffectAt(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	if now.Before(o.StartsAt) {
		return false
	}
	return !now.After(o.EndsAt)
}

// ForcedStatus returns the status a status_lock override declares.
// The second return is false for other override types or an unparsable value.
func (o ManualOverride) ForcedStatus() (Status, bool) {
	if o.Type != OverrideStatusLock {
		return "", false
	}
	st, err := ParseStatus(o.Value)
	if err != nil {
		return "", false
	}
	return st, true
}
