package domain

import "time"

// TriggerKind selects how an alert rule matches a transition.
type TriggerKind string

const (
	// TriggerBecomes matches any transition into the rule's To status.
	TriggerBecomes TriggerKind = "becomes"
	// TriggerChanges matches a transition from the rule's From status to
	// its To status, both exact.
	TriggerChanges TriggerKind = "changes"
	// TriggerAnyChange matches every status change.
	TriggerAnyChange TriggerKind = "any_change"
)

// AlertTrigger is a rule's matching condition against (from, to) statuses.
type AlertTrigger struct {
	Kind TriggerKind `json:"kind"`
	From Status      `json:"from,omitempty"`
	To   Status      `json:"to,omitempty"`
}

// Matches reports whether a transition from one status to another
// satisfies the trigger.
func (t AlertTrigger) Matches(from, to Status) bool {
	if from == to {
		return false
	}
	switch t.Kind {
	case TriggerBecomes:
		return to == t.To
	case TriggerChanges:
		return from == t.From && to == t.To
	case TriggerAnyChange:
		return true
	}
	return false
}

// AlertRule binds a trigger and cooldown to a beach. A nil BeachID makes
// the rule global (evaluated for every beach). The rule definition is
// read-only to the engine; LastFiredAt is the engine's own bookkeeping,
// resolved per (rule, beach) when rules are loaded for a beach.
type AlertRule struct {
	ID          string        `json:"id" db:"id"`
	BeachID     *int64        `json:"beach_id,omitempty" db:"beach_id"`
	Trigger     AlertTrigger  `json:"trigger"`
	Cooldown    time.Duration `json:"cooldown"`
	LastFiredAt *time.Time    `json:"last_fired_at,omitempty" db:"last_fired_at"`
}

// InCooldown reports whether firing at now would violate the rule's
// cooldown given its last firing time. A rule that never fired is never
// in cooldown. Zero or negative cooldowns are resolved by the evaluator
// to its configured default before this is called.
func (r AlertRule) InCooldown(now time.Time) bool {
	if r.LastFiredAt == nil {
		return false
	}
	return now.Sub(*r.LastFiredAt) < r.Cooldown
}

// AlertEvent is the notification event handed to the dispatcher when a
// rule fires. Delivery (and delivery retries) belong to the dispatcher.
type AlertEvent struct {
	ID      string    `json:"id"`
	BeachID int64     `json:"beach_id"`
	RuleID  string    `json:"rule_id"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
	At      time.Time `json:"at"`
	Reason  Reason    `json:"reason"`
}
