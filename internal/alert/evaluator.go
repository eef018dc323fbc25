// Package alert evaluates alert rules against status transitions, with
// per-rule cooldown debounce so a beach flapping near a threshold cannot
// cause an alert storm.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/observability"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

// Dispatcher receives alert events for delivery. Emission is
// fire-and-forget from the evaluator's perspective: delivery retries are
// the dispatcher's responsibility.
type Dispatcher interface {
	EmitAlert(ctx context.Context, event domain.AlertEvent) error
}

// Evaluator is the per-(beach, rule) alerting state machine. Transitions
// detected by the status compiler are queued via Observe and drained on
// the alert tick via RunPending.
type Evaluator struct {
	rules      store.AlertRuleStore
	dispatcher Dispatcher
	clock      clockwork.Clock

	// defaultCooldown applies to rules that declare no cooldown of their own.
	defaultCooldown time.Duration

	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	pending []domain.Transition
}

// Report summarizes one alert-check tick.
type Report struct {
	Evaluated  int
	Fired      int
	Suppressed int
}

// NewEvaluator wires the evaluator to its rule store and dispatcher.
func NewEvaluator(
	rules store.AlertRuleStore,
	dispatcher Dispatcher,
	clock clockwork.Clock,
	defaultCooldown time.Duration,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Evaluator {
	return &Evaluator{
		rules:           rules,
		dispatcher:      dispatcher,
		clock:           clock,
		defaultCooldown: defaultCooldown,
		logger:          logger,
		metrics:         metrics,
	}
}

// Observe queues a transition for the next alert check. Safe for
// concurrent use by parallel per-beach computations.
func (e *Evaluator) Observe(t domain.Transition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, t)
}

// PendingCount returns the number of queued transitions.
func (e *Evaluator) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// RunPending drains the queued transitions and evaluates every bound rule
// against each. A rule whose condition matches fires at most once per
// cooldown window; matches inside the window are counted as suppressed
// rather than silently dropped.
func (e *Evaluator) RunPending(ctx context.Context) (Report, error) {
	e.mu.Lock()
	batch := e.pending
	e.pending = nil
	e.mu.Unlock()

	var report Report
	for _, transition := range batch {
		if err := ctx.Err(); err != nil {
			// Requeue what we did not get to; the next tick picks it up.
			e.requeue(batch[report.Evaluated:])
			return report, err
		}
		r, err := e.evaluate(ctx, transition)
		report.Evaluated++
		report.Fired += r.Fired
		report.Suppressed += r.Suppressed
		if err != nil {
			// Put the transition back for the next tick. Rules that
			// already fired for it recorded their firing time, so the
			// retry cannot emit them twice.
			e.requeue([]domain.Transition{transition})
			e.logger.Error("alert evaluation failed, transition requeued",
				"beach_id", transition.BeachID, "from", transition.From, "to", transition.To, "error", err)
		}
	}
	return report, nil
}

func (e *Evaluator) requeue(transitions []domain.Transition) {
	if len(transitions) == 0 {
		return
	}
	e.mu.Lock()
	e.pending = append(transitions, e.pending...)
	e.mu.Unlock()
}

// evaluate checks all rules bound to the transition's beach (plus global
// rules) and fires the ones that match and are out of cooldown.
func (e *Evaluator) evaluate(ctx context.Context, transition domain.Transition) (Report, error) {
	rules, err := e.rules.ListForBeach(ctx, transition.BeachID)
	if err != nil {
		return Report{}, fmt.Errorf("list rules: %w", err)
	}

	var report Report
	now := e.clock.Now().UTC()
	for _, rule := range rules {
		if !rule.Trigger.Matches(transition.From, transition.To) {
			continue
		}
		if rule.Cooldown <= 0 {
			rule.Cooldown = e.defaultCooldown
		}
		if rule.InCooldown(now) {
			report.Suppressed++
			e.metrics.AlertsSuppressed.Inc()
			e.logger.Debug("alert suppressed by cooldown",
				"rule_id", rule.ID, "beach_id", transition.BeachID,
				"last_fired_at", rule.LastFiredAt, "cooldown", rule.Cooldown)
			continue
		}

		event := domain.AlertEvent{
			ID:      uuid.NewString(),
			BeachID: transition.BeachID,
			RuleID:  rule.ID,
			From:    transition.From,
			To:      transition.To,
			At:      transition.At,
			Reason:  transition.Reason,
		}
		if err := e.dispatcher.EmitAlert(ctx, event); err != nil {
			return report, fmt.Errorf("emit alert for rule %s: %w", rule.ID, err)
		}

		// Bookkeeping before anything else can match this rule again.
		if err := e.rules.UpdateLastFired(ctx, rule.ID, transition.BeachID, now); err != nil {
			return report, fmt.Errorf("update last fired for rule %s: %w", rule.ID, err)
		}
		report.Fired++
		e.metrics.AlertsEmitted.Inc()
		e.logger.Info("alert emitted",
			"rule_id", rule.ID, "beach_id", transition.BeachID,
			"from", transition.From, "to", transition.To)
	}
	return report, nil
}
