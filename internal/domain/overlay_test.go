package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func advisory(id string, severity AdvisorySeverity) Advisory {
	return Advisory{
		ID:       id,
		BeachID:  1,
		Source:   "doh",
		Status:   AdvisoryActive,
		Severity: severity,
		Title:    "test advisory",
	}
}

func TestApplyAdvisories(t *testing.T) {
	t.Run("danger forces dangerous from any candidate", func(t *testing.T) {
		for _, candidate := range []Status{StatusUnknown, StatusSafe, StatusCaution, StatusDangerous} {
			d := ApplyAdvisories(Determination{Status: candidate}, []Advisory{advisory("a1", SeverityDanger)})
			assert.Equal(t, StatusDangerous, d.Status, "candidate %s", candidate)
			assert.True(t, d.HasAdvisory)
		}
	})

	t.Run("warning raises safe to caution", func(t *testing.T) {
		d := ApplyAdvisories(Determination{Status: StatusSafe}, []Advisory{advisory("a1", SeverityWarning)})
		assert.Equal(t, StatusCaution, d.Status)
	})

	t.Run("warning never lowers an already worse status", func(t *testing.T) {
		d := ApplyAdvisories(Determination{Status: StatusCaution}, []Advisory{advisory("a1", SeverityWarning)})
		assert.Equal(t, StatusCaution, d.Status)

		d = ApplyAdvisories(Determination{Status: StatusDangerous}, []Advisory{advisory("a1", SeverityWarning)})
		assert.Equal(t, StatusDangerous, d.Status)
	})

	t.Run("info never changes status but is recorded", func(t *testing.T) {
		for _, candidate := range []Status{StatusUnknown, StatusSafe, StatusCaution, StatusDangerous} {
			d := ApplyAdvisories(Determination{Status: candidate}, []Advisory{advisory("a1", SeverityInfo)})
			assert.Equal(t, candidate, d.Status, "candidate %s", candidate)
			assert.True(t, d.HasAdvisory)
			assert.Equal(t, []string{"a1"}, d.Reason.AdvisoryIDs)
		}
	})

	t.Run("multiple advisories apply the highest severity and record all IDs", func(t *testing.T) {
		advisories := []Advisory{
			advisory("a1", SeverityInfo),
			advisory("a2", SeverityDanger),
			advisory("a3", SeverityWarning),
		}

		d := ApplyAdvisories(Determination{Status: StatusSafe}, advisories)

		assert.Equal(t, StatusDangerous, d.Status)
		assert.Equal(t, SeverityDanger, d.Reason.AdvisorySeverity)
		assert.ElementsMatch(t, []string{"a1", "a2", "a3"}, d.Reason.AdvisoryIDs)
	})

	t.Run("no advisories is a no-op", func(t *testing.T) {
		in := Determination{Status: StatusCaution}
		d := ApplyAdvisories(in, nil)

		assert.Equal(t, in, d)
		assert.False(t, d.HasAdvisory)
	})
}

func TestAdvisoryActiveAt(t *testing.T) {
	now := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)
	resolved := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		adv  Advisory
		want bool
	}{
		{"active with no end", Advisory{Status: AdvisoryActive, StartedAt: now.Add(-time.Hour)}, true},
		{"active with future end", Advisory{Status: AdvisoryActive, StartedAt: now.Add(-time.Hour), ResolvedAt: &future}, true},
		{"resolved record", Advisory{Status: AdvisoryResolved, StartedAt: now.Add(-time.Hour)}, false},
		{"end time in the past", Advisory{Status: AdvisoryActive, StartedAt: now.Add(-2 * time.Hour), ResolvedAt: &resolved}, false},
		{"not yet started", Advisory{Status: AdvisoryActive, StartedAt: future}, false},
		{"starts exactly now", Advisory{Status: AdvisoryActive, StartedAt: now}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.adv.ActiveAt(now))
		})
	}
}

func TestAdvisorySeverity(t *testing.T) {
	require.True(t, SeverityDanger.Outranks(SeverityWarning))
	require.True(t, SeverityWarning.Outranks(SeverityInfo))
	require.False(t, SeverityInfo.Outranks(SeverityInfo))
	require.True(t, SeverityInfo.Outranks(""), "any known severity outranks the zero value")
}
