package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func override(id string, typ OverrideType, value string, createdAt time.Time) ManualOverride {
	return ManualOverride{
		ID:        id,
		BeachID:   1,
		Type:      typ,
		Value:     value,
		IsActive:  true,
		CreatedBy: "admin",
		CreatedAt: createdAt,
	}
}

func TestApplyOverrides(t *testing.T) {
	t1 := time.Date(2026, 7, 14, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	t.Run("closure forces dangerous regardless of candidate", func(t *testing.T) {
		for _, candidate := range []Status{StatusUnknown, StatusSafe, StatusCaution} {
			d := ApplyOverrides(Determination{Status: candidate},
				[]ManualOverride{override("o1", OverrideClosure, "shark sighting", t1)})

			assert.Equal(t, StatusDangerous, d.Status, "candidate %s", candidate)
			assert.True(t, d.Reason.Closed)
			assert.Equal(t, "o1", d.Reason.OverrideID)
			assert.Equal(t, OverrideClosure, d.Reason.OverrideType)
		}
	})

	t.Run("status lock forces its declared value, even downward", func(t *testing.T) {
		d := ApplyOverrides(Determination{Status: StatusDangerous},
			[]ManualOverride{override("o1", OverrideStatusLock, "safe", t1)})

		assert.Equal(t, StatusSafe, d.Status)
		assert.Equal(t, "o1", d.Reason.OverrideID)
		assert.Equal(t, OverrideStatusLock, d.Reason.OverrideType)
		assert.False(t, d.Reason.Closed)
	})

	t.Run("closure outranks status lock", func(t *testing.T) {
		overrides := []ManualOverride{
			override("lock", OverrideStatusLock, "safe", t2),
			override("close", OverrideClosure, "sewage spill", t1),
		}

		d := ApplyOverrides(Determination{Status: StatusSafe}, overrides)

		assert.Equal(t, StatusDangerous, d.Status)
		assert.Equal(t, "close", d.Reason.OverrideID)
		assert.True(t, d.Reason.Closed)
	})

	t.Run("same-type overlap resolves to latest created", func(t *testing.T) {
		overrides := []ManualOverride{
			override("older", OverrideStatusLock, "safe", t1),
			override("newer", OverrideStatusLock, "dangerous", t2),
		}

		d := ApplyOverrides(Determination{Status: StatusSafe}, overrides)
		assert.Equal(t, StatusDangerous, d.Status)
		assert.Equal(t, "newer", d.Reason.OverrideID)

		// Insertion order must not matter.
		d = ApplyOverrides(Determination{Status: StatusSafe}, []ManualOverride{overrides[1], overrides[0]})
		assert.Equal(t, StatusDangerous, d.Status)
		assert.Equal(t, "newer", d.Reason.OverrideID)
	})

	t.Run("same-type tie on created at resolves by id", func(t *testing.T) {
		overrides := []ManualOverride{
			override("aa", OverrideStatusLock, "safe", t1),
			override("zz", OverrideStatusLock, "dangerous", t1),
		}

		d := ApplyOverrides(Determination{Status: StatusSafe}, overrides)
		assert.Equal(t, "zz", d.Reason.OverrideID)

		d = ApplyOverrides(Determination{Status: StatusSafe}, []ManualOverride{overrides[1], overrides[0]})
		assert.Equal(t, "zz", d.Reason.OverrideID, "insertion order must not matter on equal timestamps")
	})

	t.Run("notice attaches text without changing status", func(t *testing.T) {
		d := ApplyOverrides(Determination{Status: StatusSafe},
			[]ManualOverride{override("o1", OverrideNotice, "lifeguard tower closed", t1)})

		assert.Equal(t, StatusSafe, d.Status)
		assert.Equal(t, []string{"lifeguard tower closed"}, d.Reason.Notices)
		assert.Empty(t, d.Reason.OverrideID)
	})

	t.Run("status lock with unparsable value is skipped", func(t *testing.T) {
		overrides := []ManualOverride{
			override("bad", OverrideStatusLock, "purple", t2),
			override("good", OverrideStatusLock, "caution", t1),
		}

		d := ApplyOverrides(Determination{Status: StatusSafe}, overrides)

		assert.Equal(t, StatusCaution, d.Status)
		assert.Equal(t, "good", d.Reason.OverrideID)
	})

	t.Run("no overrides is a no-op", func(t *testing.T) {
		in := Determination{Status: StatusCaution, HasAdvisory: true}
		assert.Equal(t, in, ApplyOverrides(in, nil))
	})
}

func TestOverrideInEffectAt(t *testing.T) {
	now := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)

	base := ManualOverride{
		IsActive: true,
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
	}

	t.Run("inside window and active", func(t *testing.T) {
		assert.True(t, base.InEffectAt(now))
	})

	t.Run("inactive flag wins over window", func(t *testing.T) {
		o := base
		o.IsActive = false
		assert.False(t, o.InEffectAt(now))
	})

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		assert.True(t, base.InEffectAt(base.StartsAt))
		assert.True(t, base.InEffectAt(base.EndsAt))
		assert.False(t, base.InEffectAt(base.EndsAt.Add(time.Second)))
		assert.False(t, base.InEffectAt(base.StartsAt.Add(-time.Second)))
	})
}

func TestForcedStatus(t *testing.T) {
	o := ManualOverride{Type: OverrideStatusLock, Value: "dangerous"}
	st, ok := o.ForcedStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusDangerous, st)

	o.Value = "nonsense"
	_, ok = o.ForcedStatus()
	assert.False(t, ok)

	o = ManualOverride{Type: OverrideClosure, Value: "dangerous"}
	_, ok = o.ForcedStatus()
	assert.False(t, ok, "only status locks declare a forced status")
}
