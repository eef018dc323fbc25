package domain

// ApplyOverrides is the final pipeline stage: administrative overrides
// outrank both measurements and advisories.
//
// A closure forces the status to dangerous and marks the beach closed. A
// status lock forces the status to its declared value. Notices only attach
// their text to the reason. When overrides of both forcing types are in
// effect simultaneously, closure outranks status lock; among overrides of
// the same type, the one created last wins — the most recent admin action
// is authoritative, independent of insertion order.
//
// Callers pass only overrides already filtered to in-effect-at-now.
func ApplyOverrides(d Determination, overrides []ManualOverride) Determination {
	var closure, lock *ManualOverride

	for i := range overrides {
		o := &overrides[i]
		switch o.Type {
		case OverrideClosure:
			closure = laterCreated(closure, o)
		case OverrideStatusLock:
			if _, ok := o.ForcedStatus(); ok {
				lock = laterCreated(lock, o)
			}
		case OverrideNotice:
			d.Reason.Notices = append(d.Reason.Notices, o.Value)
		}
	}

	switch {
	case closure != nil:
		d.Status = StatusDangerous
		d.Reason.OverrideID = closure.ID
		d.Reason.OverrideType = OverrideClosure
		d.Reason.Closed = true
	case lock != nil:
		forced, _ := lock.ForcedStatus()
		d.Status = forced
		d.Reason.OverrideID = lock.ID
		d.Reason.OverrideType = OverrideStatusLock
	}
	return d
}

// laterCreated picks the override with the later CreatedAt; a nil current
// loses to any candidate. Equal timestamps fall back to the larger ID so
// the result does not depend on input order.
func laterCreated(current, candidate *ManualOverride) *ManualOverride {
	if current == nil || candidate.CreatedAt.After(current.CreatedAt) {
		return candidate
	}
	if candidate.CreatedAt.Equal(current.CreatedAt) && candidate.ID > current.ID {
		return candidate
	}
	return current
}
