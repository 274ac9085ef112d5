package rescue

// availabilityProbe runs independently of any active rescue, deciding
// whether GPS rescue could be engaged right now. It keeps its own 1 Hz
// cadence and its own low-sats counter, separate from the sanity
// supervisor's, per spec.md §4.6.
type availabilityProbe struct {
	lastSlowTickUs  int64
	lastSlowTickSet bool
	secondsLowSats  int8
	available       bool
}

// refresh re-evaluates availability every tick. The low-sats counter it
// depends on only advances at 1 Hz; the fix/health check and the final
// verdict are recomputed every call so a fresh GPS never has to wait a
// full second to be seen as available.
func (a *availabilityProbe) refresh(in Inputs, cfg *Config, nowUs int64) {
	if !a.lastSlowTickSet {
		a.lastSlowTickUs = nowUs
		a.lastSlowTickSet = true
	}
	if nowUs-a.lastSlowTickUs >= slowTickIntervalUs {
		a.lastSlowTickUs = nowUs
		if in.GPS.NumSats() < cfg.MinSats {
			if a.secondsLowSats < 2 {
				a.secondsLowSats++
			}
		} else if a.secondsLowSats > 0 {
			a.secondsLowSats--
		}
	}

	a.available = in.GPS.HasFix() && in.GPS.Healthy() && in.GPS.HasHomeFix() && a.secondsLowSats < 2
}

// IsAvailable reports whether a rescue could be engaged right now: GPS has
// a 3D fix, is currently healthy, has a recorded home point, and has not
// been low on satellites for two consecutive seconds. Mirrors the
// original firmware's gpsRescueIsAvailable.
func (e *Engine) IsAvailable() bool {
	return e.avail.available
}
