package rescue

// sanitySupervisor holds the memory scoped to SanityCheck: the last slow-tick
// time, the previous altitude used for ascent/descent rate checks, and the
// low-sats and doing-nothing saturating counters of spec.md §3 ("Supervisor
// memory"). The third counter, SecondsFailing, lives on Intent.
type sanitySupervisor struct {
	lastSlowTickUs    int64
	lastSlowTickSet   bool
	prevAltitudeCm    float64
	secondsLowSats    int8
	secondsDoingNothing int8
}

const slowTickIntervalUs = 1_000_000

func (s *sanitySupervisor) initOnRescueStart(currentAltitudeCm float64, nowUs int64) {
	s.lastSlowTickUs = nowUs
	s.lastSlowTickSet = true
	s.prevAltitudeCm = currentAltitudeCm
	s.secondsLowSats = 5 // stricter at the beginning, per spec.md §4.5
	s.secondsDoingNothing = 0
}

// runSanityChecks runs the per-tick and, at 1 Hz, the slow pass of
// spec.md §4.5. It is called after the PhaseMachine and before the
// Controllers, per spec.md §2.
func (e *Engine) runSanityChecks(in Inputs, nowUs int64) {
	if e.phase == PhaseIdle {
		e.failure = FailureHealthy
		return
	}
	// The RTH debug slots 1-3 are refreshed on every non-idle tick, after
	// this tick's phase and failure changes.
	defer func() {
		e.debug.rth[1] = float64(e.phase)
		e.debug.rth[2] = float64(e.failure)
		e.debug.rth[3] = float64(e.intent.SecondsFailing)*100 + float64(e.sup.secondsLowSats)
	}()
	if !e.sup.lastSlowTickSet {
		// Safety net: start() always arms this, but guard against a future
		// caller that transitions phases without going through start().
		e.sup.initOnRescueStart(e.sensor.CurrentAltitudeCm, nowUs)
	}

	hardFailsafe := !in.Receiver.ReceivingSignal()
	if e.failure != FailureHealthy {
		switch e.cfg.SanityChecks {
		case SanityOn:
			e.setPhase(PhaseAbort, in)
		case SanityFailsafeOnly:
			if hardFailsafe {
				e.setPhase(PhaseAbort, in)
			} else {
				e.setPhase(PhaseDoNothing, in)
			}
		case SanityOff:
			e.setPhase(PhaseDoNothing, in)
		}
	}

	if in.Arming.CrashRecoveryActive() {
		e.failure = FailureCrashFlipDetected
	}
	if !e.sensor.Healthy {
		e.failure = FailureGPSLost
	}

	if nowUs-e.sup.lastSlowTickUs < slowTickIntervalUs {
		return
	}
	e.sup.lastSlowTickUs = nowUs

	switch e.phase {
	case PhaseFlyHome:
		if e.sensor.VelocityToHomeCmS < 0.5*e.intent.TargetVelocityCmS {
			e.intent.SecondsFailing++
		} else {
			e.intent.SecondsFailing--
		}
		e.intent.SecondsFailing = clampInt8(e.intent.SecondsFailing, 0, 20)
		if e.intent.SecondsFailing == 20 {
			if e.cfg.UseMag && !e.magForceDisable {
				e.magForceDisable = true
				e.intent.SecondsFailing = 0
			} else {
				e.failure = FailureStalled
			}
		}

	case PhaseAttainAlt:
		if (e.sensor.CurrentAltitudeCm - e.sup.prevAltitudeCm) > (0.5 * e.cfg.AscendRateCmS) {
			e.intent.SecondsFailing--
		} else {
			e.intent.SecondsFailing++
		}
		e.intent.SecondsFailing = clampInt8(e.intent.SecondsFailing, 0, 10)
		if e.intent.SecondsFailing == 10 {
			e.setPhase(PhaseAbort, in)
		}

	case PhaseDescent, PhaseLanding:
		if (e.sup.prevAltitudeCm - e.sensor.CurrentAltitudeCm) > (0.5 * e.cfg.DescendRateCmS) {
			e.intent.SecondsFailing--
		} else {
			e.intent.SecondsFailing++
		}
		e.intent.SecondsFailing = clampInt8(e.intent.SecondsFailing, 0, 10)
		if e.intent.SecondsFailing == 10 {
			e.setPhase(PhaseAbort, in)
		}

	case PhaseDoNothing:
		if e.sup.secondsDoingNothing < 10 {
			e.sup.secondsDoingNothing++
		}
		if e.sup.secondsDoingNothing == 10 {
			e.setPhase(PhaseAbort, in)
		}
	}
	e.sup.prevAltitudeCm = e.sensor.CurrentAltitudeCm

	if in.GPS.NumSats() < e.cfg.MinSats {
		e.sup.secondsLowSats++
	} else {
		e.sup.secondsLowSats--
	}
	e.sup.secondsLowSats = clampInt8(e.sup.secondsLowSats, 0, 10)
	if e.sup.secondsLowSats == 10 {
		e.failure = FailureLowSats
	}
}
