package rescue

// Phase is a tagged variant of the rescue state machine's current state,
// per spec.md §3 and the Design Note in spec.md §9.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInitialize
	PhaseAttainAlt
	PhaseRotate
	PhaseFlyHome
	PhaseDescent
	PhaseLanding
	PhaseAbort
	PhaseComplete
	PhaseDoNothing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInitialize:
		return "initialize"
	case PhaseAttainAlt:
		return "attain_alt"
	case PhaseRotate:
		return "rotate"
	case PhaseFlyHome:
		return "fly_home"
	case PhaseDescent:
		return "descent"
	case PhaseLanding:
		return "landing"
	case PhaseAbort:
		return "abort"
	case PhaseComplete:
		return "complete"
	case PhaseDoNothing:
		return "do_nothing"
	default:
		return "unknown"
	}
}

// Failure is the error taxonomy of spec.md §7. No error is ever returned
// from a tick; instead it is recorded here and consumed by the sanity
// supervisor.
type Failure int

const (
	FailureHealthy Failure = iota
	FailureFlyaway
	FailureGPSLost
	FailureLowSats
	FailureCrashFlipDetected
	FailureStalled
	FailureTooClose
	FailureNoHomePoint
)

func (f Failure) String() string {
	switch f {
	case FailureHealthy:
		return "healthy"
	case FailureFlyaway:
		return "flyaway"
	case FailureGPSLost:
		return "gps_lost"
	case FailureLowSats:
		return "low_sats"
	case FailureCrashFlipDetected:
		return "crash_flip_detected"
	case FailureStalled:
		return "stalled"
	case FailureTooClose:
		return "too_close"
	case FailureNoHomePoint:
		return "no_home_point"
	default:
		return "unknown"
	}
}

// stop drives the phase to Idle and clears the per-rescue state that must
// not leak into the next one, per rescueStop() in the original firmware.
func (e *Engine) stop() {
	e.phase = PhaseIdle
	e.failure = FailureHealthy
	e.magForceDisable = false
	e.sup.secondsDoingNothing = 0
}

// start drives the phase to Initialize and arms the sanity supervisor's
// memory for this rescue, per rescueStart() in the original firmware. It
// is called before advancePhase, which may carry the phase straight
// through Initialize to AttainAlt or Landing within the same tick, so the
// supervisor cannot rely on observing PhaseInitialize itself.
func (e *Engine) start(nowUs int64) {
	e.phase = PhaseInitialize
	e.sup.initOnRescueStart(e.sensor.CurrentAltitudeCm, nowUs)
	e.mem.reset()
}

// idleTasks runs the bookkeeping that must happen while GPS rescue is
// configured and armed, but no rescue is in progress. Per spec.md §4.3
// "Idle".
func (e *Engine) idleTasks(in Inputs) {
	if !in.Arming.Armed() {
		e.sensor.MaxAltitudeCm = 0
		return
	}

	if !in.Altitude.OffsetApplied() {
		return
	}

	if e.sensor.CurrentAltitudeCm > e.sensor.MaxAltitudeCm {
		e.sensor.MaxAltitudeCm = e.sensor.CurrentAltitudeCm
	}

	if !in.NewSample {
		return
	}

	e.intent.TargetAltitudeCm = e.sensor.CurrentAltitudeCm
	e.intent.DescentDistanceM = clamp(e.sensor.DistanceToHomeM, minDescentDistanceM, e.cfg.DescentDistanceM)

	bufferCm := e.cfg.RescueAltitudeBufferM * 100.0
	switch e.cfg.AltitudeMode {
	case AltitudeFixed:
		e.intent.ReturnAltitudeCm = e.cfg.InitialAltitudeM * 100.0
	case AltitudeCurrent:
		e.intent.ReturnAltitudeCm = e.sensor.CurrentAltitudeCm + bufferCm
	case AltitudeMax:
		fallthrough
	default:
		e.intent.ReturnAltitudeCm = e.sensor.MaxAltitudeCm + bufferCm
	}
}

const minDescentDistanceM = 10.0

// advancePhase runs the PhaseMachine for the current tick, per spec.md
// §4.3. It is called after sensorUpdate and before the sanity supervisor
// and controllers, per the ordering in spec.md §2.
func (e *Engine) advancePhase(in Inputs) {
	halfAngle := e.cfg.AngleDeg / 2

	switch e.phase {
	case PhaseIdle:
		e.idleTasks(in)

	case PhaseInitialize:
		if !in.GPS.HasHomeFix() {
			e.failure = FailureNoHomePoint
		} else if e.sensor.DistanceToHomeM < e.cfg.MinRescueDistM {
			e.intent.TargetAltitudeCm = e.sensor.CurrentAltitudeCm - e.sensor.DescendStepCm
			e.setPhase(PhaseLanding, in)
			e.intent.SecondsFailing = 0
			e.intent.restrictForLanding(halfAngle)
		} else {
			e.setPhase(PhaseAttainAlt, in)
			e.intent.SecondsFailing = 0
			e.intent.startedLow = e.sensor.CurrentAltitudeCm <= e.intent.ReturnAltitudeCm
			e.intent.UpdateYaw = true
			e.intent.TargetVelocityCmS = 0
			e.intent.PitchAngleLimitDeg = halfAngle
			e.intent.RollAngleLimitDeg = 0
		}

	case PhaseAttainAlt:
		if in.NewSample {
			if e.intent.startedLow {
				if e.intent.TargetAltitudeCm < e.intent.ReturnAltitudeCm {
					e.intent.TargetAltitudeCm += e.sensor.AscendStepCm
				} else if e.sensor.CurrentAltitudeCm >= e.intent.ReturnAltitudeCm {
					e.intent.TargetAltitudeCm = e.intent.ReturnAltitudeCm
					e.setPhase(PhaseRotate, in)
				}
			} else {
				if e.intent.TargetAltitudeCm > e.intent.ReturnAltitudeCm {
					e.intent.TargetAltitudeCm -= e.sensor.DescendStepCm
				} else if e.sensor.CurrentAltitudeCm <= e.intent.ReturnAltitudeCm {
					e.intent.TargetAltitudeCm = e.intent.ReturnAltitudeCm
					e.setPhase(PhaseRotate, in)
				}
			}
		}

	case PhaseRotate:
		if in.NewSample {
			if e.sensor.AbsErrorAngleDeg < 60.0 {
				e.intent.TargetVelocityCmS = e.cfg.RescueGroundspeedCmS
				e.intent.PitchAngleLimitDeg = e.cfg.AngleDeg
				if e.sensor.AbsErrorAngleDeg < 15.0 {
					e.setPhase(PhaseFlyHome, in)
					e.intent.SecondsFailing = 0
					e.intent.RollAngleLimitDeg = e.cfg.AngleDeg
				}
			}
		}

	case PhaseFlyHome:
		if in.NewSample {
			if e.sensor.DistanceToHomeM <= e.intent.DescentDistanceM {
				e.setPhase(PhaseDescent, in)
				e.intent.SecondsFailing = 0
			}
		}

	case PhaseDescent:
		if in.NewSample {
			targetLandingAltitudeCm := 100.0 * e.cfg.TargetLandingAltitudeM
			if e.sensor.CurrentAltitudeCm < targetLandingAltitudeCm {
				e.setPhase(PhaseLanding, in)
				e.intent.TargetAltitudeCm -= e.sensor.DescendStepCm
				e.intent.SecondsFailing = 0
				e.intent.restrictForLanding(halfAngle)
			} else {
				distanceToLandingAreaM := maxF(e.sensor.DistanceToHomeM-2.0, 0.0)
				proximity := clamp(distanceToLandingAreaM/e.intent.DescentDistanceM, 0.0, 1.0)
				e.intent.TargetAltitudeCm -= e.sensor.DescendStepCm * (1.0 + proximity)
				e.intent.TargetVelocityCmS = e.cfg.RescueGroundspeedCmS * proximity
				e.intent.RollAngleLimitDeg = e.cfg.AngleDeg * proximity
			}
		}

	case PhaseLanding:
		if in.NewSample {
			e.intent.TargetAltitudeCm -= e.sensor.DescendStepCm
		}
		if e.sensor.AccMagnitudeG > 2.0 {
			in.Arming.SetArmingDisabled(ArmingDisabledReasonArmSwitch)
			in.Arming.Disarm(DisarmReasonGPSRescue)
			e.setPhase(PhaseComplete, in)
		}

	case PhaseComplete:
		e.stop()

	case PhaseAbort:
		in.Arming.SetArmingDisabled(ArmingDisabledReasonArmSwitch)
		in.Arming.Disarm(DisarmReasonGPSRescue)
		e.stop()

	case PhaseDoNothing:
		// No transitions from here except via the sanity supervisor's
		// 10-second timeout into Abort.
	}
}

// setPhase transitions to next, logging the change.
func (e *Engine) setPhase(next Phase, in Inputs) {
	if next == e.phase {
		return
	}
	if e.logger != nil {
		e.logger.Info("gps rescue phase transition",
			"from", e.phase.String(), "to", next.String())
	}
	e.phase = next
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
