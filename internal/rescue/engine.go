package rescue

import "log/slog"

// Engine is the GPS Return-to-Home Rescue controller described in spec.md:
// a single-threaded, cooperatively-scheduled component driven once per
// flight-control tick by Update. It owns no goroutines and takes no locks;
// the caller is responsible for the atomic-flag handoff described in
// spec.md §5 and SPEC_FULL.md §8.
type Engine struct {
	cfg *Config

	phase   Phase
	failure Failure

	sensor SensorView
	intent Intent
	mem    controllerMemory
	out    outputs
	debug  DebugGroups

	sup   sanitySupervisor
	avail availabilityProbe

	magForceDisable bool

	logger *slog.Logger
}

// New constructs an Engine from cfg. cfg must already have passed
// Validate; New does not revalidate it. logger may be nil, in which case
// the engine runs silently.
func New(cfg *Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		phase:  PhaseIdle,
		logger: logger,
	}
}

// Update runs one tick of the rescue engine, in the order fixed by
// spec.md §2: SensorView refresh, AvailabilityProbe, mode-entry handling,
// PhaseMachine, SanitySupervisor, Controllers.
func (e *Engine) Update(nowUs int64, in Inputs) {
	e.sensor.refresh(nowUs, in, e.phase, e.cfg)
	e.avail.refresh(in, e.cfg, nowUs)

	switch {
	case e.phase == PhaseIdle && in.Mode.Active() && in.Arming.Armed():
		e.start(nowUs)
	case e.phase != PhaseIdle && !in.Mode.Active():
		e.stop()
	case e.phase != PhaseIdle && !in.Arming.Armed():
		e.stop()
	}

	e.advancePhase(in)
	e.runSanityChecks(in, nowUs)
	e.attainPosition(in)

	if in.NewSample {
		in.GPS.Consume()
	}
}

// YawRateOut is the commanded yaw rate, in degrees/second, for the flight
// controller's rate loop to track while a rescue is active.
func (e *Engine) YawRateOut() float64 { return e.out.yawRateDegS }

// ThrottleOut is the commanded throttle, in the same PWM-style units as
// Config.ThrottleMin/Max, for the flight controller to apply in place of
// the pilot's stick while a rescue is active.
func (e *Engine) ThrottleOut() float64 { return e.out.rescueThrottle }

// PitchBiasCentiDeg is the commanded pitch angle bias, in centi-degrees,
// layered onto the attitude setpoint while a rescue is active.
func (e *Engine) PitchBiasCentiDeg() float64 { return e.out.pitchBiasCentiDeg }

// RollBiasCentiDeg is the commanded roll angle bias, in centi-degrees,
// layered onto the attitude setpoint while a rescue is active.
func (e *Engine) RollBiasCentiDeg() float64 { return e.out.rollBiasCentiDeg }

// Phase returns the engine's current phase, primarily for telemetry and
// tests.
func (e *Engine) Phase() Phase { return e.phase }

// FailureState returns the most recently recorded failure, primarily for
// telemetry and tests. It is reset to FailureHealthy on return to Idle.
func (e *Engine) FailureState() Failure { return e.failure }

// Debug exposes the current tick's debug slot values, for telemetry
// encoding (internal/telemetry) and for tests asserting on exact slot
// parity with the original firmware's DEBUG_SET call sites.
func (e *Engine) Debug() *DebugGroups { return &e.debug }

// IsConfigured reports whether a rescue could ever be triggered: either
// failsafe is configured to use GPS rescue, or a mode-activation condition
// for the rescue box exists. Mirrors the original firmware's
// gpsRescueIsConfigured.
func (e *Engine) IsConfigured(in Inputs) bool {
	return in.Mode.Configured()
}

// IsDisabled reports whether GPS rescue has no recorded home point, the
// condition the original firmware uses to warn the pilot it will not
// activate. Independent of IsConfigured/IsAvailable. Mirrors
// gpsRescueIsDisabled.
func (e *Engine) IsDisabled(in Inputs) bool {
	return !in.GPS.HasHomeFix()
}

// DisableMag reports whether the FlyHome stall recovery has force-disabled
// magnetometer-derived heading for the remainder of this rescue. Mirrors
// gpsRescueDisableMag.
func (e *Engine) DisableMag() bool { return e.magForceDisable }
