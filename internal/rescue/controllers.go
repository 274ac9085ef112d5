package rescue

import "math"

const (
	maxYawRateDegS        = 90.0
	maxVelocityITerm       = 1000.0
	maxThrottleITerm       = 200.0
)

// controllerMemory holds the state scoped to AttainPosition: previous
// errors, integral terms, and the several stages of derivative smoothing
// described in spec.md §4.4 and §3 ("Controller memory"). It is zeroed on
// every Initialize, per spec.md §4.3.
type controllerMemory struct {
	prevVelocityError float64
	velocityI          float64
	prevVelocityD      float64
	prevPitchAdjustment float64

	prevAltitudeError float64
	throttleI          float64
	prevThrottleD      float64
	prevThrottleDVal   float64
	prevThrottleD2     float64
}

func (m *controllerMemory) reset() {
	*m = controllerMemory{}
}

// outputs holds the published setpoint overrides, per spec.md §4.7
// (PublicSurface).
type outputs struct {
	yawRateDegS        float64
	pitchBiasCentiDeg  float64
	rollBiasCentiDeg   float64
	rescueThrottle     float64
}

// attainPosition runs the three cascaded controllers at tick rate, per
// spec.md §4.4. It returns immediately with safe defaults in Idle,
// Initialize, and DoNothing; all other phases recompute only on a new GPS
// sample, otherwise the previous outputs hold.
func (e *Engine) attainPosition(in Inputs) {
	switch e.phase {
	case PhaseIdle:
		e.out.pitchBiasCentiDeg = 0
		e.out.rollBiasCentiDeg = 0
		e.out.rescueThrottle = in.Receiver.ThrottleCommand()
		return
	case PhaseInitialize:
		e.mem.reset()
		return
	case PhaseDoNothing:
		e.out.pitchBiasCentiDeg = 0
		e.out.rollBiasCentiDeg = 0
		e.out.rescueThrottle = e.cfg.ThrottleHover
		return
	default:
	}

	if !in.NewSample {
		return
	}

	s := e.sensor.GPSDtS * 10.0

	e.runHeadingController(in)
	e.runVelocityController(s)
	e.runAltitudeController(in, s)
}

// runHeadingController computes the yaw rate and roll cross-feed, per
// spec.md §4.4 "Heading controller".
func (e *Engine) runHeadingController(in Inputs) {
	yawRate := clamp(e.sensor.ErrorAngleDeg*e.cfg.YawP*0.1, -maxYawRateDegS, maxYawRateDegS)

	rollMixAtten := clamp(1.0-math.Abs(yawRate)*0.01, 0.0, 1.0)
	rollAdjustment := -yawRate * e.cfg.RollMixPct * rollMixAtten
	e.out.rollBiasCentiDeg = clamp(rollAdjustment, -e.intent.RollAngleLimitDeg*100.0, e.intent.RollAngleLimitDeg*100.0)

	if e.cfg.YawControlReversed {
		yawRate = -yawRate
	}
	if !e.intent.UpdateYaw {
		yawRate = 0
	}
	e.out.yawRateDegS = yawRate

	e.debug.heading[0] = yawRate * 10.0
	e.debug.heading[1] = e.out.rollBiasCentiDeg
	e.debug.heading[2] = float64(in.Attitude.YawDeg10())
	e.debug.heading[3] = e.sensor.DirectionToHomeDeg * 10.0
}

// runVelocityController computes the pitch bias from the forward-velocity
// error, per spec.md §4.4 "Velocity (pitch) controller".
func (e *Engine) runVelocityController(s float64) {
	limiter := clamp((60.0-e.sensor.AbsErrorAngleDeg)/60.0, 0.0, 1.0)
	velocityError := e.intent.TargetVelocityCmS*limiter - e.sensor.VelocityToHomeCmS

	p := velocityError * e.cfg.VelP

	e.mem.velocityI += 0.01 * e.cfg.VelI * velocityError * s
	// Per spec.md Open Question 1 / DESIGN.md: this term is a literal
	// no-op in the original firmware (x / x); preserved as specified.
	if e.intent.TargetVelocityCmS != 0 {
		e.mem.velocityI *= e.intent.TargetVelocityCmS / e.intent.TargetVelocityCmS
	}
	e.mem.velocityI = clamp(e.mem.velocityI, -maxVelocityITerm, maxVelocityITerm)

	d := (velocityError - e.mem.prevVelocityError) / s
	e.mem.prevVelocityError = velocityError
	d = e.mem.prevVelocityD + e.sensor.FilterK*(d-e.mem.prevVelocityD)
	e.mem.prevVelocityD = d
	d *= e.cfg.VelD

	pitchAdjustment := p + d + e.mem.velocityI

	delta := pitchAdjustment - e.mem.prevPitchAdjustment
	maxStep := e.sensor.MaxPitchStepCentiDeg
	if delta > maxStep {
		pitchAdjustment = e.mem.prevPitchAdjustment + maxStep
	} else if delta < -maxStep {
		pitchAdjustment = e.mem.prevPitchAdjustment - maxStep
	}
	movingAvg := 0.5 * (e.mem.prevPitchAdjustment + pitchAdjustment)
	// Per spec.md Open Question 3: the pre-average value is what gets
	// stored as "previous pitch", not the emitted value.
	e.mem.prevPitchAdjustment = pitchAdjustment
	pitchAdjustment = movingAvg

	e.out.pitchBiasCentiDeg = clamp(pitchAdjustment, -e.intent.PitchAngleLimitDeg*100.0, e.intent.PitchAngleLimitDeg*100.0)
	e.debug.rth[0] = e.out.pitchBiasCentiDeg

	e.debug.velocity[0] = p
	e.debug.velocity[1] = d
	e.debug.velocity[2] = e.sensor.VelocityToHomeCmS
	e.debug.velocity[3] = e.intent.TargetVelocityCmS
	e.debug.tracking[0] = e.sensor.VelocityToHomeCmS
	e.debug.tracking[1] = e.intent.TargetVelocityCmS
}

// runAltitudeController computes the throttle output from the altitude
// error, per spec.md §4.4 "Altitude (throttle) controller".
func (e *Engine) runAltitudeController(in Inputs, s float64) {
	altError := (e.intent.TargetAltitudeCm - e.sensor.CurrentAltitudeCm) * 0.01

	p := e.cfg.ThrottleP * altError

	e.mem.throttleI += 0.01 * e.cfg.ThrottleI * altError * s
	e.mem.throttleI = clamp(e.mem.throttleI, -maxThrottleITerm, maxThrottleITerm)

	d := (altError - e.mem.prevAltitudeError) / s
	e.mem.prevAltitudeError = altError

	jerk := 2.0 * (d - e.mem.prevThrottleD)
	e.mem.prevThrottleD = d
	d += jerk

	movingAvg := 0.5 * (e.mem.prevThrottleDVal + d)
	e.mem.prevThrottleDVal = d
	d = movingAvg
	d = e.mem.prevThrottleD2 + e.sensor.FilterK*(d-e.mem.prevThrottleD2)
	e.mem.prevThrottleD2 = d

	d = 10.0 * e.cfg.ThrottleD * d

	tiltFF := (1.0 - in.Attitude.CosTiltAngle()) * (e.cfg.ThrottleHover - 1000.0)

	throttleAdjustment := p + e.mem.throttleI + d + tiltFF
	e.out.rescueThrottle = clamp(e.cfg.ThrottleHover+throttleAdjustment, e.cfg.ThrottleMin, e.cfg.ThrottleMax)

	e.debug.throttlePID[0] = p
	e.debug.throttlePID[1] = d
	e.debug.throttlePID[2] = e.sensor.CurrentAltitudeCm
	e.debug.throttlePID[3] = e.intent.TargetAltitudeCm
	e.debug.tracking[2] = e.sensor.CurrentAltitudeCm
	e.debug.tracking[3] = e.intent.TargetAltitudeCm
}
