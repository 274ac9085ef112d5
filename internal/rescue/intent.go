package rescue

// Intent carries the per-phase setpoint limits and targets that the
// PhaseMachine writes and the Controllers read. It is a pure data carrier;
// per spec.md §4.2. Per spec.md Open Question 2, startedLow is set exactly
// once, on the Initialize → AttainAlt transition, and never recomputed.
type Intent struct {
	ReturnAltitudeCm    float64
	TargetAltitudeCm    float64
	TargetVelocityCmS   float64
	PitchAngleLimitDeg  float64
	RollAngleLimitDeg   float64
	UpdateYaw           bool
	DescentDistanceM    float64
	SecondsFailing      int8

	startedLow bool
}

// restrictForLanding zeroes forward velocity and roll authority and halves
// pitch authority, the shared reset applied whenever the engine enters
// (or re-enters) Landing.
func (in *Intent) restrictForLanding(halfAngleDeg float64) {
	in.TargetVelocityCmS = 0
	in.PitchAngleLimitDeg = halfAngleDeg
	in.RollAngleLimitDeg = 0
}
