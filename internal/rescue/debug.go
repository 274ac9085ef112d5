package rescue

// DebugGroups mirrors the four named 4-slot numeric debug groups of
// spec.md §6, plus the general RTH group the original firmware also
// populates (spec.md §9 / SPEC_FULL.md §7). Slot assignments follow the
// original firmware's DEBUG_SET calls exactly, so existing ground-station
// tooling and the regression scenarios of spec.md §8 can assert on them.
type DebugGroups struct {
	heading     [4]float64
	velocity    [4]float64
	throttlePID [4]float64
	tracking    [4]float64
	rth         [4]float64
}

// Heading returns the heading/yaw debug slots:
// [0] yaw rate * 10 (deg/s * 10), [1] roll correction (centi-degrees),
// [2] estimated yaw (deg * 10), [3] direction to home (deg * 10).
func (d *DebugGroups) Heading() [4]float64 { return d.heading }

// Velocity returns the velocity/pitch debug slots:
// [0] P term, [1] D term, [2] velocity to home (cm/s), [3] target velocity
// (cm/s).
func (d *DebugGroups) Velocity() [4]float64 { return d.velocity }

// ThrottlePID returns the throttle debug slots:
// [0] P term, [1] D term, [2] current altitude (cm), [3] target altitude (cm).
func (d *DebugGroups) ThrottlePID() [4]float64 { return d.throttlePID }

// Tracking returns the tracking debug slots:
// [0] velocity to home (cm/s), [1] target velocity (cm/s),
// [2] current altitude (cm), [3] target altitude (cm).
func (d *DebugGroups) Tracking() [4]float64 { return d.tracking }

// RTH returns the general debug slots:
// [0] pitch bias (centi-degrees), [1] phase, [2] failure,
// [3] secondsFailing*100 + secondsLowSats.
func (d *DebugGroups) RTH() [4]float64 { return d.rth }
