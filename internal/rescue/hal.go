package rescue

// GPSSource is the GPS driver's view of the world, consumed read-only each
// tick. NMEA/UBX parsing and fix acquisition are out of scope here; this
// interface only describes what the rescue engine needs from a driver that
// already has it.
type GPSSource interface {
	// Healthy reports whether the GPS is currently delivering valid fixes.
	Healthy() bool
	// NumSats is the number of satellites used in the current fix.
	NumSats() int
	// HasFix reports whether the GPS currently has any 3D fix.
	HasFix() bool
	// HasHomeFix reports whether a home position was recorded (typically at
	// arming).
	HasHomeFix() bool
	// DistanceToHomeCm is the straight-line distance to home, in cm.
	DistanceToHomeCm() float64
	// DirectionToHomeDeg10 is the bearing to home, in degrees * 10.
	DirectionToHomeDeg10() int32
	// GroundSpeedCmS is the current ground speed, in cm/s.
	GroundSpeedCmS() float64
	// NewSample reports whether a new GPS sample has arrived since the
	// caller last consumed one. Implementations are expected to clear this
	// on Consume.
	NewSample() bool
	// Consume clears the NewSample flag, atomically with respect to the GPS
	// driver's update callback, per spec.md §5.
	Consume()
}

// AltitudeSource is the barometer/estimator fusion output, read every tick
// regardless of GPS sample rate.
type AltitudeSource interface {
	// EstimatedAltitudeCm is the current altitude estimate, in cm.
	EstimatedAltitudeCm() float64
	// OffsetApplied reports whether a valid ground-relative altitude offset
	// has been applied; until then max-altitude tracking must not run.
	OffsetApplied() bool
}

// AttitudeSource is the attitude estimator's output, consumed read-only.
type AttitudeSource interface {
	// YawDeg10 is the current estimated yaw, in degrees * 10.
	YawDeg10() int32
	// CosTiltAngle is the cosine of the tilt angle from vertical, used for
	// throttle tilt feedforward.
	CosTiltAngle() float64
	// AccelMagnitudeG is |accel|/1g, used for impact detection during
	// Landing. Implementations may compute this lazily; it is only read
	// while the engine is in the Landing phase.
	AccelMagnitudeG() float64
}

// Receiver is the RC link's view, consumed read-only.
type Receiver interface {
	// ThrottleCommand is the pilot's raw throttle stick command, passed
	// through untouched while the engine is idle.
	ThrottleCommand() float64
	// ReceivingSignal reports whether the receiver currently has a valid
	// link (false means a "hard" failsafe).
	ReceivingSignal() bool
	// MinCheck is the configured minimum throttle checkpoint (PWM-style
	// units). The engine does not read it: Engine.ThrottleOut is reported
	// in the same PWM-style units as Config.ThrottleMin/Max and is not
	// scaled into [0,1].
	MinCheck() float64
}

// ArmingActuator is the capability to inhibit arming and to disarm, injected
// so tests can observe calls without a real vehicle (spec.md §9 design
// note).
type ArmingActuator interface {
	// SetArmingDisabled marks arming as disabled for the given reason until
	// cleared elsewhere (outside this package's scope).
	SetArmingDisabled(reason string)
	// Disarm immediately disarms, recording reason for the blackbox/OSD.
	Disarm(reason string)
	// Armed reports whether the aircraft is currently armed.
	Armed() bool
	// CrashRecoveryActive reports whether the attitude estimator's
	// crash-flip detector is currently active.
	CrashRecoveryActive() bool
}

// ModeSwitch reports whether the GPS rescue flight mode is currently
// selected, and whether any mode-activation condition for it exists at all
// (used by IsConfigured).
type ModeSwitch interface {
	// Active reports whether GPS_RESCUE_MODE is currently engaged.
	Active() bool
	// Configured reports whether a rescue could ever be triggered: either
	// the failsafe procedure is set to GPS rescue, or a mode-activation
	// condition for the rescue box is present.
	Configured() bool
}

// DisarmReasonGPSRescue is the disarm reason recorded when the rescue
// controller itself disarms the aircraft (on Landing impact or Abort),
// matching the original firmware's DISARM_REASON_GPS_RESCUE.
const DisarmReasonGPSRescue = "gps_rescue"

// ArmingDisabledReasonArmSwitch is the arming-inhibit reason recorded
// alongside DisarmReasonGPSRescue, matching the original firmware's
// ARMING_DISABLED_ARM_SWITCH.
const ArmingDisabledReasonArmSwitch = "arm_switch"

// Inputs bundles everything the engine reads in a single tick. The caller
// (typically the firmware main loop) sets NewSample from
// GPSSource.NewSample before the tick; Engine.Update calls GPSSource.Consume
// at the end of a tick that had NewSample set. Per spec.md §5's ordering
// guarantee, all components within a tick observe the same SensorView.
type Inputs struct {
	GPS       GPSSource
	Altitude  AltitudeSource
	Attitude  AttitudeSource
	Receiver  Receiver
	Arming    ArmingActuator
	Mode      ModeSwitch
	NewSample bool
}
