package rescue

import "math"

// SensorView holds the per-tick and per-GPS-sample quantities derived from
// the raw collaborators, normalized so the rest of the engine never touches
// a raw sensor value directly. Per spec.md §4.1.
type SensorView struct {
	// Per-tick.
	CurrentAltitudeCm float64
	AccMagnitudeG     float64
	Healthy           bool

	// Per-GPS-sample.
	DistanceToHomeM      float64
	GroundSpeedCmS       float64
	DirectionToHomeDeg   float64
	VelocityToHomeCmS    float64
	ErrorAngleDeg        float64
	AbsErrorAngleDeg     float64
	GPSDtS               float64
	FilterK              float64
	AscendStepCm         float64
	DescendStepCm        float64
	MaxPitchStepCentiDeg float64

	// Persistent across ticks; only updated outside a rescue.
	MaxAltitudeCm float64

	prevGPSTimeSet       bool
	prevGPSTimeUs        int64
	prevDistanceSet      bool
	prevDistanceToHomeCm float64
}

const (
	maxPitchRateCentiDegPerS = 3000.0
)

// refresh updates the SensorView from the collaborators in in, per
// spec.md §4.1. now is a monotonic microsecond timestamp.
func (s *SensorView) refresh(nowUs int64, in Inputs, phase Phase, cfg *Config) {
	s.CurrentAltitudeCm = in.Altitude.EstimatedAltitudeCm()
	s.Healthy = in.GPS.Healthy()

	if phase == PhaseLanding {
		s.AccMagnitudeG = in.Attitude.AccelMagnitudeG()
	}

	if !in.NewSample {
		return
	}

	distanceToHomeCm := in.GPS.DistanceToHomeCm()
	s.DistanceToHomeM = distanceToHomeCm / 100.0
	s.GroundSpeedCmS = in.GPS.GroundSpeedCmS()
	s.DirectionToHomeDeg = float64(in.GPS.DirectionToHomeDeg10()) / 10.0

	yawDeg := float64(in.Attitude.YawDeg10()) / 10.0
	s.ErrorAngleDeg = wrapTo180(yawDeg - s.DirectionToHomeDeg)
	s.AbsErrorAngleDeg = math.Abs(s.ErrorAngleDeg)

	if !s.prevGPSTimeSet {
		s.GPSDtS = 0.01
		s.prevGPSTimeSet = true
	} else {
		dtUs := nowUs - s.prevGPSTimeUs
		s.GPSDtS = clamp(float64(dtUs)*1e-6, 0.01, 1.0)
	}
	s.prevGPSTimeUs = nowUs

	s.FilterK = pt1Gain(0.8, s.GPSDtS)

	// The very first sample after boot is discarded as noise: there is no
	// real previous distance to difference against yet. Set once and never
	// cleared again, matching original_source's static sensorUpdate locals
	// (previousDataTimeUs/prevDistanceToHomeCm), which persist for the life
	// of the process rather than resetting between rescue engagements.
	if !s.prevDistanceSet {
		s.VelocityToHomeCmS = 0
		s.prevDistanceSet = true
	} else {
		s.VelocityToHomeCmS = (s.prevDistanceToHomeCm - distanceToHomeCm) / s.GPSDtS
	}
	s.prevDistanceToHomeCm = distanceToHomeCm

	s.AscendStepCm = s.GPSDtS * cfg.AscendRateCmS
	s.DescendStepCm = s.GPSDtS * cfg.DescendRateCmS
	s.MaxPitchStepCentiDeg = s.GPSDtS * maxPitchRateCentiDegPerS
}

// pt1Gain returns the smoothing coefficient of a first-order low-pass
// filter with the given cutoff frequency (Hz) sampled at interval dt
// (seconds). Reference values: ≈0.83 at 1 Hz, 0.33 at 10 Hz, 0.17 at 25 Hz.
func pt1Gain(cutoffHz, dt float64) float64 {
	rc := 1.0 / (2 * math.Pi * cutoffHz)
	return dt / (dt + rc)
}

// wrapTo180 wraps deg into (-180, 180].
func wrapTo180(deg float64) float64 {
	for deg <= -180 {
		deg += 360
	}
	for deg > 180 {
		deg -= 360
	}
	return deg
}

// clamp constrains v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampInt8 constrains v to [lo, hi] for the small saturating counters used
// by the sanity supervisor.
func clampInt8(v, lo, hi int8) int8 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
