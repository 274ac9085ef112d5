package rescue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSensorView_DiscardsFirstVelocitySample(t *testing.T) {
	var s SensorView
	in, gps, _, _, _, _, _ := newHealthyInputs()
	gps.distanceToHomeCm = 5000
	cfg := DefaultConfig()

	s.refresh(1_000_000, in, PhaseFlyHome, cfg)
	assert.Equal(t, 0.0, s.VelocityToHomeCmS, "first sample after reset must not produce a velocity spike")

	gps.distanceToHomeCm = 4900
	s.refresh(1_100_000, in, PhaseFlyHome, cfg)
	assert.Greater(t, s.VelocityToHomeCmS, 0.0, "closing distance must yield positive velocity toward home")
}

func TestSensorView_FilterStatePersistsAcrossRescueEngagements(t *testing.T) {
	var s SensorView
	in, gps, _, _, _, _, _ := newHealthyInputs()
	gps.distanceToHomeCm = 5000
	cfg := DefaultConfig()

	s.refresh(1_000_000, in, PhaseFlyHome, cfg)
	gps.distanceToHomeCm = 4900
	s.refresh(1_100_000, in, PhaseFlyHome, cfg)
	assert.NotEqual(t, 0.0, s.VelocityToHomeCmS)

	// A later rescue engagement must not re-discard the next sample as a
	// fresh first sample: original_source's sensorUpdate locals are static
	// for the life of the process, so only the very first sample after
	// boot gets first-sample treatment.
	gps.distanceToHomeCm = 4800
	s.refresh(2_000_000, in, PhaseFlyHome, cfg)
	assert.NotEqual(t, 0.0, s.VelocityToHomeCmS, "filter state must carry over between rescue engagements")
}

func TestPt1Gain_MatchesReferencePoints(t *testing.T) {
	assert.InDelta(t, 0.83, pt1Gain(0.8, 1.0), 0.02)
	assert.InDelta(t, 0.33, pt1Gain(0.8, 0.1), 0.02)
	assert.InDelta(t, 0.17, pt1Gain(0.8, 0.04), 0.02)
}

func TestWrapTo180(t *testing.T) {
	assert.InDelta(t, 179.0, wrapTo180(179), 1e-9)
	assert.InDelta(t, -1.0, wrapTo180(359), 1e-9)
	assert.InDelta(t, 0.0, wrapTo180(360), 1e-9)
	assert.InDelta(t, -179.0, wrapTo180(-539), 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, clamp(0.5, 1.0, 2.0))
	assert.Equal(t, 2.0, clamp(3.0, 1.0, 2.0))
	assert.Equal(t, 1.5, clamp(1.5, 1.0, 2.0))
}
