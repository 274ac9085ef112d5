package rescue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNoHomePointAborts checks that no home fix at Initialize records
// NoHomePoint and aborts, landing/disarming on the following tick.
func TestNoHomePointAborts(t *testing.T) {
	e, cfg := newTestEngine()
	cfg.SanityChecks = SanityOn
	in, gps, _, _, _, arm, mode := newHealthyInputs()
	gps.hasHomeFix = false

	var now int64
	engageRescue(e, in, mode, &now)
	assert.Equal(t, PhaseAbort, e.Phase())
	assert.Equal(t, FailureNoHomePoint, e.failure)

	now += 1_000_000
	e.Update(now, in)
	assert.Equal(t, PhaseIdle, e.Phase())
	assert.Contains(t, arm.disarmReasons, DisarmReasonGPSRescue)
}

// TestEngageWithUnhealthyGPSStillEntersAndAborts checks that activating
// the mode switch while GPS is currently unhealthy (but a home point was
// already recorded earlier) still enters Initialize unconditionally, per
// spec.md §4.3's "Entry" rule — it must not sit in Idle forever waiting
// for IsAvailable(). The rescue proceeds until the sanity supervisor
// observes the unhealthy GPS and aborts/disarms on its own.
func TestEngageWithUnhealthyGPSStillEntersAndAborts(t *testing.T) {
	e, cfg := newTestEngine()
	cfg.SanityChecks = SanityOn
	in, gps, alt, _, _, arm, mode := newHealthyInputs()
	gps.distanceToHomeCm = 10000
	alt.altitudeCm = 1000
	gps.healthy = false
	gps.hasFix = false

	var now int64
	engageRescue(e, in, mode, &now)
	assert.NotEqual(t, PhaseIdle, e.Phase(), "mode activation must enter Initialize even though GPS is unavailable")

	for i := 0; i < 10 && e.Phase() != PhaseIdle; i++ {
		now += 1_000_000
		e.Update(now, in)
	}
	assert.Equal(t, PhaseIdle, e.Phase())
	assert.Contains(t, arm.disarmReasons, DisarmReasonGPSRescue)
}

// TestSoftFailureHoldsUnderFailsafeOnly checks that a soft sanity failure
// under SanityFailsafeOnly holds position (DoNothing) rather than aborting,
// as long as the receiver link is up.
func TestSoftFailureHoldsUnderFailsafeOnly(t *testing.T) {
	e, cfg := newTestEngine()
	cfg.SanityChecks = SanityFailsafeOnly
	in, gps, alt, _, rx, arm, mode := newHealthyInputs()
	gps.distanceToHomeCm = 10000
	alt.altitudeCm = 1000
	rx.receivingSignal = true

	var now int64
	engageRescue(e, in, mode, &now)

	e.failure = FailureFlyaway
	now += 100_000
	e.Update(now, in)

	assert.Equal(t, PhaseDoNothing, e.Phase())
	assert.Empty(t, arm.disarmReasons, "a soft failure under failsafe-only policy must not disarm")
	_ = cfg
}
