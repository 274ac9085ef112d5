package telemetry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"go.einride.tech/can"
	"github.com/stretchr/testify/assert"

	"github.com/aerolane/gpsrescue/internal/rescue"
)

type fakeCANWriter struct {
	frames []can.Frame
	err    error
}

func (f *fakeCANWriter) WriteFrame(_ context.Context, frame can.Frame) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeCANWriter) Close() error { return nil }

// Minimal HAL fakes, just enough to drive one engaged tick and read back a
// known velocity-to-home value through the encoded CAN payload.
type fakeGPS struct{ distanceToHomeCm float64 }

func (f *fakeGPS) Healthy() bool             { return true }
func (f *fakeGPS) NumSats() int              { return 12 }
func (f *fakeGPS) HasFix() bool              { return true }
func (f *fakeGPS) HasHomeFix() bool          { return true }
func (f *fakeGPS) DistanceToHomeCm() float64 { return f.distanceToHomeCm }
func (f *fakeGPS) DirectionToHomeDeg10() int32 { return 0 }
func (f *fakeGPS) GroundSpeedCmS() float64   { return 0 }
func (f *fakeGPS) NewSample() bool           { return true }
func (f *fakeGPS) Consume()                  {}

type fakeAltitude struct{ altitudeCm float64 }

func (f *fakeAltitude) EstimatedAltitudeCm() float64 { return f.altitudeCm }
func (f *fakeAltitude) OffsetApplied() bool          { return true }

type fakeAttitude struct{}

func (fakeAttitude) YawDeg10() int32          { return 0 }
func (fakeAttitude) CosTiltAngle() float64    { return 1.0 }
func (fakeAttitude) AccelMagnitudeG() float64 { return 1.0 }

type fakeReceiver struct{}

func (fakeReceiver) ThrottleCommand() float64 { return 0.5 }
func (fakeReceiver) ReceivingSignal() bool    { return true }
func (fakeReceiver) MinCheck() float64        { return 0 }

type fakeArming struct{ armed bool }

func (f *fakeArming) SetArmingDisabled(string)  {}
func (f *fakeArming) Disarm(string)             { f.armed = false }
func (f *fakeArming) Armed() bool               { return f.armed }
func (f *fakeArming) CrashRecoveryActive() bool { return false }

type fakeMode struct{ active bool }

func (f *fakeMode) Active() bool     { return f.active }
func (f *fakeMode) Configured() bool { return true }

// decodeFixed16LE is the inverse of putFixed16LE, used by the test below to
// check an actual engine value survived the int16 round-trip.
func decodeFixed16LE(buf []byte) float64 {
	u := uint16(buf[0]) | uint16(buf[1])<<8
	return float64(int16(u)) / 10.0
}

func TestPublisher_PublishAll_WritesFiveFrames(t *testing.T) {
	w := &fakeCANWriter{}
	p := NewPublisher(w)

	e := rescue.New(rescue.DefaultConfig(), slog.New(slog.NewTextHandler(os.Stdout, nil)))

	err := p.PublishAll(context.Background(), e)
	assert.NoError(t, err)
	assert.Len(t, w.frames, 5)

	ids := make(map[uint32]bool, 5)
	for _, f := range w.frames {
		ids[f.ID] = true
		assert.Equal(t, uint8(8), f.Length)
	}
	assert.True(t, ids[FrameIDHeading])
	assert.True(t, ids[FrameIDVelocity])
	assert.True(t, ids[FrameIDThrottlePID])
	assert.True(t, ids[FrameIDTracking])
	assert.True(t, ids[FrameIDRTH])
}

// TestPublisher_PublishAll_EncodesRealSlotValues drives an engine into
// FlyHome with a closing distance to home and checks that the encoded
// FrameIDVelocity/FrameIDTracking payloads decode back to the engine's own
// velocity-to-home value, catching bugs where the wrong memory gets wired
// into a debug slot before it ever reaches the wire.
func TestPublisher_PublishAll_EncodesRealSlotValues(t *testing.T) {
	cfg := rescue.DefaultConfig()
	e := rescue.New(cfg, nil)

	gps := &fakeGPS{distanceToHomeCm: 10000}
	alt := &fakeAltitude{altitudeCm: 1000}
	arm := &fakeArming{armed: true}
	mode := &fakeMode{}
	in := rescue.Inputs{
		GPS: gps, Altitude: alt, Attitude: fakeAttitude{}, Receiver: fakeReceiver{},
		Arming: arm, Mode: mode, NewSample: true,
	}

	var now int64
	e.Update(now, in)
	now += 100_000
	mode.active = true
	e.Update(now, in)

	for i := 0; i < 2000 && e.Phase() != rescue.PhaseFlyHome; i++ {
		now += 100_000
		alt.altitudeCm = e.Debug().ThrottlePID()[3]
		e.Update(now, in)
	}
	if e.Phase() != rescue.PhaseFlyHome {
		t.Fatalf("engine never reached FlyHome, stuck in phase %v", e.Phase())
	}

	now += 100_000
	gps.distanceToHomeCm -= 50
	e.Update(now, in)

	w := &fakeCANWriter{}
	p := NewPublisher(w)
	assert.NoError(t, p.PublishAll(context.Background(), e))

	var velocityFrame, trackingFrame can.Frame
	for _, f := range w.frames {
		switch f.ID {
		case FrameIDVelocity:
			velocityFrame = f
		case FrameIDTracking:
			trackingFrame = f
		}
	}

	wantVelocityToHome := e.Debug().Tracking()[0]
	gotVelocitySlot2 := decodeFixed16LE(velocityFrame.Data[4:6])
	gotTrackingSlot0 := decodeFixed16LE(trackingFrame.Data[0:2])

	assert.InDelta(t, wantVelocityToHome, gotVelocitySlot2, 0.15, "FrameIDVelocity slot 2 must decode to velocity-to-home")
	assert.InDelta(t, wantVelocityToHome, gotTrackingSlot0, 0.15, "FrameIDTracking slot 0 must decode to velocity-to-home")
}

func TestPublisher_PublishAll_StopsOnWriteError(t *testing.T) {
	w := &fakeCANWriter{err: context.DeadlineExceeded}
	p := NewPublisher(w)

	e := rescue.New(rescue.DefaultConfig(), nil)

	err := p.PublishAll(context.Background(), e)
	assert.Error(t, err)
	assert.Empty(t, w.frames)
}
