package rescue

// This file holds hand-rolled test fakes for the HAL interfaces, in the
// same spirit as the teacher firmware's mockUART: simple structs with
// settable fields, no mocking library.

type fakeGPS struct {
	healthy          bool
	numSats          int
	hasFix           bool
	hasHomeFix       bool
	distanceToHomeCm float64
	directionDeg10   int32
	groundSpeedCmS   float64
	newSample        bool
	consumed         int
}

func (f *fakeGPS) Healthy() bool                  { return f.healthy }
func (f *fakeGPS) NumSats() int                    { return f.numSats }
func (f *fakeGPS) HasFix() bool                    { return f.hasFix }
func (f *fakeGPS) HasHomeFix() bool                { return f.hasHomeFix }
func (f *fakeGPS) DistanceToHomeCm() float64       { return f.distanceToHomeCm }
func (f *fakeGPS) DirectionToHomeDeg10() int32     { return f.directionDeg10 }
func (f *fakeGPS) GroundSpeedCmS() float64         { return f.groundSpeedCmS }
func (f *fakeGPS) NewSample() bool                 { return f.newSample }
func (f *fakeGPS) Consume()                        { f.consumed++; f.newSample = false }

type fakeAltitude struct {
	altitudeCm    float64
	offsetApplied bool
}

func (f *fakeAltitude) EstimatedAltitudeCm() float64 { return f.altitudeCm }
func (f *fakeAltitude) OffsetApplied() bool          { return f.offsetApplied }

type fakeAttitude struct {
	yawDeg10    int32
	cosTilt     float64
	accelMagG   float64
}

func (f *fakeAttitude) YawDeg10() int32        { return f.yawDeg10 }
func (f *fakeAttitude) CosTiltAngle() float64  { return f.cosTilt }
func (f *fakeAttitude) AccelMagnitudeG() float64 { return f.accelMagG }

type fakeReceiver struct {
	throttleCommand float64
	receivingSignal bool
	minCheck        float64
}

func (f *fakeReceiver) ThrottleCommand() float64 { return f.throttleCommand }
func (f *fakeReceiver) ReceivingSignal() bool     { return f.receivingSignal }
func (f *fakeReceiver) MinCheck() float64         { return f.minCheck }

type fakeArming struct {
	armed               bool
	crashRecoveryActive bool
	disabledReasons     []string
	disarmReasons       []string
}

func (f *fakeArming) SetArmingDisabled(reason string) { f.disabledReasons = append(f.disabledReasons, reason) }
func (f *fakeArming) Disarm(reason string)             { f.disarmReasons = append(f.disarmReasons, reason); f.armed = false }
func (f *fakeArming) Armed() bool                       { return f.armed }
func (f *fakeArming) CrashRecoveryActive() bool        { return f.crashRecoveryActive }

type fakeMode struct {
	active     bool
	configured bool
}

func (f *fakeMode) Active() bool     { return f.active }
func (f *fakeMode) Configured() bool { return f.configured }

// newHealthyInputs returns an Inputs wired with fakes in a plausible
// "armed, in rescue, everything nominal" state, for tests to mutate.
func newHealthyInputs() (Inputs, *fakeGPS, *fakeAltitude, *fakeAttitude, *fakeReceiver, *fakeArming, *fakeMode) {
	gps := &fakeGPS{healthy: true, numSats: 10, hasFix: true, hasHomeFix: true, newSample: true}
	alt := &fakeAltitude{offsetApplied: true}
	att := &fakeAttitude{cosTilt: 1.0}
	rx := &fakeReceiver{receivingSignal: true, minCheck: 1050}
	arm := &fakeArming{armed: true}
	mode := &fakeMode{active: false, configured: true}
	in := Inputs{GPS: gps, Altitude: alt, Attitude: att, Receiver: rx, Arming: arm, Mode: mode, NewSample: true}
	return in, gps, alt, att, rx, arm, mode
}
