package main

// gpsAltitude implements rescue.AltitudeSource from the GPS fix's altitude
// field. This airframe carries no barometer; GPS altitude is noisier and
// slower to update than a baro estimate, but it is the only altitude
// source the teacher hardware has. offsetApplied latches true once the
// first valid fix establishes a ground-relative zero.
type gpsAltitude struct {
	gps *gpsReceiver

	groundAltitudeCm float64
	offsetApplied    bool
	lastAltitudeCm   float64
}

// refresh captures the current GPS fix's altitude as the ground reference
// the first time a fix becomes available, then reports altitude relative
// to it on every subsequent call. Call once per main loop tick after the
// GPS receiver has been polled.
func (a *gpsAltitude) refresh() {
	if !a.gps.hasFix {
		return
	}
	rawAltitudeCm := a.gps.altitudeCm
	if !a.offsetApplied {
		a.groundAltitudeCm = rawAltitudeCm
		a.offsetApplied = true
	}
	a.lastAltitudeCm = rawAltitudeCm - a.groundAltitudeCm
}

func (a *gpsAltitude) EstimatedAltitudeCm() float64 { return a.lastAltitudeCm }
func (a *gpsAltitude) OffsetApplied() bool          { return a.offsetApplied }
