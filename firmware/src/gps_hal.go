package main

import (
	"math"

	"tinygo.org/x/drivers/gps"
)

// cmPerDegreeLat is the approximate number of centimeters per degree of
// latitude, used for the flat-earth distance/bearing approximation below.
// This mirrors the scaling the original firmware's GPS math uses rather
// than a full haversine, since errors over a few kilometers are
// negligible for a return-to-home controller.
const cmPerDegreeLat = 11131949.0

// gpsReceiver wraps a NMEA GPS module and tracks the home point captured
// at arming, implementing rescue.GPSSource.
type gpsReceiver struct {
	dev *gps.Device

	healthy    bool
	numSats    int
	hasFix     bool
	hasHomeFix bool
	homeLatDeg float64
	homeLonDeg float64

	lastLatDeg float64
	lastLonDeg float64
	speedCmS   float64
	altitudeCm float64

	newSample bool
}

func newGPSReceiver(dev *gps.Device) *gpsReceiver {
	return &gpsReceiver{dev: dev}
}

// poll reads the next available fix, if any, updating the cached state.
// Call once per main loop iteration before the rescue engine's Update.
func (g *gpsReceiver) poll() {
	fix, err := g.dev.NextFix()
	if err != nil {
		g.healthy = false
		return
	}
	g.healthy = fix.Valid
	g.numSats = int(fix.Satellites)
	g.hasFix = fix.Valid && fix.FixStatus >= gps.Fix3D
	if !g.hasFix {
		return
	}
	g.lastLatDeg = fix.Latitude.Degrees()
	g.lastLonDeg = fix.Longitude.Degrees()
	g.speedCmS = fix.Speed.KPH() * (100000.0 / 3600.0)
	g.altitudeCm = fix.Altitude.Meters() * 100.0
	g.newSample = true
}

// captureHome records the current fix as home, called once when the
// vehicle arms.
func (g *gpsReceiver) captureHome() {
	if !g.hasFix {
		return
	}
	g.homeLatDeg = g.lastLatDeg
	g.homeLonDeg = g.lastLonDeg
	g.hasHomeFix = true
}

// clearHome drops the recorded home point, called on disarm.
func (g *gpsReceiver) clearHome() {
	g.hasHomeFix = false
}

func (g *gpsReceiver) Healthy() bool    { return g.healthy }
func (g *gpsReceiver) NumSats() int     { return g.numSats }
func (g *gpsReceiver) HasFix() bool     { return g.hasFix }
func (g *gpsReceiver) HasHomeFix() bool { return g.hasHomeFix }

func (g *gpsReceiver) DistanceToHomeCm() float64 {
	if !g.hasHomeFix {
		return 0
	}
	dLat := (g.lastLatDeg - g.homeLatDeg) * cmPerDegreeLat
	dLon := (g.lastLonDeg - g.homeLonDeg) * cmPerDegreeLat * math.Cos(g.homeLatDeg*math.Pi/180.0)
	return math.Hypot(dLat, dLon)
}

func (g *gpsReceiver) DirectionToHomeDeg10() int32 {
	if !g.hasHomeFix {
		return 0
	}
	dLat := (g.homeLatDeg - g.lastLatDeg) * cmPerDegreeLat
	dLon := (g.homeLonDeg - g.lastLonDeg) * cmPerDegreeLat * math.Cos(g.homeLatDeg*math.Pi/180.0)
	bearingDeg := math.Atan2(dLon, dLat) * 180.0 / math.Pi
	if bearingDeg < 0 {
		bearingDeg += 360
	}
	return int32(bearingDeg * 10.0)
}

func (g *gpsReceiver) GroundSpeedCmS() float64 { return g.speedCmS }

func (g *gpsReceiver) NewSample() bool { return g.newSample }

func (g *gpsReceiver) Consume() { g.newSample = false }
