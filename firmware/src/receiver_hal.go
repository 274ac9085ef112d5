package main

import "time"

// rxReceiver implements rescue.Receiver over the shared Channels array
// filled in by readIBus's goroutine.
type rxReceiver struct{}

func (rxReceiver) ThrottleCommand() float64 {
	return float64(GetChannels()[throttleChIdx])
}

func (rxReceiver) ReceivingSignal() bool {
	return time.Since(LastPacketTime) <= FAILSAFE_TIMEOUT_MS*time.Millisecond
}

func (rxReceiver) MinCheck() float64 {
	return float64(MIN_RX_VALUE)
}

// rxModeSwitch implements rescue.ModeSwitch over the dedicated GPS-rescue
// RC channel: high means the pilot has selected the rescue box. Once the
// receiver link is actually lost, the channel value is stale and
// meaningless, so Active also reports true for as long as a hard failsafe
// lasts, mirroring
// Betaflight's failsafe handler forcing the GPS Rescue flight-mode box
// active when the failsafe procedure is configured to use it.
type rxModeSwitch struct{}

func (rxModeSwitch) Active() bool {
	return GetChannels()[gpsRescueChIdx] >= HIGH_RX_VALUE || !rxReceiver{}.ReceivingSignal()
}

func (rxModeSwitch) Configured() bool {
	return true
}
