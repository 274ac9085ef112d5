package main

// vehicleArming implements rescue.ArmingActuator over the flight state
// machine's own armed flag. Disarm clears armed; SetArmingDisabled and
// Disarm also record their reason in the disabled/disarmed flags, which
// nothing in the firmware clears or consults: the arm-switch check in
// main.go's WAITING state re-arms on the switch alone.
type vehicleArming struct {
	armed               bool
	disabled            bool
	disabledReason      string
	disarmed            bool
	disarmReason        string
	crashRecoveryActive bool
}

func (a *vehicleArming) SetArmingDisabled(reason string) {
	a.disabled = true
	a.disabledReason = reason
}

func (a *vehicleArming) Disarm(reason string) {
	a.armed = false
	a.disarmed = true
	a.disarmReason = reason
}

func (a *vehicleArming) Armed() bool { return a.armed }

func (a *vehicleArming) CrashRecoveryActive() bool { return a.crashRecoveryActive }
