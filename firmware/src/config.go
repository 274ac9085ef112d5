package main

import "machine"

// WingFC Configuration
// All user-configurable parameters and hardware mappings

// --- Protocol Selection ---
// main.go calls startReceiver() once during initialization without
// needing to know which protocol a given build was compiled with.
// ibus.go provides the default implementation (built whenever the "crsf"
// tag is absent); crsf.go
// provides an alternate CRSF/ExpressLRS implementation behind the
// "crsf" build tag for airframes using that link instead.
const (
	NumChannels = 18 // Number of supported RC channels
)

// --- PWM Configuration ---
const (
	SERVO_PWM_FREQUENCY = 200  // Standard servo frequency (Hz)
	ESC_PWM_FREQUENCY   = 500  // ESC frequency (Hz)
	DEADBAND            = 20   // Deadband around neutral
	HIGH_RX_VALUE       = 1800 // High Rx channel value for arming/mode switches
)

// --- Flight Control Parameters ---
const (
	MAX_ROLL_RATE_DEG  = 600 // degrees/sec
	MAX_PITCH_RATE_DEG = 200 // degrees/sec
	PID_WEIGHT         = 0.5 // Weighting for combining gyro/accel with input

	// Inner-loop rate-tracking gains for the pitch and roll PIDControllers
	// (one instance per axis, both built from these gains), which track
	// whichever setpoint is active: pilot stick rates while
	// idle, or the rescue engine's commanded pitch/roll/yaw biases once a
	// rescue is flying.
	P_GAIN = 0.5
	I_GAIN = 0.1
	D_GAIN = 0.2
)

// --- Hardware Mappings ---
const (
	PWM_CH1_PIN = machine.D0 // Aileron/left elevon servo
	PWM_CH2_PIN = machine.D1 // Elevator/right elevon servo
	PWM_CH3_PIN = machine.D2 // Throttle (ESC)

	STATUS_LED_PIN = machine.D13 // Onboard status LED
)

// --- RC Channel Indices ---
// These used to be snapshotted into package vars at init time ("aileronCh
// = Channels[0]"), which froze them at zero forever since Channels is
// filled in later by the receiver parsers. Read live through these
// indices instead.
const (
	aileronChIdx   = 0
	elevatorChIdx  = 1
	throttleChIdx  = 2
	armChIdx       = 4
	gpsRescueChIdx = 5
	calChIdx       = 6
)

// --- Hardware Interfaces ---
var (
	pwm0 = machine.PWM0 // Servo PWM
	pwm1 = machine.PWM1 // ESC PWM
)
