package main

import (
	"fmt"
	"log/slog"
	"machine"
	"math"
	"time"

	"tinygo.org/x/drivers/gps"
	"tinygo.org/x/drivers/lsm6ds3tr"

	"github.com/aerolane/gpsrescue/internal/rescue"
)

const Version = "0.2.0"

// Convert sensor values to radians for calculations.
// The LSM6DS3TR driver returns values in micro-g for accel and micro-dps for gyro.
// Convert to m/s^2 and rad/s respectively.
const (
	microGToMS2    = 9.80665 / 1e6
	microDPSToRadS = math.Pi / (180 * 1e6)

	MIN_PULSE_WIDTH_US = 1000 // 1ms pulse for full negative deflection
	MAX_PULSE_WIDTH_US = 2000 // 2ms pulse for full positive deflection

	MIN_RX_VALUE     = 988  // Minimum Rx channel value
	MAX_RX_VALUE     = 2012 // Maximum Rx channel value
	NEUTRAL_RX_VALUE = 1500 // Neutral Rx channel value

	MAX_ROLL_RATE  = MAX_ROLL_RATE_DEG * math.Pi / 180.0  // radians/sec
	MAX_PITCH_RATE = MAX_PITCH_RATE_DEG * math.Pi / 180.0 // radians/sec

	FAILSAFE_TIMEOUT_MS = 500

	// yawRateToRollRad converts the rescue engine's commanded yaw rate
	// (deg/s) into an equivalent roll-rate setpoint. This airframe has no
	// rudder; like the rescue engine's own roll cross-feed for heading
	// (see cfg.RollMixPct), a flying wing turns by banking, so the
	// engine's yaw output is flown as a roll rate rather than discarded.
	yawRateToRollRad = math.Pi / 180.0
)

const (
	INITIALIZATION flightState = iota
	WAITING
	CALIBRATING
	FLIGHT_MODE
	FAILSAFE
)

type flightState int

var (
	pwmCh1 uint8
	pwmCh2 uint8
	pwmCh3 uint8

	lsm             *lsm6ds3tr.Device
	kf              *KalmanFilter
	pitchController *PIDController
	rollController  *PIDController
	imu             *IMU
	lastFlightState flightState

	calibStartTime time.Time
	gyroBiasX      float64
	gyroBiasY      float64

	uart *machine.UART

	engine   *rescue.Engine
	rx       rxReceiver
	modeSw   rxModeSwitch
	arming   *vehicleArming
	gpsRX    *gpsReceiver
	altSrc   *gpsAltitude
	attitude *attitudeEstimator

	logger *slog.Logger

	statusLED *ledState
)

func main() {
	time.Sleep(2 * time.Second)
	println("GPS Rescue FC - Version", Version)
	println("A TinyGo flight controller with GPS return-to-home rescue")

	logger = slog.New(slog.NewTextHandler(machine.Serial, nil))

	interval := 10 * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	flightState := INITIALIZATION
	println("Entering INITIALIZATION state...")
	for {
		<-ticker.C

		channels := GetChannels()
		aileronCh := channels[aileronChIdx]
		elevatorCh := channels[elevatorChIdx]
		armCh := channels[armChIdx]
		calCh := channels[calChIdx]

		if time.Since(LastPacketTime).Milliseconds() > FAILSAFE_TIMEOUT_MS && flightState == FLIGHT_MODE {
			flightState = FAILSAFE
		}

		switch flightState {
		case INITIALIZATION:
			setupHardware()

			dt := 0.01
			kf = NewKalmanFilter(dt)
			pitchController = NewPIDController(P_GAIN, I_GAIN, D_GAIN)
			rollController = NewPIDController(P_GAIN, I_GAIN, D_GAIN)
			imu = new(IMU)

			rx = rxReceiver{}
			modeSw = rxModeSwitch{}
			arming = &vehicleArming{}
			gpsRX = newGPSReceiver(gps.NewUART(machine.UART1))
			altSrc = &gpsAltitude{gps: gpsRX}
			attitude = &attitudeEstimator{kf: kf, imu: imu}
			engine = rescue.New(rescue.DefaultConfig(), logger)
			statusLED = newLEDState(STATUS_LED_PIN)
			startReceiver()

			setServo(NEUTRAL_RX_VALUE, NEUTRAL_RX_VALUE)
			setESC(MIN_PULSE_WIDTH_US)
			time.Sleep(2 * time.Second)

			println("Initialization complete. Entering WAITING state...")
			machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 500})
			machine.Watchdog.Start()

			lastFlightState = flightState
			flightState = WAITING

		case WAITING:
			setServo(NEUTRAL_RX_VALUE, NEUTRAL_RX_VALUE)
			setESC(MIN_PULSE_WIDTH_US)

			if !arming.armed {
				gpsRX.clearHome()
			}

			if lastFlightState == FAILSAFE && armCh < HIGH_RX_VALUE {
				break
			}

			if calCh >= HIGH_RX_VALUE {
				calibStartTime = time.Now()
				lastFlightState = flightState
				flightState = CALIBRATING
				break
			}

			if armCh > HIGH_RX_VALUE {
				arming.armed = true
				gpsRX.poll()
				gpsRX.captureHome()
				lastFlightState = flightState
				flightState = FLIGHT_MODE
				break
			}

		case CALIBRATING:
			if calCh <= HIGH_RX_VALUE {
				lastFlightState = flightState
				flightState = WAITING
				break
			}

			setServo(NEUTRAL_RX_VALUE, NEUTRAL_RX_VALUE)
			setESC(MIN_PULSE_WIDTH_US)
			time.Sleep(100 * time.Millisecond)

			println("Calibrating gyro... keep airframe still!")
			runGyroCalibration()
			println("Calibration complete!")
			println(fmt.Sprintf("Gyro bias X: %.4f Y: %.4f", gyroBiasX, gyroBiasY))

			lastFlightState = flightState
			flightState = WAITING

		case FLIGHT_MODE:
			if armCh <= HIGH_RX_VALUE && engine.Phase() == rescue.PhaseIdle {
				arming.armed = false
				gpsRX.clearHome()
				lastFlightState = flightState
				flightState = WAITING
				break
			}

			runFlightTick(aileronCh, elevatorCh)

			if !arming.armed {
				lastFlightState = flightState
				flightState = WAITING
			}

		case FAILSAFE:
			if arming.armed {
				// A hard RX failsafe forces the rescue mode switch active
				// (rxModeSwitch.Active), mirroring Betaflight's failsafe
				// handler setting the GPS Rescue flight-mode box when the
				// failsafe procedure is configured to use it. Tick the
				// engine so it can actually take over, rather than only
				// holding neutral outputs and waiting for the link to
				// return.
				runFlightTick(aileronCh, elevatorCh)
			} else {
				setServo(NEUTRAL_RX_VALUE, NEUTRAL_RX_VALUE)
				setESC(MIN_PULSE_WIDTH_US)
			}

			if time.Since(LastPacketTime).Milliseconds() <= FAILSAFE_TIMEOUT_MS {
				lastFlightState = flightState
				if arming.armed {
					flightState = FLIGHT_MODE
				} else {
					flightState = WAITING
				}
			}

		default:
			flightState = WAITING
		}

		updateStatusLED(flightState)
		machine.Watchdog.Update()
	}
}

// updateStatusLED sets the onboard LED's pattern from the current flight
// state and, in FLIGHT_MODE, whether the rescue engine has taken over.
func updateStatusLED(state flightState) {
	switch state {
	case INITIALIZATION, WAITING:
		statusLED.setState(LED_SLOWFLASH)
	case CALIBRATING:
		statusLED.setState(LED_FASTFLASH)
	case FLIGHT_MODE:
		if engine.Phase() == rescue.PhaseIdle {
			statusLED.setState(LED_ON)
		} else {
			statusLED.setState(LED_ALTERNATE)
		}
	case FAILSAFE:
		statusLED.setState(LED_FASTFLASH)
	}
	statusLED.update()
}

// setupHardware configures the receiver UART, servo/ESC PWM, and the
// LSM6DS3TR IMU over I2C.
func setupHardware() {
	uart = machine.DefaultUART
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.NoPin,
		RX:       machine.UART_RX_PIN,
	})
	rxUART = uart
	println("UART configured for receiver input.")

	servoPWMConfig := machine.PWMConfig{Period: machine.GHz * 1 / SERVO_PWM_FREQUENCY}
	if err := pwm0.Configure(servoPWMConfig); err != nil {
		println("could not configure servo PWM:", err)
		return
	}
	var err error
	pwmCh1, err = pwm0.Channel(PWM_CH1_PIN)
	if err != nil {
		println("could not get PWM channel for aileron/left elevon:", err)
		return
	}
	pwmCh2, err = pwm0.Channel(PWM_CH2_PIN)
	if err != nil {
		println("could not get PWM channel for elevator/right elevon:", err)
		return
	}
	escPWMConfig := machine.PWMConfig{Period: machine.GHz * 1 / ESC_PWM_FREQUENCY}
	if err := pwm1.Configure(escPWMConfig); err != nil {
		println("could not configure ESC PWM:", err)
		return
	}
	pwmCh3, err = pwm1.Channel(PWM_CH3_PIN)
	if err != nil {
		println("could not get PWM channel for ESC:", err)
		return
	}
	println("PWM configured for servos and ESC.")

	i2c := machine.I2C0
	i2c.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	lsm = lsm6ds3tr.New(i2c)
	if err := lsm.Configure(lsm6ds3tr.Configuration{
		AccelRange:      lsm6ds3tr.ACCEL_8G,
		AccelSampleRate: lsm6ds3tr.ACCEL_SR_104,
		GyroRange:       lsm6ds3tr.GYRO_1000DPS,
		GyroSampleRate:  lsm6ds3tr.GYRO_SR_104,
	}); err != nil {
		for {
			println("failed to configure LSM6DS3TR:", err.Error())
			time.Sleep(time.Second)
		}
	}
	if !lsm.Connected() {
		println("LSM6DS3TR not connected")
		time.Sleep(time.Second)
	}
	println("LSM6DS3TR initialized.")
}

// runGyroCalibration averages a batch of stationary gyro readings to
// establish the bias subtracted from every subsequent reading.
func runGyroCalibration() {
	const sampleSize = 1000
	var gyroXSum, gyroYSum float64
	for i := 0; i < sampleSize; i++ {
		xG, yG, _, err := lsm.ReadRotation()
		if err != nil {
			continue
		}
		gyroXSum += float64(xG) * microDPSToRadS
		gyroYSum += float64(yG) * microDPSToRadS
	}
	gyroBiasX = gyroXSum / sampleSize
	gyroBiasY = gyroYSum / sampleSize
}

// readIMU refreshes imu's accelerometer/gyro fields and advances the
// Kalman filter and yaw integrator by one tick.
func readIMU(dt float64) {
	xAccel, yAccel, zAccel, _ := lsm.ReadAcceleration()
	imu.AccelX = float64(xAccel) * microGToMS2
	imu.AccelY = float64(yAccel) * microGToMS2
	imu.AccelZ = float64(zAccel) * microGToMS2

	xGyro, yGyro, zGyro, _ := lsm.ReadRotation()
	imu.GyroX = float64(xGyro)*microDPSToRadS - gyroBiasX
	imu.GyroY = float64(yGyro)*microDPSToRadS - gyroBiasY
	imu.GyroZ = float64(zGyro) * microDPSToRadS

	kf.Predict(imu.GyroX, imu.GyroY)
	kf.Update(imu.pitchAccel(), imu.rollAccel())
	imu.integrateYaw(dt)
}

// runFlightTick drives one control-loop iteration while armed: it polls
// sensors, steps the rescue engine, and either passes pilot sticks
// through or flies the engine's commanded pitch/roll/yaw/throttle,
// depending on whether a rescue is in progress.
func runFlightTick(aileronCh, elevatorCh uint16) {
	const dt = 0.01

	readIMU(dt)
	gpsRX.poll()
	altSrc.refresh()

	in := rescue.Inputs{
		GPS:       gpsRX,
		Altitude:  altSrc,
		Attitude:  attitude,
		Receiver:  rx,
		Arming:    arming,
		Mode:      modeSw,
		NewSample: gpsRX.NewSample(),
	}
	engine.Update(time.Now().UnixMicro(), in)

	var desiredPitchRate, desiredRollRate float64
	if engine.Phase() == rescue.PhaseIdle {
		desiredPitchRate, desiredRollRate = pilotStickRates(aileronCh, elevatorCh)
	} else {
		desiredPitchRate = engine.PitchBiasCentiDeg() / 100.0 * (math.Pi / 180.0)
		desiredRollRate = engine.RollBiasCentiDeg()/100.0*(math.Pi/180.0) +
			engine.YawRateOut()*yawRateToRollRad
	}

	pitchError := desiredPitchRate - imu.GyroY
	rollError := desiredRollRate - imu.GyroX
	pitchCorrection := pitchController.Update(pitchError, dt)
	rollCorrection := rollController.Update(rollError, dt)

	finalPitch := imu.pitchAccel()*PID_WEIGHT + pitchCorrection
	finalRoll := imu.rollAccel()*PID_WEIGHT + rollCorrection

	pitchPulse := mapRange(finalPitch, -MAX_PITCH_RATE, MAX_PITCH_RATE, float64(MIN_PULSE_WIDTH_US), float64(MAX_PULSE_WIDTH_US))
	rollPulse := mapRange(finalRoll, -MAX_ROLL_RATE, MAX_ROLL_RATE, float64(MIN_PULSE_WIDTH_US), float64(MAX_PULSE_WIDTH_US))

	leftElevon := pitchPulse + rollPulse
	rightElevon := pitchPulse - rollPulse
	const (
		elevonMixMin = -2 * MIN_PULSE_WIDTH_US
		elevonMixMax = 2 * MAX_PULSE_WIDTH_US
	)
	leftPulse := mapRange(leftElevon, elevonMixMin, elevonMixMax, float64(MIN_PULSE_WIDTH_US), float64(MAX_PULSE_WIDTH_US))
	rightPulse := mapRange(rightElevon, elevonMixMin, elevonMixMax, float64(MIN_PULSE_WIDTH_US), float64(MAX_PULSE_WIDTH_US))
	setServo(uint32(leftPulse), uint32(rightPulse))

	throttlePulse := rx.ThrottleCommand()
	if engine.Phase() != rescue.PhaseIdle {
		throttlePulse = engine.ThrottleOut()
	}
	setESC(uint32(throttlePulse))
}

// pilotStickRates maps raw aileron/elevator channel values to desired
// body rates the same way the pilot-stick-passthrough path always has.
func pilotStickRates(aileronCh, elevatorCh uint16) (pitchRate, rollRate float64) {
	rawElevator := float64(elevatorCh)
	rawAileron := float64(aileronCh)
	if rawElevator > float64(NEUTRAL_RX_VALUE-DEADBAND) && rawElevator < float64(NEUTRAL_RX_VALUE+DEADBAND) {
		rawElevator = float64(NEUTRAL_RX_VALUE)
	}
	if rawAileron > float64(NEUTRAL_RX_VALUE-DEADBAND) && rawAileron < float64(NEUTRAL_RX_VALUE+DEADBAND) {
		rawAileron = float64(NEUTRAL_RX_VALUE)
	}
	consElevator := constrain(rawElevator, float64(MIN_RX_VALUE), float64(MAX_RX_VALUE))
	consAileron := constrain(rawAileron, float64(MIN_RX_VALUE), float64(MAX_RX_VALUE))
	pitchRate = mapRange(consElevator, float64(MIN_RX_VALUE), float64(MAX_RX_VALUE), -MAX_PITCH_RATE, MAX_PITCH_RATE)
	rollRate = mapRange(consAileron, float64(MIN_RX_VALUE), float64(MAX_RX_VALUE), -MAX_ROLL_RATE, MAX_ROLL_RATE)
	return pitchRate, rollRate
}

// constrain clamps value to [min, max].
func constrain(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// mapRange linearly rescales value from [fromMin, fromMax] to [toMin, toMax].
func mapRange(value, fromMin, fromMax, toMin, toMax float64) float64 {
	return (value-fromMin)/(fromMax-fromMin)*(toMax-toMin) + toMin
}

// setServo drives the aileron/elevon PWM channels from pulse widths in
// microseconds.
func setServo(leftPulse, rightPulse uint32) {
	top := pwm0.Top()
	period := uint64(machine.GHz * 1 / SERVO_PWM_FREQUENCY / 1000)
	pwm0.Set(pwmCh1, uint32(uint64(leftPulse)*uint64(top)/period))
	pwm0.Set(pwmCh2, uint32(uint64(rightPulse)*uint64(top)/period))
}

// setESC drives the ESC PWM channel from a pulse width in microseconds.
func setESC(pulseWidth uint32) {
	top := pwm1.Top()
	period := uint64(machine.GHz * 1 / ESC_PWM_FREQUENCY / 1000)
	pwm1.Set(pwmCh3, uint32(uint64(pulseWidth)*uint64(top)/period))
}
