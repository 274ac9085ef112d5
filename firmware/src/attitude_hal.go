package main

import "math"

// attitudeEstimator implements rescue.AttitudeSource over the Kalman-fused
// pitch/roll estimate and the gyro-integrated yaw estimate.
type attitudeEstimator struct {
	kf  *KalmanFilter
	imu *IMU
}

func (a *attitudeEstimator) YawDeg10() int32 {
	return int32(a.imu.YawDeg * 10.0)
}

func (a *attitudeEstimator) CosTiltAngle() float64 {
	pitchRad := a.kf.X.At(0, 0)
	rollRad := a.kf.X.At(1, 0)
	return cosTiltAngle(pitchRad, rollRad)
}

func (a *attitudeEstimator) AccelMagnitudeG() float64 {
	ax, ay, az := a.imu.AccelX, a.imu.AccelY, a.imu.AccelZ
	return math.Sqrt(ax*ax+ay*ay+az*az) / 9.80665
}
