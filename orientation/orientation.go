// Package orientation converts Z-Y-X Euler angle triples into rotation matrices and relates
// Euler angle rates to angular velocity.
//
// Angles are always given as theta = (rz, ry, rx): yaw about Z, then pitch about the rotated Y,
// then roll about the rotated X (intrinsic convention).
//
// The rate Jacobian of this parameterization is singular when cos(ry) = 0 (gimbal lock).
// InverseRateJacobian and EulerRates report that case with a *DomainError instead of
// returning a meaningless matrix.
package orientation

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GimbalTolerance is the smallest |cos(ry)| accepted when inverting the rate Jacobian.
const GimbalTolerance = 1e-9

// DomainError is returned when the Euler-rate Jacobian cannot be inverted.
type DomainError struct {
	Pitch float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("euler rate jacobian is singular at pitch %.6f rad (gimbal lock)", e.Pitch)
}

// EulerToRotation returns R = Rz(rz) * Ry(ry) * Rx(rx).
func EulerToRotation(theta mgl64.Vec3) mgl64.Mat3 {
	rz := mgl64.Rotate3DZ(theta[0])
	ry := mgl64.Rotate3DY(theta[1])
	rx := mgl64.Rotate3DX(theta[2])

	return rz.Mul3(ry).Mul3(rx)
}

// RateJacobian returns A such that omega = A * dtheta/dt.
// Only rz and ry are used: columns are ez, Rz*ey and Rz*Ry*ex.
func RateJacobian(theta mgl64.Vec3) mgl64.Mat3 {
	rz := mgl64.Rotate3DZ(theta[0])
	ry := mgl64.Rotate3DY(theta[1])

	return mgl64.Mat3FromCols(
		mgl64.Vec3{0, 0, 1},
		rz.Mul3x1(mgl64.Vec3{0, 1, 0}),
		rz.Mul3(ry).Mul3x1(mgl64.Vec3{1, 0, 0}),
	)
}

// InverseRateJacobian returns the inverse of RateJacobian(theta).
//
//	A    = [ 0  -s0  c1c0 ]      A^-1 = 1/c1 [ c0s1  s0s1  c1 ]
//	       [ 0   c0  c1s0 ]                  [-c1s0  c1c0  0  ]
//	       [ 1   0   -s1  ]                  [ c0    s0    0  ]
func InverseRateJacobian(theta mgl64.Vec3) (mgl64.Mat3, error) {
	s0, c0 := math.Sincos(theta[0])
	s1, c1 := math.Sincos(theta[1])
	if math.Abs(c1) < GimbalTolerance {
		return mgl64.Mat3{}, &DomainError{Pitch: theta[1]}
	}

	return mgl64.Mat3FromRows(
		mgl64.Vec3{c0 * s1 / c1, s0 * s1 / c1, 1},
		mgl64.Vec3{-s0, c0, 0},
		mgl64.Vec3{c0 / c1, s0 / c1, 0},
	), nil
}

// AngularVelocity maps Euler angle rates to the angular velocity vector.
func AngularVelocity(theta, thetaDot mgl64.Vec3) mgl64.Vec3 {
	return RateJacobian(theta).Mul3x1(thetaDot)
}

// EulerRates maps an angular velocity back to Euler angle rates.
func EulerRates(theta, omega mgl64.Vec3) (mgl64.Vec3, error) {
	inv, err := InverseRateJacobian(theta)
	if err != nil {
		return mgl64.Vec3{}, err
	}

	return inv.Mul3x1(omega), nil
}
