// Package geometry provides the rigid-body transform type used to move
// sensor data and labels between coordinate frames (sensor, ego vehicle,
// world).
package geometry

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform3D is a rigid transform: a rotation (unit quaternion) followed by
// a translation. The zero value is not valid; use Identity or one of the
// constructors. Values are immutable once constructed.
type Transform3D struct {
	rotation    quat.Number
	translation r3.Vec
}

// Identity returns the identity transform.
func Identity() Transform3D {
	return Transform3D{rotation: quat.Number{Real: 1}}
}

// NewTransform3D builds a transform from a translation and a rotation.
// The rotation is normalised to a unit quaternion.
func NewTransform3D(translation r3.Vec, rotation quat.Number) Transform3D {
	return Transform3D{
		rotation:    normalize(rotation),
		translation: translation,
	}
}

// FromArrays builds a transform from the array layout used by annotation
// tables: translation as [x y z], rotation as [w x y z].
func FromArrays(translation [3]float64, rotation [4]float64) Transform3D {
	return NewTransform3D(
		r3.Vec{X: translation[0], Y: translation[1], Z: translation[2]},
		quat.Number{Real: rotation[0], Imag: rotation[1], Jmag: rotation[2], Kmag: rotation[3]},
	)
}

func normalize(q quat.Number) quat.Number {
	a := quat.Abs(q)
	if a == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/a, q)
}

// Translation returns the translation component.
func (t Transform3D) Translation() r3.Vec { return t.translation }

// Rotation returns the rotation component as a unit quaternion.
func (t Transform3D) Rotation() quat.Number { return t.rotation }

// Apply transforms a point: rotate, then translate.
func (t Transform3D) Apply(p r3.Vec) r3.Vec {
	return r3.Add(r3.Rotation(t.rotation).Rotate(p), t.translation)
}

// ApplyRotation composes the transform's rotation with q. Used to carry an
// oriented box's heading across frames.
func (t Transform3D) ApplyRotation(q quat.Number) quat.Number {
	return quat.Mul(t.rotation, q)
}

// Compose returns the transform equivalent to applying u first, then t:
// t.Compose(u).Apply(p) == t.Apply(u.Apply(p)).
func (t Transform3D) Compose(u Transform3D) Transform3D {
	return Transform3D{
		rotation:    quat.Mul(t.rotation, u.rotation),
		translation: t.Apply(u.translation),
	}
}

// Inverse returns the transform that undoes t.
func (t Transform3D) Inverse() Transform3D {
	inv := quat.Conj(t.rotation)
	return Transform3D{
		rotation:    inv,
		translation: r3.Rotation(inv).Rotate(r3.Scale(-1, t.translation)),
	}
}
