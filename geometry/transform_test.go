package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const tolerance = 1e-9

func vecNear(t *testing.T, got, want r3.Vec, context string) {
	t.Helper()
	if math.Abs(got.X-want.X) > tolerance ||
		math.Abs(got.Y-want.Y) > tolerance ||
		math.Abs(got.Z-want.Z) > tolerance {
		t.Errorf("%s: got %+v, want %+v", context, got, want)
	}
}

// yaw90 is a 90° rotation about +Z as a [w x y z] array.
var yaw90 = [4]float64{math.Sqrt2 / 2, 0, 0, math.Sqrt2 / 2}

func TestIdentityApply(t *testing.T) {
	p := r3.Vec{X: 1, Y: 2, Z: 3}
	vecNear(t, Identity().Apply(p), p, "identity apply")
}

func TestApplyTranslationOnly(t *testing.T) {
	tr := FromArrays([3]float64{1, 2, 3}, [4]float64{1, 0, 0, 0})
	vecNear(t, tr.Apply(r3.Vec{X: 1, Y: 1, Z: 1}), r3.Vec{X: 2, Y: 3, Z: 4}, "translate")
}

func TestApplyRotatesBeforeTranslating(t *testing.T) {
	tr := FromArrays([3]float64{10, 0, 0}, yaw90)
	// Yaw by 90° maps +X to +Y, then translate by (10,0,0).
	vecNear(t, tr.Apply(r3.Vec{X: 1}), r3.Vec{X: 10, Y: 1}, "rotate then translate")
}

func TestComposeOrder(t *testing.T) {
	a := FromArrays([3]float64{0, 0, 1}, yaw90)
	b := FromArrays([3]float64{5, 0, 0}, [4]float64{1, 0, 0, 0})

	p := r3.Vec{X: 1, Y: 2, Z: 3}
	vecNear(t, a.Compose(b).Apply(p), a.Apply(b.Apply(p)), "compose applies right-to-left")
}

func TestInverseRoundTrip(t *testing.T) {
	tr := FromArrays([3]float64{1.5, -2.25, 0.75}, yaw90)
	inv := tr.Inverse()

	p := r3.Vec{X: 4, Y: -1, Z: 2}
	vecNear(t, inv.Apply(tr.Apply(p)), p, "inverse undoes transform")
	vecNear(t, tr.Apply(inv.Apply(p)), p, "transform undoes inverse")
}

func TestInverseComposeIsIdentity(t *testing.T) {
	tr := FromArrays([3]float64{3, 1, -2}, yaw90)
	id := tr.Compose(tr.Inverse())

	vecNear(t, id.Translation(), r3.Vec{}, "identity translation")
	if math.Abs(quat.Abs(id.Rotation())-1) > tolerance {
		t.Errorf("identity rotation not unit: %v", id.Rotation())
	}
	vecNear(t, id.Apply(r3.Vec{X: 7, Y: 8, Z: 9}), r3.Vec{X: 7, Y: 8, Z: 9}, "identity apply")
}

func TestNormalizesRotation(t *testing.T) {
	// A non-unit quaternion input must behave identically to its unit form.
	scaled := NewTransform3D(r3.Vec{}, quat.Number{Real: 2, Kmag: 2})
	unit := FromArrays([3]float64{0, 0, 0}, yaw90)

	p := r3.Vec{X: 1, Y: 0, Z: 0}
	vecNear(t, scaled.Apply(p), unit.Apply(p), "normalised rotation")
}

func TestWorldToSensorInversion(t *testing.T) {
	// Ego pose (ego→world) composed with extrinsics (sensor→ego) and
	// inverted yields world→sensor. A point at the ego origin must land at
	// the negated extrinsic translation, rotated into the sensor frame.
	egoPose := FromArrays([3]float64{100, 50, 0}, [4]float64{1, 0, 0, 0})
	lidarToEgo := FromArrays([3]float64{0, 0, 1.8}, [4]float64{1, 0, 0, 0})

	worldToLidar := egoPose.Compose(lidarToEgo).Inverse()
	egoOriginWorld := r3.Vec{X: 100, Y: 50, Z: 0}
	vecNear(t, worldToLidar.Apply(egoOriginWorld), r3.Vec{Z: -1.8}, "ego origin in lidar frame")
}
