package label

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meridian-data/fusionbay/geometry"
)

func TestTransformedMovesPoseKeepsSize(t *testing.T) {
	box := LabeledBox3D{
		Box3D: Box3D{
			Translation: r3.Vec{X: 1, Y: 2, Z: 3},
			Rotation:    quat.Number{Real: 1},
			Size:        Size3D{Length: 5, Width: 2, Height: 1.5},
		},
		Category: "vehicle.car",
	}

	tr := geometry.FromArrays([3]float64{10, 0, 0}, [4]float64{1, 0, 0, 0})
	got := box.Transformed(tr)

	if got.Translation.X != 11 || got.Translation.Y != 2 || got.Translation.Z != 3 {
		t.Errorf("translation not transformed: %+v", got.Translation)
	}
	if got.Size != box.Size {
		t.Errorf("size must be frame-invariant: %+v", got.Size)
	}
	if got.Category != "vehicle.car" {
		t.Errorf("metadata lost: %q", got.Category)
	}
	// Original untouched.
	if box.Translation.X != 1 {
		t.Errorf("input box mutated: %+v", box.Translation)
	}
}

func TestTransformedRoundTrip(t *testing.T) {
	yaw90 := [4]float64{math.Sqrt2 / 2, 0, 0, math.Sqrt2 / 2}
	tr := geometry.FromArrays([3]float64{4, -7, 2}, yaw90)

	box := LabeledBox3D{Box3D: Box3D{
		Translation: r3.Vec{X: 12, Y: 3, Z: 0.5},
		Rotation:    quat.Number{Real: math.Sqrt2 / 2, Kmag: math.Sqrt2 / 2},
		Size:        Size3D{Length: 4.2, Width: 1.9, Height: 1.6},
	}}

	back := box.Transformed(tr).Transformed(tr.Inverse())
	const tol = 1e-9
	if math.Abs(back.Translation.X-box.Translation.X) > tol ||
		math.Abs(back.Translation.Y-box.Translation.Y) > tol ||
		math.Abs(back.Translation.Z-box.Translation.Z) > tol {
		t.Errorf("round trip translation: got %+v want %+v", back.Translation, box.Translation)
	}
}

func TestLabelEmpty(t *testing.T) {
	var nilLabel *Label
	if !nilLabel.Empty() {
		t.Error("nil label should be empty")
	}
	l := &Label{}
	if !l.Empty() {
		t.Error("zero label should be empty")
	}
	l.Box3D = append(l.Box3D, LabeledBox3D{})
	if l.Empty() {
		t.Error("label with a box should not be empty")
	}
}
