// Package label holds the label types attached to sensor data records.
// Only 3D box labels are produced by the loaders in this module; the Label
// container leaves room for further label kinds.
package label

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meridian-data/fusionbay/geometry"
)

// Size3D is a box extent in metres. Length runs along the box heading,
// Width across it, Height along Z.
type Size3D struct {
	Length float64
	Width  float64
	Height float64
}

// Box3D is a 7-DOF oriented box: centre position, heading as a unit
// quaternion, and extent. Position and heading are meaningful only relative
// to a stated coordinate frame.
type Box3D struct {
	Translation r3.Vec
	Rotation    quat.Number
	Size        Size3D
}

// LabeledBox3D is a Box3D with annotation metadata attached.
type LabeledBox3D struct {
	Box3D
	Category   string
	Instance   string
	Attributes map[string]string
}

// Transformed returns a copy of the box re-expressed through tr. Translation
// and rotation move to the target frame; size is frame-invariant.
func (b LabeledBox3D) Transformed(tr geometry.Transform3D) LabeledBox3D {
	out := b
	out.Translation = tr.Apply(b.Translation)
	out.Rotation = tr.ApplyRotation(b.Rotation)
	return out
}

// Label is the per-data-record label container.
type Label struct {
	Box3D []LabeledBox3D
}

// Empty reports whether no labels of any kind are present.
func (l *Label) Empty() bool {
	return l == nil || len(l.Box3D) == 0
}
