// Package dataset defines the in-memory object model produced by the
// opendataset loaders and consumed by the client: a FusionDataset is an
// ordered set of FusionSegments; a segment is an ordered sequence of Frames
// over a fixed sensor set; a frame maps each sensor channel to one Data
// record.
package dataset

import (
	"path/filepath"

	"github.com/meridian-data/fusionbay/label"
)

// Data is one sensor reading: a file referenced by path (the file is never
// opened here), its capture timestamp in seconds, and any attached labels.
type Data struct {
	LocalPath  string
	RemotePath string
	Timestamp  float64
	Label      label.Label
}

// NewData builds a Data record for a local file. The remote path defaults to
// the file's base name.
func NewData(localPath string, timestamp float64) *Data {
	return &Data{
		LocalPath:  localPath,
		RemotePath: filepath.Base(localPath),
		Timestamp:  timestamp,
	}
}

// Frame maps sensor channel name to the data captured on that channel at one
// sample instant.
type Frame map[string]*Data

// FusionSegment is one named, ordered scene: a sensor set plus its frames in
// playback order.
type FusionSegment struct {
	Name        string
	Description string
	Sensors     Sensors
	Frames      []Frame
}

// NewFusionSegment creates an empty segment.
func NewFusionSegment(name string) *FusionSegment {
	return &FusionSegment{Name: name}
}

// Append adds a frame at the end of the segment. Frame order is the playback
// order of the scene.
func (s *FusionSegment) Append(f Frame) {
	s.Frames = append(s.Frames, f)
}

// Notes carries dataset-level metadata.
type Notes struct {
	IsContinuous        bool
	BinPointCloudFields []string
}

// FusionDataset is a named collection of fusion segments with dataset-level
// notes and an optional label catalog.
type FusionDataset struct {
	Name    string
	Notes   Notes
	Catalog *Catalog

	segments []*FusionSegment
	byName   map[string]*FusionSegment
}

// NewFusionDataset creates an empty dataset.
func NewFusionDataset(name string) *FusionDataset {
	return &FusionDataset{
		Name:   name,
		byName: make(map[string]*FusionSegment),
	}
}

// AddSegment appends a segment, keeping insertion order. A segment replaces
// any earlier segment with the same name in the lookup index but not in the
// ordered view.
func (d *FusionDataset) AddSegment(s *FusionSegment) {
	d.segments = append(d.segments, s)
	if d.byName == nil {
		d.byName = make(map[string]*FusionSegment)
	}
	d.byName[s.Name] = s
}

// Segments returns all segments in insertion order.
func (d *FusionDataset) Segments() []*FusionSegment {
	return d.segments
}

// Segment returns the segment registered under name.
func (d *FusionDataset) Segment(name string) (*FusionSegment, bool) {
	s, ok := d.byName[name]
	return s, ok
}
