package dataset

import "github.com/meridian-data/fusionbay/geometry"

// SensorType identifies the modality of a sensor channel.
type SensorType string

const (
	SensorTypeCamera SensorType = "camera"
	SensorTypeLidar  SensorType = "lidar"
	SensorTypeRadar  SensorType = "radar"
)

// CameraIntrinsics is the 3x3 camera matrix, row-major.
type CameraIntrinsics struct {
	Matrix [3][3]float64
}

// Sensor describes one sensor channel of a fusion segment. Extrinsics is the
// rigid transform from the sensor frame to the ego vehicle frame.
type Sensor struct {
	Name       string
	Type       SensorType
	Extrinsics geometry.Transform3D
	Intrinsics *CameraIntrinsics // cameras only
}

// Sensors is a collection of sensors keyed by channel name, preserving
// registration order. The zero value is ready to use.
type Sensors struct {
	byName map[string]*Sensor
	order  []string
}

// Add registers a sensor. Registration is idempotent per channel name: a
// second sensor with the same name is ignored.
func (s *Sensors) Add(sensor *Sensor) {
	if s.byName == nil {
		s.byName = make(map[string]*Sensor)
	}
	if _, ok := s.byName[sensor.Name]; ok {
		return
	}
	s.byName[sensor.Name] = sensor
	s.order = append(s.order, sensor.Name)
}

// Get returns the sensor registered under name.
func (s *Sensors) Get(name string) (*Sensor, bool) {
	sensor, ok := s.byName[name]
	return sensor, ok
}

// Has reports whether a sensor is registered under name.
func (s *Sensors) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Names returns channel names in registration order.
func (s *Sensors) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of registered sensors.
func (s *Sensors) Len() int { return len(s.order) }
