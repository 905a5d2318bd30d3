// Package nuscenes converts the nuScenes on-disk layout into a
// dataset.FusionDataset.
//
// The expected file structure is:
//
//	<root>
//	    v1.0-mini/
//	        maps/
//	        samples/<CHANNEL>/...
//	        sweeps/<CHANNEL>/...
//	        v1.0-mini/
//	            attribute.json
//	            calibrated_sensor.json
//	            category.json
//	            ego_pose.json
//	            instance.json
//	            sample.json
//	            sample_annotation.json
//	            sample_data.json
//	            scene.json
//	            sensor.json
//	            visibility.json
//	    v1.0-test/
//	    v1.0-trainval/
//
// Each scene becomes one fusion segment named "<subset>-<scene name>",
// frames in sample-chain order. Test subsets (name ending in "test") carry
// no annotation tables and produce no labels.
package nuscenes

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meridian-data/fusionbay/dataset"
	"github.com/meridian-data/fusionbay/geometry"
	"github.com/meridian-data/fusionbay/label"
)

// DatasetName is the canonical name of the loaded dataset.
const DatasetName = "nuScenes"

// attributeKeys maps an attribute's group prefix to the flattened attribute
// key. The table is closed: a group outside it is a vocabulary mismatch and
// fails the load.
var attributeKeys = map[string]string{
	"vehicle":    "vehicle_motion",
	"cycle":      "cycle_rider",
	"pedestrian": "pedestrian_motion",
}

//go:embed catalog.json
var catalogJSON []byte

// Load reads a nuScenes dataset root and assembles the fusion dataset. Every
// subset directory under root is loaded; the load either completes fully or
// returns the first error.
func Load(root string) (*dataset.FusionDataset, error) {
	rootPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset root: %w", err)
	}

	ds := dataset.NewFusionDataset(DatasetName)
	ds.Notes = dataset.Notes{
		IsContinuous:        true,
		BinPointCloudFields: []string{"X", "Y", "Z", "Intensity", "Ring"},
	}
	if ds.Catalog, err = dataset.ParseCatalog(catalogJSON); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return nil, fmt.Errorf("read dataset root: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		segments, err := loadSubset(rootPath, entry.Name())
		if err != nil {
			return nil, err
		}
		for _, segment := range segments {
			ds.AddSegment(segment)
		}
	}

	log.Printf("[nuScenes] Loaded %d segments from %s", len(ds.Segments()), rootPath)
	return ds, nil
}

// loadSubset builds one segment per scene of a subset, walking each scene's
// sample chain in order.
func loadSubset(rootPath, subset string) ([]*dataset.FusionSegment, error) {
	subsetPath := filepath.Join(rootPath, subset)
	isTest := strings.HasSuffix(subset, "test")

	info, err := loadAnnotationInfo(filepath.Join(subsetPath, subset), isTest)
	if err != nil {
		return nil, err
	}

	segments := make([]*dataset.FusionSegment, 0, len(info.scenes))
	for _, scene := range info.scenes {
		segment := dataset.NewFusionSegment(subset + "-" + scene.Name)
		segment.Description = scene.Description

		// The chain is expected acyclic; the visited set turns a malformed
		// chain into a data-integrity error instead of an endless walk.
		visited := make(map[string]bool)
		for token := scene.FirstSampleToken; token != ""; {
			if visited[token] {
				return nil, fmt.Errorf("scene %s: sample %q revisited: %w", scene.Name, token, ErrSampleCycle)
			}
			visited[token] = true

			if err := buildFrame(segment, token, info, subsetPath, isTest); err != nil {
				return nil, err
			}
			sample, err := lookup(info.samples, "sample", token)
			if err != nil {
				return nil, err
			}
			token = sample.Next
		}
		segments = append(segments, segment)
	}
	return segments, nil
}

// buildFrame assembles the frame for one sample token and appends it to the
// segment: one data record per keyframe sensor reading, with 3D box labels
// attached to lidar data on annotated subsets.
func buildFrame(segment *dataset.FusionSegment, sampleToken string, info *annotationInfo, subsetPath string, isTest bool) error {
	frame := dataset.Frame{}
	for _, sensorFrame := range info.frameData[sampleToken] {
		calibrated, err := lookup(info.calibratedSensors, "calibrated_sensor", sensorFrame.CalibratedSensorToken)
		if err != nil {
			return err
		}
		common, err := lookup(info.sensors, "sensor", calibrated.SensorToken)
		if err != nil {
			return err
		}

		if !segment.Sensors.Has(common.Channel) {
			sensor, err := newSensor(common, calibrated)
			if err != nil {
				return err
			}
			segment.Sensors.Add(sensor)
		}

		data := dataset.NewData(
			filepath.Join(subsetPath, filepath.FromSlash(sensorFrame.Filename)),
			float64(sensorFrame.Timestamp)/1e6,
		)

		if !isTest && common.Modality == "lidar" {
			egoPose, err := lookup(info.egoPoses, "ego_pose", sensorFrame.EgoPoseToken)
			if err != nil {
				return err
			}
			lidar, _ := segment.Sensors.Get(common.Channel)
			if data.Label.Box3D, err = resolveLabels(sampleToken, egoPose, lidar.Extrinsics, info); err != nil {
				return err
			}
		}

		frame[common.Channel] = data
	}
	segment.Append(frame)
	return nil
}

// newSensor builds the segment-level sensor entry from the sensor description
// and its calibration.
func newSensor(common sensorRecord, calibrated calibratedSensorRecord) (*dataset.Sensor, error) {
	var sensorType dataset.SensorType
	switch common.Modality {
	case "camera":
		sensorType = dataset.SensorTypeCamera
	case "lidar":
		sensorType = dataset.SensorTypeLidar
	case "radar":
		sensorType = dataset.SensorTypeRadar
	default:
		return nil, fmt.Errorf("sensor %s: unknown modality %q", common.Channel, common.Modality)
	}

	sensor := &dataset.Sensor{
		Name:       common.Channel,
		Type:       sensorType,
		Extrinsics: geometry.FromArrays(calibrated.Translation, calibrated.Rotation),
	}
	if sensorType == dataset.SensorTypeCamera && len(calibrated.CameraIntrinsic) == 3 {
		intrinsics := &dataset.CameraIntrinsics{}
		for i, row := range calibrated.CameraIntrinsic {
			for j, v := range row {
				if j < 3 {
					intrinsics.Matrix[i][j] = v
				}
			}
		}
		sensor.Intrinsics = intrinsics
	}
	return sensor, nil
}

// resolveLabels returns the 3D boxes annotated at sampleToken, re-expressed
// in the lidar frame. egoPose is ego→world at the lidar timestamp and
// lidarToEgo the lidar extrinsics, so world→lidar is the inverse of their
// composition.
func resolveLabels(sampleToken string, egoPose egoPoseRecord, lidarToEgo geometry.Transform3D, info *annotationInfo) ([]label.LabeledBox3D, error) {
	annotations, ok := info.sampleAnnotations[sampleToken]
	if !ok {
		return nil, nil
	}

	egoToWorld := geometry.FromArrays(egoPose.Translation, egoPose.Rotation)
	worldToLidar := egoToWorld.Compose(lidarToEgo).Inverse()

	labels := make([]label.LabeledBox3D, 0, len(annotations))
	for _, annotation := range annotations {
		box, err := resolveBox(annotation, info)
		if err != nil {
			return nil, err
		}
		labels = append(labels, box.Transformed(worldToLidar))
	}
	return labels, nil
}

// resolveBox joins one annotation against the instance, category, attribute
// and visibility tables, producing a world-frame labeled box.
func resolveBox(annotation sampleAnnotationRecord, info *annotationInfo) (label.LabeledBox3D, error) {
	instance, err := lookup(info.instances, "instance", annotation.InstanceToken)
	if err != nil {
		return label.LabeledBox3D{}, err
	}
	category, err := lookup(info.categories, "category", instance.CategoryToken)
	if err != nil {
		return label.LabeledBox3D{}, err
	}

	attributes := make(map[string]string, len(annotation.AttributeTokens)+1)
	for _, attributeToken := range annotation.AttributeTokens {
		attribute, err := lookup(info.attributes, "attribute", attributeToken)
		if err != nil {
			return label.LabeledBox3D{}, err
		}
		key, state, err := flattenAttribute(attribute.Name)
		if err != nil {
			return label.LabeledBox3D{}, err
		}
		attributes[key] = state
	}
	visibility, err := lookup(info.visibilities, "visibility", annotation.VisibilityToken)
	if err != nil {
		return label.LabeledBox3D{}, err
	}
	attributes["visibility"] = visibility.Level

	// Annotation size is stored width, length, height; boxes carry
	// length, width, height.
	width, length, height := annotation.Size[0], annotation.Size[1], annotation.Size[2]
	return label.LabeledBox3D{
		Box3D: label.Box3D{
			Translation: r3.Vec{
				X: annotation.Translation[0],
				Y: annotation.Translation[1],
				Z: annotation.Translation[2],
			},
			Rotation: quat.Number{
				Real: annotation.Rotation[0],
				Imag: annotation.Rotation[1],
				Jmag: annotation.Rotation[2],
				Kmag: annotation.Rotation[3],
			},
			Size: label.Size3D{Length: length, Width: width, Height: height},
		},
		Category:   category.Name,
		Instance:   annotation.InstanceToken,
		Attributes: attributes,
	}, nil
}

// flattenAttribute splits a dotted attribute name on its last separator into
// the flattened key and its state value, e.g. "vehicle.moving" →
// ("vehicle_motion", "moving").
func flattenAttribute(name string) (key, state string, err error) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", "", fmt.Errorf("attribute %q: no group separator: %w", name, ErrUnknownAttributeGroup)
	}
	group, state := name[:i], name[i+1:]
	key, ok := attributeKeys[group]
	if !ok {
		return "", "", fmt.Errorf("attribute %q: group %q: %w", name, group, ErrUnknownAttributeGroup)
	}
	return key, state, nil
}
