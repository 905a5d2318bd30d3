package nuscenes

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrTokenNotFound reports a foreign-key token that is absent from its target
// table. The dataset is assumed closed and consistent, so this aborts a load.
var ErrTokenNotFound = errors.New("token not found")

// ErrSampleCycle reports a malformed sample chain that revisits a token.
var ErrSampleCycle = errors.New("sample chain contains a cycle")

// ErrUnknownAttributeGroup reports an attribute name whose group prefix is
// outside the dataset's fixed vocabulary.
var ErrUnknownAttributeGroup = errors.New("unknown attribute group")

// Annotation table records. Field names follow the nuScenes schema; only the
// fields the loader joins on are declared.

type sceneRecord struct {
	Token            string `json:"token"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	FirstSampleToken string `json:"first_sample_token"`
}

type sampleRecord struct {
	Token      string `json:"token"`
	Next       string `json:"next"`
	Prev       string `json:"prev"`
	SceneToken string `json:"scene_token"`
	Timestamp  int64  `json:"timestamp"`
}

type sampleDataRecord struct {
	Token                 string `json:"token"`
	SampleToken           string `json:"sample_token"`
	EgoPoseToken          string `json:"ego_pose_token"`
	CalibratedSensorToken string `json:"calibrated_sensor_token"`
	Timestamp             int64  `json:"timestamp"`
	IsKeyFrame            bool   `json:"is_key_frame"`
	Filename              string `json:"filename"`
	Fileformat            string `json:"fileformat"`
}

type calibratedSensorRecord struct {
	Token           string      `json:"token"`
	SensorToken     string      `json:"sensor_token"`
	Translation     [3]float64  `json:"translation"`
	Rotation        [4]float64  `json:"rotation"` // w x y z
	CameraIntrinsic [][]float64 `json:"camera_intrinsic"`
}

type sensorRecord struct {
	Token    string `json:"token"`
	Channel  string `json:"channel"`
	Modality string `json:"modality"`
}

type egoPoseRecord struct {
	Token       string     `json:"token"`
	Timestamp   int64      `json:"timestamp"`
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
}

type sampleAnnotationRecord struct {
	Token           string     `json:"token"`
	SampleToken     string     `json:"sample_token"`
	InstanceToken   string     `json:"instance_token"`
	VisibilityToken string     `json:"visibility_token"`
	AttributeTokens []string   `json:"attribute_tokens"`
	Translation     [3]float64 `json:"translation"`
	Size            [3]float64 `json:"size"` // width, length, height
	Rotation        [4]float64 `json:"rotation"`
}

type instanceRecord struct {
	Token         string `json:"token"`
	CategoryToken string `json:"category_token"`
}

type categoryRecord struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type attributeRecord struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type visibilityRecord struct {
	Token string `json:"token"`
	Level string `json:"level"`
}

// loadTable reads <dir>/<name>.json and decodes it as a record sequence.
// A missing file or malformed JSON is fatal for the load.
func loadTable[T any](dir, name string) ([]T, error) {
	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s table: %w", name, err)
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s table: %w", name, err)
	}
	return records, nil
}

// indexByToken loads a table and indexes it by primary token for O(1) joins.
func indexByToken[T any](dir, name string, token func(T) string) (map[string]T, error) {
	records, err := loadTable[T](dir, name)
	if err != nil {
		return nil, err
	}
	index := make(map[string]T, len(records))
	for _, r := range records {
		index[token(r)] = r
	}
	return index, nil
}

// groupBySample loads a one-to-many table and groups its records by sample
// token, preserving file order within each group. Records for which keep
// returns false are excluded; pass nil to keep everything.
func groupBySample[T any](dir, name string, sampleToken func(T) string, keep func(T) bool) (map[string][]T, error) {
	records, err := loadTable[T](dir, name)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]T)
	for _, r := range records {
		if keep != nil && !keep(r) {
			continue
		}
		key := sampleToken(r)
		groups[key] = append(groups[key], r)
	}
	return groups, nil
}

// lookup resolves a foreign-key token against its indexed table.
func lookup[T any](table map[string]T, tableName, token string) (T, error) {
	record, ok := table[token]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s table: token %q: %w", tableName, token, ErrTokenNotFound)
	}
	return record, nil
}

// annotationInfo holds every table of one subset, indexed for the join. The
// annotation-side tables are nil for test subsets.
type annotationInfo struct {
	samples           map[string]sampleRecord
	frameData         map[string][]sampleDataRecord
	calibratedSensors map[string]calibratedSensorRecord
	egoPoses          map[string]egoPoseRecord
	sensors           map[string]sensorRecord
	scenes            []sceneRecord

	sampleAnnotations map[string][]sampleAnnotationRecord
	instances         map[string]instanceRecord
	categories        map[string]categoryRecord
	attributes        map[string]attributeRecord
	visibilities      map[string]visibilityRecord
}

// loadAnnotationInfo reads and indexes the annotation tables under infoDir.
// For test subsets the annotation tables are skipped entirely: they are not
// present on disk and no labels are produced.
func loadAnnotationInfo(infoDir string, isTest bool) (*annotationInfo, error) {
	info := &annotationInfo{}
	var err error

	if info.samples, err = indexByToken(infoDir, "sample", func(r sampleRecord) string { return r.Token }); err != nil {
		return nil, err
	}
	// Only keyframe-aligned sample_data rows belong to a frame; sweeps in
	// between carry is_key_frame=false and are skipped.
	info.frameData, err = groupBySample(infoDir, "sample_data",
		func(r sampleDataRecord) string { return r.SampleToken },
		func(r sampleDataRecord) bool { return r.IsKeyFrame })
	if err != nil {
		return nil, err
	}
	if info.calibratedSensors, err = indexByToken(infoDir, "calibrated_sensor", func(r calibratedSensorRecord) string { return r.Token }); err != nil {
		return nil, err
	}
	if info.egoPoses, err = indexByToken(infoDir, "ego_pose", func(r egoPoseRecord) string { return r.Token }); err != nil {
		return nil, err
	}
	if info.sensors, err = indexByToken(infoDir, "sensor", func(r sensorRecord) string { return r.Token }); err != nil {
		return nil, err
	}
	if info.scenes, err = loadTable[sceneRecord](infoDir, "scene"); err != nil {
		return nil, err
	}

	if isTest {
		return info, nil
	}

	info.sampleAnnotations, err = groupBySample(infoDir, "sample_annotation",
		func(r sampleAnnotationRecord) string { return r.SampleToken }, nil)
	if err != nil {
		return nil, err
	}
	if info.instances, err = indexByToken(infoDir, "instance", func(r instanceRecord) string { return r.Token }); err != nil {
		return nil, err
	}
	if info.categories, err = indexByToken(infoDir, "category", func(r categoryRecord) string { return r.Token }); err != nil {
		return nil, err
	}
	if info.attributes, err = indexByToken(infoDir, "attribute", func(r attributeRecord) string { return r.Token }); err != nil {
		return nil, err
	}
	if info.visibilities, err = indexByToken(infoDir, "visibility", func(r visibilityRecord) string { return r.Token }); err != nil {
		return nil, err
	}

	return info, nil
}
