package nuscenes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTable(t *testing.T, dir, name, payload string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIndexByToken(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "sensor", `[
		{"token": "a", "channel": "LIDAR_TOP", "modality": "lidar"},
		{"token": "b", "channel": "CAM_FRONT", "modality": "camera"}
	]`)

	index, err := indexByToken(dir, "sensor", func(r sensorRecord) string { return r.Token })
	if err != nil {
		t.Fatalf("indexByToken: %v", err)
	}
	if len(index) != 2 || index["a"].Channel != "LIDAR_TOP" || index["b"].Modality != "camera" {
		t.Errorf("index = %+v", index)
	}
}

func TestGroupBySamplePreservesOrderAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "sample_data", `[
		{"token": "d1", "sample_token": "s1", "is_key_frame": true},
		{"token": "d2", "sample_token": "s1", "is_key_frame": false},
		{"token": "d3", "sample_token": "s1", "is_key_frame": true},
		{"token": "d4", "sample_token": "s2", "is_key_frame": true}
	]`)

	groups, err := groupBySample(dir, "sample_data",
		func(r sampleDataRecord) string { return r.SampleToken },
		func(r sampleDataRecord) bool { return r.IsKeyFrame })
	if err != nil {
		t.Fatalf("groupBySample: %v", err)
	}

	s1 := groups["s1"]
	if len(s1) != 2 || s1[0].Token != "d1" || s1[1].Token != "d3" {
		t.Errorf("s1 group = %+v", s1)
	}
	if len(groups["s2"]) != 1 {
		t.Errorf("s2 group = %+v", groups["s2"])
	}
}

func TestLoadTableErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := loadTable[sceneRecord](dir, "scene"); err == nil {
		t.Error("expected error for missing table file")
	}

	writeTable(t, dir, "scene", `[{"token":`)
	if _, err := loadTable[sceneRecord](dir, "scene"); err == nil {
		t.Error("expected error for malformed table file")
	}
}

func TestLookupWrapsSentinel(t *testing.T) {
	table := map[string]sensorRecord{"a": {Token: "a"}}

	if _, err := lookup(table, "sensor", "a"); err != nil {
		t.Errorf("present token: %v", err)
	}
	_, err := lookup(table, "sensor", "zzz")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("absent token: %v", err)
	}
}
