package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/meridian-data/fusionbay/dataset"
	"github.com/meridian-data/fusionbay/label"
)

// DatasetClient is a handle on one hosted dataset, optionally holding an open
// draft created by an upload.
type DatasetClient struct {
	gas     *GAS
	name    string
	draftID string
}

// Name returns the dataset name this client addresses.
func (c *DatasetClient) Name() string { return c.name }

// Wire payloads. Geometry is flattened to the array layout the annotation
// tables use: translation [x y z], rotation [w x y z].

type sensorPayload struct {
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
}

type boxPayload struct {
	Translation [3]float64        `json:"translation"`
	Rotation    [4]float64        `json:"rotation"`
	Size        [3]float64        `json:"size"` // length, width, height
	Category    string            `json:"category"`
	Instance    string            `json:"instance,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

type dataPayload struct {
	RemotePath string       `json:"remote_path"`
	Timestamp  float64      `json:"timestamp"`
	Box3D      []boxPayload `json:"box3d,omitempty"`
}

type framePayload map[string]dataPayload

type segmentPayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Sensors     []sensorPayload `json:"sensors"`
	Frames      []framePayload  `json:"frames"`
}

type notesPayload struct {
	IsContinuous        bool     `json:"is_continuous"`
	BinPointCloudFields []string `json:"bin_point_cloud_fields,omitempty"`
}

// UploadDataset creates the dataset if needed, opens a draft and uploads the
// catalog of every segment. Call Commit on the returned client to publish the
// draft.
func (g *GAS) UploadDataset(ds *dataset.FusionDataset) (*DatasetClient, error) {
	if err := g.CreateDataset(ds.Name); err != nil && !alreadyExists(err) {
		return nil, err
	}

	draftID := uuid.NewString()
	base := "/v1/datasets/" + url.PathEscape(ds.Name) + "/drafts/" + draftID

	resp, err := g.do(http.MethodPost, base, map[string]any{
		"notes": notesPayload{
			IsContinuous:        ds.Notes.IsContinuous,
			BinPointCloudFields: ds.Notes.BinPointCloudFields,
		},
		"catalog": ds.Catalog,
	})
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, http.StatusCreated, http.StatusOK); err != nil {
		return nil, fmt.Errorf("open draft for %q: %w", ds.Name, err)
	}
	resp.Body.Close()

	for _, segment := range ds.Segments() {
		payload := buildSegmentPayload(segment)
		resp, err := g.do(http.MethodPost, base+"/segments", payload)
		if err != nil {
			return nil, err
		}
		if err := checkStatus(resp, http.StatusCreated, http.StatusOK); err != nil {
			return nil, fmt.Errorf("upload segment %q: %w", segment.Name, err)
		}
		resp.Body.Close()
	}

	return &DatasetClient{gas: g, name: ds.Name, draftID: draftID}, nil
}

// Commit publishes the open draft with a commit message and returns the
// commit identifier assigned by the service.
func (c *DatasetClient) Commit(message string) (string, error) {
	if c.draftID == "" {
		return "", fmt.Errorf("dataset %q: no open draft to commit", c.name)
	}
	path := "/v1/datasets/" + url.PathEscape(c.name) + "/drafts/" + c.draftID + "/commit"
	resp, err := c.gas.do(http.MethodPost, path, map[string]string{"message": message})
	if err != nil {
		return "", err
	}
	if err := checkStatus(resp, http.StatusOK, http.StatusCreated); err != nil {
		return "", fmt.Errorf("commit dataset %q: %w", c.name, err)
	}
	defer resp.Body.Close()

	var out struct {
		CommitID string `json:"commit_id"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return "", err
	}
	c.draftID = ""
	return out.CommitID, nil
}

func buildSegmentPayload(segment *dataset.FusionSegment) segmentPayload {
	payload := segmentPayload{
		Name:        segment.Name,
		Description: segment.Description,
	}
	for _, name := range segment.Sensors.Names() {
		sensor, _ := segment.Sensors.Get(name)
		tr := sensor.Extrinsics.Translation()
		q := sensor.Extrinsics.Rotation()
		payload.Sensors = append(payload.Sensors, sensorPayload{
			Name:        sensor.Name,
			Type:        string(sensor.Type),
			Translation: [3]float64{tr.X, tr.Y, tr.Z},
			Rotation:    [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag},
		})
	}
	for _, frame := range segment.Frames {
		fp := framePayload{}
		for channel, data := range frame {
			fp[channel] = dataPayload{
				RemotePath: data.RemotePath,
				Timestamp:  data.Timestamp,
				Box3D:      buildBoxPayloads(data.Label.Box3D),
			}
		}
		payload.Frames = append(payload.Frames, fp)
	}
	return payload
}

func buildBoxPayloads(boxes []label.LabeledBox3D) []boxPayload {
	if len(boxes) == 0 {
		return nil
	}
	out := make([]boxPayload, len(boxes))
	for i, box := range boxes {
		out[i] = boxPayload{
			Translation: [3]float64{box.Translation.X, box.Translation.Y, box.Translation.Z},
			Rotation:    [4]float64{box.Rotation.Real, box.Rotation.Imag, box.Rotation.Jmag, box.Rotation.Kmag},
			Size:        [3]float64{box.Size.Length, box.Size.Width, box.Size.Height},
			Category:    box.Category,
			Instance:    box.Instance,
			Attributes:  box.Attributes,
		}
	}
	return out
}

// alreadyExists reports a create conflict, which UploadDataset tolerates.
func alreadyExists(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}
