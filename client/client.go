// Package client talks to a fusionbay dataset-hosting service: AccessKey
// authorization, dataset lifecycle (create, list, get, delete) and dataset
// upload with draft/commit semantics. Binary sensor files are referenced by
// remote path only; their contents are never sent through this client.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound reports a dataset name unknown to the service.
var ErrNotFound = errors.New("dataset not found")

// APIError is a non-2xx service response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("service returned %d: %s", e.Code, e.Message)
}

// Config controls request behaviour for every call made by a GAS client.
type Config struct {
	// Endpoint is the service base URL.
	Endpoint string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after a transport
	// error or a 5xx response.
	MaxRetries int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint:   "https://gas.meridian-data.io",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// GAS is an authorized client for the dataset-hosting service.
type GAS struct {
	accessKey string
	config    Config
	client    *http.Client
}

// NewGAS returns a client authorized by accessKey using DefaultConfig.
func NewGAS(accessKey string) *GAS {
	return NewGASWithConfig(accessKey, DefaultConfig())
}

// NewGASWithConfig returns a client with explicit request configuration.
func NewGASWithConfig(accessKey string, config Config) *GAS {
	if config.Endpoint == "" {
		config.Endpoint = DefaultConfig().Endpoint
	}
	return &GAS{
		accessKey: accessKey,
		config:    config,
		client:    &http.Client{Timeout: config.Timeout},
	}
}

// do sends one API request, retrying transport errors and 5xx responses up
// to MaxRetries. The caller owns the returned body.
func (g *GAS) do(method, path string, payload any) (*http.Response, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		req, err := http.NewRequest(method, g.config.Endpoint+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("X-Token", g.accessKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := g.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %s", resp.Status)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("%s %s failed after %d attempts: %w", method, path, g.config.MaxRetries+1, lastErr)
}

// checkStatus drains and closes the body unless the response is one of the
// accepted statuses.
func checkStatus(resp *http.Response, accepted ...int) error {
	for _, code := range accepted {
		if resp.StatusCode == code {
			return nil
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &APIError{Code: resp.StatusCode, Message: string(bytes.TrimSpace(msg))}
}

// decodeJSON decodes a response body, wrapping decode failures.
func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CreateDataset registers an empty dataset under name.
func (g *GAS) CreateDataset(name string) error {
	resp, err := g.do(http.MethodPost, "/v1/datasets", map[string]string{"name": name})
	if err != nil {
		return err
	}
	if err := checkStatus(resp, http.StatusCreated, http.StatusOK); err != nil {
		return fmt.Errorf("create dataset %q: %w", name, err)
	}
	resp.Body.Close()
	return nil
}

// DeleteDataset removes the dataset registered under name.
func (g *GAS) DeleteDataset(name string) error {
	resp, err := g.do(http.MethodDelete, "/v1/datasets/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	if err := checkStatus(resp, http.StatusNoContent, http.StatusOK); err != nil {
		return fmt.Errorf("delete dataset %q: %w", name, err)
	}
	resp.Body.Close()
	return nil
}

// ListDatasetNames returns the names of every dataset visible to the access
// key.
func (g *GAS) ListDatasetNames() ([]string, error) {
	resp, err := g.do(http.MethodGet, "/v1/datasets", nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Datasets []struct {
			Name string `json:"name"`
		} `json:"datasets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode dataset list: %w", err)
	}
	names := make([]string, len(out.Datasets))
	for i, d := range out.Datasets {
		names[i] = d.Name
	}
	return names, nil
}

// GetDataset returns a handle on a hosted dataset.
func (g *GAS) GetDataset(name string) (*DatasetClient, error) {
	resp, err := g.do(http.MethodGet, "/v1/datasets/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("get dataset %q: %w", name, err)
	}
	resp.Body.Close()
	return &DatasetClient{gas: g, name: name}, nil
}
