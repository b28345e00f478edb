// Package backend is the client for the homestead REST backend that owns
// properties, the structure catalog and placed structures.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/homestead/layout-server/internal/config"
	"github.com/homestead/layout-server/internal/model"
	"github.com/homestead/layout-server/internal/performance"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client talks to the homestead REST backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	retryCount int
	client     *http.Client
	profiler   *performance.Profiler
}

// NewClient creates a backend client from configuration.
func NewClient(cfg *config.Config, profiler *performance.Profiler) *Client {
	return &Client{
		baseURL:    cfg.Backend.BaseURL,
		retryCount: cfg.Backend.RetryCount,
		client: &http.Client{
			Timeout: cfg.Backend.Timeout,
		},
		profiler: profiler,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Version string `json:"version,omitempty"`
}

// HealthCheck checks if the backend is healthy
func (c *Client) HealthCheck(ctx context.Context) error {
	var health HealthResponse
	if err := c.get(ctx, "health", "/health", &health); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if health.Status != "ok" && health.Status != "healthy" {
		return fmt.Errorf("backend reported unhealthy status: %s", health.Status)
	}
	return nil
}

// Properties

// ListProperties returns all properties without their structures.
func (c *Client) ListProperties(ctx context.Context) ([]model.Property, error) {
	var out []model.Property
	if err := c.get(ctx, "list_properties", "/api/properties", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProperty returns a property with its placed structures.
func (c *Client) GetProperty(ctx context.Context, id int64) (*model.Property, error) {
	var out model.Property
	if err := c.get(ctx, "get_property", propertyPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProperty creates a property.
func (c *Client) CreateProperty(ctx context.Context, in model.PropertyInput) (*model.Property, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out model.Property
	if err := c.send(ctx, "create_property", http.MethodPost, "/api/properties", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProperty replaces a property's fields.
func (c *Client) UpdateProperty(ctx context.Context, id int64, in model.PropertyInput) (*model.Property, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out model.Property
	if err := c.send(ctx, "update_property", http.MethodPut, propertyPath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProperty deletes a property and its placed structures.
func (c *Client) DeleteProperty(ctx context.Context, id int64) error {
	return c.send(ctx, "delete_property", http.MethodDelete, propertyPath(id), nil, nil)
}

// Structure types

// ListStructureTypes returns the full structure catalog.
func (c *Client) ListStructureTypes(ctx context.Context) ([]model.StructureType, error) {
	var out []model.StructureType
	if err := c.get(ctx, "list_structure_types", "/api/structure-types", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStructureType returns one catalog entry.
func (c *Client) GetStructureType(ctx context.Context, id int64) (*model.StructureType, error) {
	var out model.StructureType
	if err := c.get(ctx, "get_structure_type", structureTypePath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateStructureType adds a catalog entry.
func (c *Client) CreateStructureType(ctx context.Context, in model.StructureTypeInput) (*model.StructureType, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out model.StructureType
	if err := c.send(ctx, "create_structure_type", http.MethodPost, "/api/structure-types", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStructureType replaces a catalog entry.
func (c *Client) UpdateStructureType(ctx context.Context, id int64, in model.StructureTypeInput) (*model.StructureType, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out model.StructureType
	if err := c.send(ctx, "update_structure_type", http.MethodPut, structureTypePath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteStructureType removes a catalog entry.
func (c *Client) DeleteStructureType(ctx context.Context, id int64) error {
	return c.send(ctx, "delete_structure_type", http.MethodDelete, structureTypePath(id), nil, nil)
}

// Placed structures

// ListPlacedStructures returns the structures placed on a property.
func (c *Client) ListPlacedStructures(ctx context.Context, propertyID int64) ([]model.PlacedStructure, error) {
	q := url.Values{}
	q.Set("property_id", strconv.FormatInt(propertyID, 10))
	var out []model.PlacedStructure
	if err := c.get(ctx, "list_placed_structures", "/api/placed-structures?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePlacedStructure places a new structure.
func (c *Client) CreatePlacedStructure(ctx context.Context, in model.PlacedStructureInput) (*model.PlacedStructure, error) {
	var out model.PlacedStructure
	if err := c.send(ctx, "create_placed_structure", http.MethodPost, "/api/placed-structures", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePlacedStructure replaces a placed structure's fields.
func (c *Client) UpdatePlacedStructure(ctx context.Context, id int64, in model.PlacedStructureInput) (*model.PlacedStructure, error) {
	var out model.PlacedStructure
	if err := c.send(ctx, "update_placed_structure", http.MethodPut, placedStructurePath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePlacedStructure removes a placed structure.
func (c *Client) DeletePlacedStructure(ctx context.Context, id int64) error {
	return c.send(ctx, "delete_placed_structure", http.MethodDelete, placedStructurePath(id), nil, nil)
}

func propertyPath(id int64) string        { return fmt.Sprintf("/api/properties/%d", id) }
func structureTypePath(id int64) string   { return fmt.Sprintf("/api/structure-types/%d", id) }
func placedStructurePath(id int64) string { return fmt.Sprintf("/api/placed-structures/%d", id) }

// get performs an idempotent GET, retrying transport failures and 5xx
// responses with exponential backoff.
func (c *Client) get(ctx context.Context, op, path string, out interface{}) error {
	defer c.profiler.Start(performance.MetricBackendPrefix + op).End()

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 100ms, 200ms, 400ms
			backoff := time.Duration(100*(1<<uint(attempt-1))) * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("GET %s cancelled: %w", path, ctx.Err())
			case <-time.After(backoff):
			}
		}

		respBody, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			lastErr = err
			var se *StatusError
			if errors.As(err, &se) && se.StatusCode < 500 {
				return err
			}
			if ctx.Err() != nil {
				return err
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to decode response from %s: %w", path, err)
			}
		}
		return nil
	}

	return fmt.Errorf("GET %s failed after %d attempts: %w", path, c.retryCount+1, lastErr)
}

// send performs a single mutation. Mutations are never retried.
func (c *Client) send(ctx context.Context, op, method, path string, in, out interface{}) error {
	defer c.profiler.Start(performance.MetricBackendPrefix + op).End()

	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	respBody, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s request failed: %w", method, path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("Warning: failed to close backend response body: %v", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(respBody)),
		}
	}
	return respBody, nil
}
