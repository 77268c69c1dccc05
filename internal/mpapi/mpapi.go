// Package mpapi is a small Materials Project API client covering the
// lookups workflows need: fetch a structure by material or task id and read
// the current database version.
package mpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"atomflow/internal/config"
	"atomflow/internal/services"
	"atomflow/internal/structure"
)

// Client talks to the Materials Project HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.MaterialsProject.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.MaterialsProject.BaseURL, "/"),
		apiKey:  cfg.MaterialsProject.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// MaterialResult is one structure lookup result.
type MaterialResult struct {
	// TaskID is the calculation the structure originates from.
	TaskID    string
	Structure *structure.Structure
}

// Structure fetches the current best structure for a material id
// (e.g. "mp-149") from the summary endpoint.
func (c *Client) Structure(ctx context.Context, materialID string) (*MaterialResult, error) {
	query := url.Values{}
	query.Set("material_ids", materialID)
	query.Set("_fields", "structure,origins")

	var resp struct {
		Data []struct {
			Structure mpStructure `json:"structure"`
			Origins   []struct {
				Name   string `json:"name"`
				TaskID string `json:"task_id"`
			} `json:"origins"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/materials/summary/", query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "mpapi", "structure lookup",
			"no material found for "+materialID, nil)
	}

	s, err := resp.Data[0].Structure.toStructure()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "mpapi", "structure lookup",
			"malformed structure in response", err)
	}
	result := &MaterialResult{Structure: s, TaskID: materialID}
	for _, origin := range resp.Data[0].Origins {
		if origin.Name == "structure" && origin.TaskID != "" {
			result.TaskID = origin.TaskID
		}
	}
	return result, nil
}

// TaskStructure fetches the structure of a specific calculation task. Unlike
// Structure, the result is pinned and survives database releases.
func (c *Client) TaskStructure(ctx context.Context, taskID string) (*MaterialResult, error) {
	query := url.Values{}
	query.Set("task_ids", taskID)
	query.Set("_fields", "structure")

	var resp struct {
		Data []struct {
			Structure mpStructure `json:"structure"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/materials/tasks/", query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "mpapi", "task lookup",
			"no task found for "+taskID, nil)
	}
	s, err := resp.Data[0].Structure.toStructure()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "mpapi", "task lookup",
			"malformed structure in response", err)
	}
	return &MaterialResult{Structure: s, TaskID: taskID}, nil
}

// DatabaseVersion reports the current database release.
func (c *Client) DatabaseVersion(ctx context.Context) (string, error) {
	var resp struct {
		DBVersion string `json:"db_version"`
	}
	if err := c.get(ctx, "/heartbeat/", nil, &resp); err != nil {
		return "", err
	}
	return resp.DBVersion, nil
}

// Ping checks API reachability and key validity.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.DatabaseVersion(ctx)
	return err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.apiKey == "" {
		return services.Wrap(services.ErrConfiguration, "mpapi", "request",
			"no API key configured; set materials_project.api_key or MP_API_KEY", nil)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "mpapi", "request",
			"Materials Project API unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return services.Wrap(services.ErrTransient, "mpapi", "request", "reading response", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "mpapi", "request",
			"Materials Project API rejected the configured key", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "mpapi", "request",
			"endpoint not found", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return services.Wrap(services.ErrTransient, "mpapi", "request",
			"Materials Project API error", fmt.Errorf("status %d", resp.StatusCode))
	default:
		return services.Wrap(services.ErrValidation, "mpapi", "request",
			"unexpected API response", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrValidation, "mpapi", "request", "malformed JSON response", err)
	}
	return nil
}

func truncate(body []byte) string {
	const max = 200
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}

// mpStructure decodes the pymatgen structure JSON the API returns.
type mpStructure struct {
	Lattice struct {
		Matrix [3][3]float64 `json:"matrix"`
	} `json:"lattice"`
	Sites []struct {
		Species []struct {
			Element string `json:"element"`
		} `json:"species"`
		Abc        [3]float64         `json:"abc"`
		Properties map[string]float64 `json:"properties"`
	} `json:"sites"`
}

func (m mpStructure) toStructure() (*structure.Structure, error) {
	sites := make([]structure.Site, 0, len(m.Sites))
	for i, site := range m.Sites {
		if len(site.Species) == 0 {
			return nil, fmt.Errorf("site %d has no species", i)
		}
		s := structure.Site{
			Species: site.Species[0].Element,
			Frac:    site.Abc,
		}
		if len(site.Properties) > 0 {
			s.Properties = site.Properties
		}
		sites = append(sites, s)
	}
	return structure.New(structure.NewLattice(m.Lattice.Matrix), sites)
}
