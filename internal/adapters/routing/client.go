package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
)

// Client talks to a Goong-style routing REST API (geocoding + distance
// matrix). All calls go through a client-side rate limiter so bursts of
// planner traffic cannot exhaust the provider quota.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a routing API client from configuration
func NewClient(cfg *config.RoutingConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.Requests), cfg.RateLimit.Burst),
	}
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type matrixResponse struct {
	Rows []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// Geocode resolves a street address to a coordinate
func (c *Client) Geocode(ctx context.Context, address string) (shared.Coordinate, error) {
	params := url.Values{}
	params.Set("address", address)

	var resp geocodeResponse
	if err := c.get(ctx, "/Geocode", params, &resp); err != nil {
		return shared.Coordinate{}, err
	}
	if len(resp.Results) == 0 {
		return shared.Coordinate{}, shared.NewUpstreamError("geocoding returned no results for "+address, routing.ErrAddressNotFound)
	}

	loc := resp.Results[0].Geometry.Location
	coord := shared.Coordinate{Lat: loc.Lat, Lon: loc.Lng}
	if !coord.Valid() {
		return shared.Coordinate{}, shared.NewUpstreamError("geocoding returned out-of-bounds coordinates", routing.ErrAddressNotFound)
	}
	return coord, nil
}

// DistanceKm returns the road distance between two points
func (c *Client) DistanceKm(ctx context.Context, origin, dest shared.Coordinate, mode routing.Mode) (float64, error) {
	elements, err := c.DistanceMatrix(ctx, origin, []shared.Coordinate{dest}, mode)
	if err != nil {
		return 0, err
	}
	if !elements[0].OK {
		return 0, shared.NewUpstreamError("no route between points", routing.ErrNoRoute)
	}
	return elements[0].DistanceKm, nil
}

// DistanceMatrix returns one element per destination, in order
func (c *Client) DistanceMatrix(ctx context.Context, origin shared.Coordinate, dests []shared.Coordinate, mode routing.Mode) ([]routing.MatrixElement, error) {
	if len(dests) == 0 {
		return nil, nil
	}

	destParts := make([]string, len(dests))
	for i, d := range dests {
		destParts[i] = fmt.Sprintf("%f,%f", d.Lat, d.Lon)
	}

	params := url.Values{}
	params.Set("origins", fmt.Sprintf("%f,%f", origin.Lat, origin.Lon))
	params.Set("destinations", strings.Join(destParts, "|"))
	params.Set("vehicle", string(mode))

	var resp matrixResponse
	if err := c.get(ctx, "/DistanceMatrix", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Rows) == 0 {
		return nil, shared.NewUpstreamError("distance matrix returned no rows", routing.ErrNoRoute)
	}

	row := resp.Rows[0]
	elements := make([]routing.MatrixElement, len(dests))
	for i := range dests {
		if i >= len(row.Elements) {
			break
		}
		el := row.Elements[i]
		if el.Status != "OK" {
			continue
		}
		elements[i] = routing.MatrixElement{
			OK:         true,
			DistanceKm: el.Distance.Value / 1000,
			DurationS:  el.Duration.Value,
		}
	}
	return elements, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shared.NewUpstreamError("routing provider unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.NewUpstreamError("failed to read routing response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return shared.NewUpstreamError(
			fmt.Sprintf("routing provider returned %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return shared.NewUpstreamError("failed to decode routing response", err)
	}
	return nil
}
