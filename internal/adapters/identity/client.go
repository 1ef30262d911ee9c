package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andrescamacho/dispatch-go/internal/application/scan"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
)

// Actor is the authenticated caller as the engine sees it. Role is one of
// the two scan roles; upstream role names are mapped on the way in.
type Actor struct {
	ID   string
	Name string
	Role string
}

// Validator resolves bearer tokens to actors
type Validator interface {
	Validate(ctx context.Context, token string) (*Actor, error)
}

// Client validates tokens against the external identity service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an identity client from configuration
func NewClient(cfg *config.IdentityConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type validateResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Validate resolves a bearer token. An invalid or expired token comes back
// as a NotAssigned error so the HTTP layer answers 403.
func (c *Client) Validate(ctx context.Context, token string) (*Actor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/validate", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewUpstreamError("identity service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, shared.NewNotAssignedError("invalid or expired token")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, shared.NewUpstreamError(fmt.Sprintf("identity service returned %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shared.NewUpstreamError("failed to read identity response", err)
	}
	var parsed validateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, shared.NewUpstreamError("failed to decode identity response", err)
	}

	return &Actor{
		ID:   parsed.UserID,
		Name: parsed.Name,
		Role: MapRole(parsed.Role),
	}, nil
}

// MapRole folds upstream role names onto the engine's two scan roles.
// Unknown roles map to empty, which fails every role check downstream.
func MapRole(upstream string) string {
	switch strings.ToUpper(upstream) {
	case "SHIPPER", "COURIER", "DRIVER":
		return scan.RoleCourier
	case "WAREHOUSE_STAFF", "WAREHOUSE_MANAGER", "WAREHOUSE":
		return scan.RoleWarehouseStaff
	default:
		return ""
	}
}

// StaticValidator answers every token with a fixed actor; used when
// identity is disabled for local development.
type StaticValidator struct {
	Actor Actor
}

// Validate returns the configured actor
func (v *StaticValidator) Validate(ctx context.Context, token string) (*Actor, error) {
	a := v.Actor
	return &a, nil
}
