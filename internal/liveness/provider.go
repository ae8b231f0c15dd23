package liveness

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fieldtrack/location-tracker/internal/httpclient"
	"github.com/fieldtrack/location-tracker/internal/location"
)

// TerminalStatus is the order status code meaning the transaction is finished
const TerminalStatus = 5

// Order is the subset of an order the monitor needs
type Order struct {
	OrderID    int64
	StatusCode int
}

// Terminal reports whether the order has reached the terminal status.
func (o Order) Terminal() bool {
	return o.StatusCode == TerminalStatus
}

// OrderProvider looks up the order currently assigned to an agent
//
//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks -source=provider.go OrderProvider
type OrderProvider interface {
	// ActiveOrder returns the agent's current order, or nil when there is none
	ActiveOrder(ctx context.Context, agentID int64, role location.Role) (*Order, error)
}

// HTTPOrderProvider queries the backend's active-pickup endpoint
type HTTPOrderProvider struct {
	client  httpclient.Client
	baseURL string
	apiKey  string
}

// NewHTTPOrderProvider creates a provider for the backend rooted at baseURL.
func NewHTTPOrderProvider(client httpclient.Client, baseURL, apiKey string) *HTTPOrderProvider {
	return &HTTPOrderProvider{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// ActiveOrder implements OrderProvider.
//
// The backend wraps results as {"status", "msg", "data"}; data is null when
// the agent has no active pickup. Status fields arrive as either numbers or
// numeric strings.
func (p *HTTPOrderProvider) ActiveOrder(ctx context.Context, agentID int64, role location.Role) (*Order, error) {
	endpoint := fmt.Sprintf("%s/orders/active-pickup/%d?user_type=%s",
		p.baseURL, agentID, url.QueryEscape(string(role)))

	body, err := p.client.Get(ctx, endpoint, httpclient.WithHeader("api-key", p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to query active order: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("active order response is not valid JSON")
	}

	result := gjson.ParseBytes(body)
	if result.Get("status").String() == "error" {
		return nil, fmt.Errorf("active order query failed: %s", result.Get("msg").String())
	}

	data := result.Get("data")
	if !data.Exists() || data.Type == gjson.Null || !data.IsObject() {
		return nil, nil
	}

	orderID, err := parseInt(data.Get("order_id"))
	if err != nil {
		return nil, fmt.Errorf("invalid order_id in active order: %w", err)
	}
	statusCode, err := parseInt(data.Get("status"))
	if err != nil {
		return nil, fmt.Errorf("invalid status in active order: %w", err)
	}

	return &Order{OrderID: orderID, StatusCode: int(statusCode)}, nil
}

func parseInt(r gjson.Result) (int64, error) {
	switch r.Type {
	case gjson.Number:
		return r.Int(), nil
	case gjson.String:
		return strconv.ParseInt(strings.TrimSpace(r.Str), 10, 64)
	default:
		return 0, fmt.Errorf("expected number, got %q", r.Raw)
	}
}
