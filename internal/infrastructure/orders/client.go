// Package orders provides the client for the upstream order service that
// owns designs and order lines.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	gangsheetapp "github.com/unaytac-cmd/printnest-sub005/internal/application/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/config"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// Ensure Client implements DesignProvider
var _ gangsheetapp.DesignProvider = (*Client)(nil)

// Client fetches order designs from the order service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing)
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger for Client
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an order service client from configuration.
func NewClient(cfg *config.OrdersConfig, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("orders configuration is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("orders base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// designPayload is one design line as returned by the order service.
type designPayload struct {
	SourceURL      string          `json:"source_url"`
	OriginalWidth  int             `json:"original_width"`
	OriginalHeight int             `json:"original_height"`
	TargetWidth    decimal.Decimal `json:"target_width"`
	AltWidth       decimal.Decimal `json:"alt_width"`
	UseAltWidth    bool            `json:"use_alt_width"`
	TargetHeight   decimal.Decimal `json:"target_height"`
	Quantity       int             `json:"quantity"`
	Modifier       string          `json:"modifier"`
	OrderProductID uuid.UUID       `json:"order_product_id"`
}

type designsResponse struct {
	Designs []designPayload `json:"designs"`
}

// FetchOrderDesigns returns every printable design of the order in the
// order the customer placed them.
func (c *Client) FetchOrderDesigns(ctx context.Context, tenantID, orderID uuid.UUID) ([]gangsheet.DesignInput, error) {
	if orderID == uuid.Nil {
		return nil, errors.New("order ID is required")
	}

	url := fmt.Sprintf("%s/api/v1/orders/%s/designs", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build order service request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order service request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read order service response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, fmt.Errorf("order %s not found", orderID)
	default:
		c.logger.Warn("Order service returned unexpected status",
			zap.String("order_id", orderID.String()),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("order service returned status %d", resp.StatusCode)
	}

	var payload designsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode order service response: %w", err)
	}

	designs := make([]gangsheet.DesignInput, 0, len(payload.Designs))
	for _, d := range payload.Designs {
		designs = append(designs, gangsheet.DesignInput{
			SourceURL:      d.SourceURL,
			OriginalWidth:  d.OriginalWidth,
			OriginalHeight: d.OriginalHeight,
			TargetWidth:    d.TargetWidth,
			AltWidth:       d.AltWidth,
			UseAltWidth:    d.UseAltWidth,
			TargetHeight:   d.TargetHeight,
			Quantity:       d.Quantity,
			Modifier:       d.Modifier,
			OrderID:        orderID,
			OrderProductID: d.OrderProductID,
		})
	}

	return designs, nil
}
