package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"bookline/models"
	"bookline/utils"

	"go.uber.org/zap"
)

// HTTPClient talks JSON to the scheduling backend's REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient builds a backend client. The timeout applies to every call;
// a timed-out call surfaces as a transport error, never as ErrSlotUnavailable.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) ListServices(ctx context.Context) ([]models.Service, error) {
	var out struct {
		Services []models.Service `json:"services"`
	}
	if err := c.get(ctx, "/api/v1/services", nil, &out); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out.Services, nil
}

func (c *HTTPClient) ListLocations(ctx context.Context) ([]models.Location, error) {
	var out struct {
		Locations []models.Location `json:"locations"`
	}
	if err := c.get(ctx, "/api/v1/locations", nil, &out); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return out.Locations, nil
}

// QueryAvailability returns the free time units for a service at a location
// on the given date, in ascending start order.
func (c *HTTPClient) QueryAvailability(ctx context.Context, serviceID, locationID, date string) ([]models.TimeUnit, error) {
	q := url.Values{}
	q.Set("service_id", serviceID)
	q.Set("location_id", locationID)
	q.Set("date", date)

	var out struct {
		TimeUnits []models.TimeUnit `json:"time_units"`
	}
	if err := c.get(ctx, "/api/v1/availability", q, &out); err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	return out.TimeUnits, nil
}

// SubmitOrder creates the appointment. A 409 from the backend means the
// requested units were taken in the meantime and maps to ErrSlotUnavailable.
func (c *HTTPClient) SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.OrderReceipt, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var receipt models.OrderReceipt
		if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
			return nil, fmt.Errorf("decode order receipt: %w", err)
		}
		if receipt.BookingID == "" {
			return nil, fmt.Errorf("order receipt missing booking id")
		}
		return &receipt, nil
	case http.StatusConflict:
		return nil, ErrSlotUnavailable
	default:
		var errBody struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
			utils.GetLogger().Warn("scheduling backend returned undecodable error body",
				zap.Int("status", resp.StatusCode), zap.Error(err))
		}
		return nil, fmt.Errorf("scheduling backend returned status %d: %s", resp.StatusCode, errBody.Message)
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
