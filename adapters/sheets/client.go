package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gopivot/domain/core"
	"gopivot/domain/pivot"
)

// Config holds the remote endpoint configuration
type Config struct {
	BaseURL       string
	SpreadsheetID string
	APIKey        string
	Timeout       time.Duration
}

// Client implements the pivot.Collaborator interface over HTTP. It
// carries no retry policy; transient failures are surfaced as such
// and retrying is the caller's decision.
type Client struct {
	baseURL       string
	spreadsheetID string
	apiKey        string
	httpClient    *http.Client
}

// NewClient creates a new sheets collaborator client
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, fmt.Errorf("missing sheets base URL")
	}
	if strings.TrimSpace(config.SpreadsheetID) == "" {
		return nil, fmt.Errorf("missing spreadsheet ID")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(config.BaseURL, "/"),
		spreadsheetID: config.SpreadsheetID,
		apiKey:        config.APIKey,
		httpClient:    &http.Client{Timeout: timeout},
	}, nil
}

// Create registers a new pivot table and returns the server-confirmed
// representation with its assigned identifier.
func (c *Client) Create(ctx context.Context, table json.RawMessage) (pivot.CreateResult, error) {
	url := fmt.Sprintf("%s/v1/spreadsheets/%s/pivotTables", c.baseURL, c.spreadsheetID)
	body, err := c.do(ctx, http.MethodPost, url, table)
	if err != nil {
		return pivot.CreateResult{}, err
	}

	var decoded struct {
		PivotTableID string          `json:"pivotTableId"`
		PivotTable   json.RawMessage `json:"pivotTable"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return pivot.CreateResult{}, core.NewPermanentError(fmt.Errorf("unmarshal create response: %w", err))
	}
	id, err := core.ParseTableID(decoded.PivotTableID)
	if err != nil {
		return pivot.CreateResult{}, core.NewPermanentError(fmt.Errorf("create response missing pivotTableId"))
	}
	return pivot.CreateResult{TableID: id, Table: decoded.PivotTable}, nil
}

// Update replaces the remote definition of an existing pivot table.
func (c *Client) Update(ctx context.Context, id core.TableID, table json.RawMessage) error {
	url := fmt.Sprintf("%s/v1/spreadsheets/%s/pivotTables/%s", c.baseURL, c.spreadsheetID, id)
	_, err := c.do(ctx, http.MethodPut, url, table)
	return err
}

// Fetch returns the current remote definition of a pivot table.
func (c *Client) Fetch(ctx context.Context, id core.TableID) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/v1/spreadsheets/%s/pivotTables/%s", c.baseURL, c.spreadsheetID, id)
	return c.do(ctx, http.MethodGet, url, nil)
}

// Delete removes the remote pivot table. Not idempotent: a second
// delete reports NotFound.
func (c *Client) Delete(ctx context.Context, id core.TableID) error {
	url := fmt.Sprintf("%s/v1/spreadsheets/%s/pivotTables/%s", c.baseURL, c.spreadsheetID, id)
	_, err := c.do(ctx, http.MethodDelete, url, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, body json.RawMessage) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, core.NewPermanentError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network-level failures are retryable by definition
		return nil, core.NewTransientError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewTransientError(fmt.Errorf("read response: %w", err))
	}
	if err := statusError(resp.StatusCode, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// statusError maps HTTP status codes onto the error taxonomy:
// 404 is a lifecycle miss, timeouts/throttling/server faults are
// transient, every other client fault is permanent.
func statusError(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", core.ErrNotFound, strings.TrimSpace(string(body)))
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return core.NewTransientError(fmt.Errorf("sheets http %d: %s", status, strings.TrimSpace(string(body))))
	default:
		return core.NewPermanentError(fmt.Errorf("sheets http %d: %s", status, strings.TrimSpace(string(body))))
	}
}
