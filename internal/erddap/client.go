package erddap

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emso-eric/geo2coverage/internal/models"
	"github.com/emso-eric/geo2coverage/internal/observability"
)

// Fetcher is the upstream table source consumed by the orchestrator.
type Fetcher interface {
	// FetchData retrieves row data for a dataset. rawQuery is the verbatim
	// tabledap query string and is passed through unmodified.
	FetchData(ctx context.Context, datasetID, rawQuery string) (models.Table, error)
	// FetchMetadata retrieves the dataset's full attribute table.
	FetchMetadata(ctx context.Context, datasetID string) (models.Table, error)
}

// UpstreamError is a non-2xx answer from ERDDAP. The status code and body
// propagate verbatim to the caller; upstream failures are never retried.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("erddap: upstream status %d: %s", e.StatusCode, e.Body)
}

// Client talks to one ERDDAP server over its tabledap, info and search
// endpoints.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a Client for the ERDDAP server at baseURL
// (e.g. "https://erddap.emso.eu/erddap"). timeout bounds each call.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("erddap: base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("erddap: invalid base URL: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// tableEnvelope is the wire shape shared by the tabledap and info
// endpoints: {"table": {"columnNames": [...], "rows": [[...], ...]}}.
type tableEnvelope struct {
	Table struct {
		ColumnNames []string `json:"columnNames"`
		Rows        [][]any  `json:"rows"`
	} `json:"table"`
}

// FetchData implements Fetcher. The raw query string is appended as-is;
// tabledap query syntax is the caller's business.
func (c *Client) FetchData(ctx context.Context, datasetID, rawQuery string) (models.Table, error) {
	u := c.baseURL + "/tabledap/" + url.PathEscape(datasetID) + ".json"
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return c.fetchTable(ctx, u, "tabledap")
}

// FetchMetadata implements Fetcher.
func (c *Client) FetchMetadata(ctx context.Context, datasetID string) (models.Table, error) {
	u := c.baseURL + "/info/" + url.PathEscape(datasetID) + "/index.json"
	return c.fetchTable(ctx, u, "info")
}

func (c *Client) fetchTable(ctx context.Context, u, endpoint string) (models.Table, error) {
	body, err := c.get(ctx, u, endpoint, "application/json")
	if err != nil {
		return models.Table{}, err
	}

	var env tableEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.Table{}, fmt.Errorf("erddap: parse %s response: %w", endpoint, err)
	}
	return models.Table{
		ColumnNames: env.Table.ColumnNames,
		Rows:        env.Table.Rows,
	}, nil
}

// SearchAllDatasets retrieves the "all datasets" CSV listing used to build
// the catalog. Records come back header row first, fields unvalidated.
func (c *Client) SearchAllDatasets(ctx context.Context) ([][]string, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("itemsPerPage", "100000")
	params.Set("searchFor", "all")
	u := c.baseURL + "/search/index.csv?" + params.Encode()

	body, err := c.get(ctx, u, "search", "text/csv")
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1 // listing columns vary between ERDDAP versions
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("erddap: parse search listing: %w", err)
	}
	return records, nil
}

// get performs one upstream call, recording metrics and mapping status
// codes >= 400 to UpstreamError with the verbatim body.
func (c *Client) get(ctx context.Context, u, endpoint, accept string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		observability.ErddapRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("erddap: build request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if corrID := correlationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.ErddapRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.ErddapRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("erddap: %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	observability.ErddapRequestsTotal.WithLabelValues(endpoint, observability.StatusLabel(resp.StatusCode)).Inc()
	observability.ErddapRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("erddap: read %s response: %w", endpoint, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func correlationIDFromContext(ctx context.Context) string {
	if v := ctx.Value("correlation_id"); v != nil {
		if corrID, ok := v.(string); ok {
			return corrID
		}
	}
	return ""
}
