// Package infoclimat downloads station observations from the Infoclimat
// open-data export API.
package infoclimat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gostatlab/domain/core"
	"gostatlab/domain/dataset"
	"gostatlab/internal"
	"gostatlab/internal/errors"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

const serviceName = "infoclimat"

// DefaultTimeout bounds a download when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Config holds the client settings
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Query selects the station and date range to export. Dates use the
// YYYY-MM-DD layout.
type Query struct {
	Station string
	Start   string
	End     string
}

// Validate checks the station and date range.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Station) == "" {
		return errors.InvalidInput("station is required")
	}
	start, err := time.Parse("2006-01-02", q.Start)
	if err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid start date %q", q.Start))
	}
	end, err := time.Parse("2006-01-02", q.End)
	if err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid end date %q", q.End))
	}
	if end.Before(start) {
		return errors.InvalidInput(fmt.Sprintf("end date %s is before start date %s", q.End, q.Start))
	}
	return nil
}

// Client fetches exports over HTTP. Concurrent requests for the same URL
// share one round trip.
type Client struct {
	config     Config
	httpClient *http.Client
	flight     singleflight.Group
	logger     *internal.Logger
}

// NewClient creates a new Infoclimat client
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: internal.DefaultLogger.WithComponent("Infoclimat"),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BuildURL returns the export URL for a station and date range.
func BuildURL(baseURL, token string, q Query, format string) string {
	base := baseURL
	if !strings.Contains(base, "?") {
		base += "?"
	} else if !strings.HasSuffix(base, "?") && !strings.HasSuffix(base, "&") {
		base += "&"
	}
	params := []string{
		"start=" + url.QueryEscape(q.Start),
		"end=" + url.QueryEscape(q.End),
		"format=" + url.QueryEscape(format),
		"stations[]=" + url.QueryEscape(q.Station),
		"method=export",
		"token=" + url.QueryEscape(token),
	}
	return base + strings.Join(params, "&")
}

// FetchCSV downloads the CSV export and splits it into sections.
func (c *Client) FetchCSV(ctx context.Context, q Query) (*Sections, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, BuildURL(c.config.BaseURL, c.config.Token, q, FormatCSV))
	if err != nil {
		return nil, err
	}
	sections := ExtractSections(string(body))
	c.logger.Info("Station %s: %d metadata lines, %d data rows", q.Station, len(sections.Metadata), len(sections.Rows))
	return sections, nil
}

// FetchJSON downloads the JSON export and converts its "data" array into
// a table whose columns are the object keys in first-seen order.
func (c *Client) FetchJSON(ctx context.Context, q Query) (*dataset.Table, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, BuildURL(c.config.BaseURL, c.config.Token, q, FormatJSON))
	if err != nil {
		return nil, err
	}
	table, err := ParseJSON(body)
	if err != nil {
		return nil, errors.Wrapf(err, "station %s", q.Station)
	}
	return table, nil
}

// ParseJSON converts the "data" array of an export into a table.
func ParseJSON(body []byte) (*dataset.Table, error) {
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || !data.IsArray() {
		return nil, fmt.Errorf("%w: response has no data array", core.ErrInsufficientData)
	}

	var headers []string
	index := map[string]int{}
	var records []map[string]string
	data.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		record := map[string]string{}
		item.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if _, ok := index[k]; !ok {
				index[k] = len(headers)
				headers = append(headers, k)
			}
			record[k] = value.String()
			return true
		})
		records = append(records, record)
		return true
	})
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: data array holds no records", core.ErrInsufficientData)
	}

	rows := make([][]string, len(records))
	for i, record := range records {
		row := make([]string, len(headers))
		for k, v := range record {
			row[index[k]] = v
		}
		rows[i] = row
	}
	return dataset.NewTable(headers, rows)
}

// get downloads rawURL. Callers asking for the same URL concurrently share
// one round trip, detached from any single caller's cancellation and bounded
// by the client timeout; each caller stops waiting when its own ctx is done.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	ch := c.flight.DoChan(rawURL, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout())
		defer cancel()

		req, err := http.NewRequestWithContext(flightCtx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build request")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.ExternalServiceError(serviceName, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("failed to read response: %w", err))
		}
		if resp.StatusCode != http.StatusOK {
			return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("API returned status %d", resp.StatusCode))
		}
		c.logger.Debug("GET %s -> %d bytes in %s", redact(rawURL), len(body), time.Since(start))
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, errors.ExternalServiceError(serviceName, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			c.logger.Error("Request failed: %v", res.Err)
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Trace("Shared in-flight response for %s", redact(rawURL))
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) timeout() time.Duration {
	if c.config.Timeout > 0 {
		return c.config.Timeout
	}
	return DefaultTimeout
}

// redact hides the token in logged URLs.
func redact(rawURL string) string {
	i := strings.Index(rawURL, "token=")
	if i < 0 {
		return rawURL
	}
	return rawURL[:i] + "token=***"
}
