package feed

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
)

const userAgent = "covid-data-etl/1.0"

// Source names used in errors, logs and metric labels.
const (
	SourceCases        = "cases"
	SourceVaccinations = "vaccinations"
)

// Client downloads the case and vaccination feeds. It implements
// pipeline.CaseSource and pipeline.VaccinationSource.
type Client struct {
	http            *resty.Client
	casesURL        string
	vaccinationsURL string
	metrics         *observability.Metrics
	logger          *slog.Logger
}

// NewClient creates a feed client. Requests are never retried.
func NewClient(casesURL, vaccinationsURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent).
			SetRetryCount(0),
		casesURL:        casesURL,
		vaccinationsURL: vaccinationsURL,
		metrics:         metrics,
		logger:          logger,
	}
}

// FetchCases downloads the case feed, a JSON array of per-state daily objects.
func (c *Client) FetchCases(ctx context.Context) (domain.Table, error) {
	body, err := c.get(ctx, SourceCases, c.casesURL)
	if err != nil {
		return domain.Table{}, err
	}

	table, err := decodeJSONTable(domain.SnapshotRawCases, body)
	if err != nil {
		return domain.Table{}, &domain.DecodeError{Source: SourceCases, Err: err}
	}
	c.logger.Info("fetched case feed", "rows", table.Len(), "columns", len(table.Columns))
	return table, nil
}

// FetchVaccinations downloads the vaccination feed, a CSV file with a header row.
func (c *Client) FetchVaccinations(ctx context.Context) (domain.Table, error) {
	body, err := c.get(ctx, SourceVaccinations, c.vaccinationsURL)
	if err != nil {
		return domain.Table{}, err
	}

	table, err := decodeCSVTable(domain.SnapshotRawVaccinations, body)
	if err != nil {
		return domain.Table{}, &domain.DecodeError{Source: SourceVaccinations, Err: err}
	}
	c.logger.Info("fetched vaccination feed", "rows", table.Len(), "columns", len(table.Columns))
	return table, nil
}

func (c *Client) get(ctx context.Context, source, url string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(url)
	c.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchErrors.WithLabelValues(source).Inc()
		return nil, &domain.FetchError{Source: source, URL: url, Err: err}
	}

	if !resp.IsSuccess() {
		c.metrics.FetchErrors.WithLabelValues(source).Inc()
		return nil, &domain.FetchError{
			Source:     source,
			URL:        url,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected status %s", resp.Status()),
		}
	}
	return resp.Body(), nil
}

// decodeJSONTable turns an array of flat objects into a table. Columns are the
// sorted union of keys; null and missing values become empty cells.
func decodeJSONTable(name string, body []byte) (domain.Table, error) {
	var objects []map[string]any
	if err := json.Unmarshal(body, &objects); err != nil {
		return domain.Table{}, fmt.Errorf("parse JSON array: %w", err)
	}
	if objects == nil {
		return domain.Table{}, errors.New("parse JSON array: body is null")
	}

	seen := make(map[string]struct{})
	for i, obj := range objects {
		if obj == nil {
			return domain.Table{}, fmt.Errorf("row %d: null object", i+1)
		}
		for k := range obj {
			seen[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(columns))
		for j, col := range columns {
			cell, err := formatJSONValue(obj[col])
			if err != nil {
				return domain.Table{}, fmt.Errorf("row %d column %q: %w", i+1, col, err)
			}
			row[j] = cell
		}
		rows[i] = row
	}

	return domain.Table{Name: name, Columns: columns, Rows: rows, GeneratedAt: domain.Now()}, nil
}

func formatJSONValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case float64:
		return domain.FormatNumber(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", fmt.Errorf("unsupported nested value %T", v)
	}
}

// decodeCSVTable reads a CSV body whose first record is the header.
func decodeCSVTable(name string, body []byte) (domain.Table, error) {
	r := csv.NewReader(bytes.NewReader(body))
	records, err := r.ReadAll()
	if err != nil {
		return domain.Table{}, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return domain.Table{}, errors.New("empty CSV body")
	}

	return domain.Table{
		Name:        name,
		Columns:     records[0],
		Rows:        records[1:],
		GeneratedAt: domain.Now(),
	}, nil
}
