package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
)

const (
	casesPath         = "/v1/states/daily.json"
	vaccinationsPath  = "/us_state_vaccinations.csv"
	headerContentType = "Content-Type"
)

const casesBody = `[
  {"date":20210112,"state":"CA","positive":100,"negative":50,"pending":null,"hospitalizedCumulative":12,"death":3},
  {"date":20210112,"state":"PR","positive":7,"negative":1,"recovered":2}
]`

const vaccinationsBody = `date,location,total_vaccinations,people_vaccinated
2021-01-12,California,20,10
2021-01-12,United States,600,300.0
2021-01-13,Texas,,
`

func testClient(baseURL string) *Client {
	return NewClient(
		baseURL+casesPath,
		baseURL+vaccinationsPath,
		5*time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func newFeedServer(t *testing.T, casesStatus int, cases, vaccinations string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case casesPath:
			w.Header().Set(headerContentType, "application/json")
			w.WriteHeader(casesStatus)
			_, _ = w.Write([]byte(cases))
		case vaccinationsPath:
			w.Header().Set(headerContentType, "text/csv")
			_, _ = w.Write([]byte(vaccinations))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchCases(t *testing.T) {
	srv := newFeedServer(t, http.StatusOK, casesBody, vaccinationsBody)

	table, err := testClient(srv.URL).FetchCases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.SnapshotRawCases, table.Name)
	assert.Equal(t, []string{
		"date", "death", "hospitalizedCumulative", "negative", "pending",
		"positive", "recovered", "state",
	}, table.Columns)
	require.Equal(t, 2, table.Len())

	ca := table.RowMap(0)
	assert.Equal(t, "20210112", ca["date"], "dates keep their 8-digit form")
	assert.Equal(t, "CA", ca["state"])
	assert.Equal(t, "100", ca["positive"])
	assert.Equal(t, "", ca["pending"], "null becomes an empty cell")
	assert.Equal(t, "", ca["recovered"], "missing key becomes an empty cell")

	pr := table.RowMap(1)
	assert.Equal(t, "2", pr["recovered"])
}

func TestClient_FetchVaccinations(t *testing.T) {
	srv := newFeedServer(t, http.StatusOK, casesBody, vaccinationsBody)

	table, err := testClient(srv.URL).FetchVaccinations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.SnapshotRawVaccinations, table.Name)
	assert.Equal(t, []string{"date", "location", "total_vaccinations", "people_vaccinated"}, table.Columns)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"2021-01-12", "California", "20", "10"}, table.Rows[0])
	assert.Equal(t, []string{"2021-01-13", "Texas", "", ""}, table.Rows[2])
}

func TestClient_FetchCases_NonSuccessStatus(t *testing.T) {
	srv := newFeedServer(t, http.StatusServiceUnavailable, `{"error":"down"}`, vaccinationsBody)

	_, err := testClient(srv.URL).FetchCases(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, SourceCases, fetchErr.Source)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "503")
}

func TestClient_FetchVaccinations_NotFound(t *testing.T) {
	srv := newFeedServer(t, http.StatusOK, casesBody, vaccinationsBody)
	c := testClient(srv.URL)
	c.vaccinationsURL = srv.URL + "/missing.csv"

	_, err := c.FetchVaccinations(context.Background())
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testClient(url).FetchCases(context.Background())
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.StatusCode)
	assert.Error(t, fetchErr.Err)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, 50*time.Millisecond, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.FetchCases(context.Background())
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestClient_DecodeErrors(t *testing.T) {
	tests := []struct {
		name         string
		cases        string
		vaccinations string
		fetch        func(*Client) error
	}{
		{
			name:  "cases not JSON",
			cases: "<html>maintenance</html>",
			fetch: func(c *Client) error { _, err := c.FetchCases(context.Background()); return err },
		},
		{
			name:  "cases not an array",
			cases: `{"date":20210112}`,
			fetch: func(c *Client) error { _, err := c.FetchCases(context.Background()); return err },
		},
		{
			name:  "cases null body",
			cases: `null`,
			fetch: func(c *Client) error { _, err := c.FetchCases(context.Background()); return err },
		},
		{
			name:  "cases null element",
			cases: `[{"state":"CA","date":20210112},null]`,
			fetch: func(c *Client) error { _, err := c.FetchCases(context.Background()); return err },
		},
		{
			name:  "cases nested value",
			cases: `[{"state":"CA","meta":{"a":1}}]`,
			fetch: func(c *Client) error { _, err := c.FetchCases(context.Background()); return err },
		},
		{
			name:         "vaccinations empty",
			cases:        casesBody,
			vaccinations: "",
			fetch:        func(c *Client) error { _, err := c.FetchVaccinations(context.Background()); return err },
		},
		{
			name:         "vaccinations ragged",
			cases:        casesBody,
			vaccinations: "date,location\n2021-01-12,Ohio,extra\n",
			fetch:        func(c *Client) error { _, err := c.FetchVaccinations(context.Background()); return err },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newFeedServer(t, http.StatusOK, tc.cases, tc.vaccinations)
			err := tc.fetch(testClient(srv.URL))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrDecode)

			var decodeErr *domain.DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}
