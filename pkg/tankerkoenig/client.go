// Package tankerkoenig provides a client for the Tankerkönig fuel price API
// (creativecommons.tankerkoenig.de), covering the station search and the
// price lookup endpoints.
package tankerkoenig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const DefaultBaseURL = "https://creativecommons.tankerkoenig.de/json"

// ErrNoStationIDs is returned by Prices when called without ids.
var ErrNoStationIDs = errors.New("no station ids")

// APIError is returned for transport failures, non-2xx responses and
// responses whose envelope reports ok=false.
type APIError struct {
	Method     string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("tankerkoenig %s: %v", e.Method, e.Err)
	case e.StatusCode != 0 && e.StatusCode != http.StatusOK:
		return fmt.Sprintf("tankerkoenig %s: unexpected status code %d: %s", e.Method, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("tankerkoenig %s: %s", e.Method, e.Message)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Query holds the parameters of a station search. Lat and Lng are kept as the
// exact decimal text sent to the API.
type Query struct {
	Lat      string
	Lng      string
	Radius   float64
	Sort     string
	FuelType string
}

// NewQuery builds a Query using the shortest decimal form of each coordinate.
func NewQuery(lat, lng, radius float64, sort, fuelType string) Query {
	return Query{
		Lat:      strconv.FormatFloat(lat, 'f', -1, 64),
		Lng:      strconv.FormatFloat(lng, 'f', -1, 64),
		Radius:   radius,
		Sort:     sort,
		FuelType: fuelType,
	}
}

// Encode returns the query string form lat=..&lng=..&rad=..&sort=..&type=..,
// always in this field order and without normalizing values.
func (q Query) Encode() string {
	pairs := [][2]string{
		{"lat", q.Lat},
		{"lng", q.Lng},
		{"rad", strconv.FormatFloat(q.Radius, 'f', -1, 64)},
		{"sort", q.Sort},
		{"type", q.FuelType},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p[0]+"="+url.QueryEscape(p[1]))
	}
	return strings.Join(parts, "&")
}

// Client talks to the Tankerkönig API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL points the client to a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client authenticated with apiKey. No request timeout is
// set; callers bound requests through the context.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the stations around the query location, without price quotes.
func (c *Client) List(ctx context.Context, q Query) (*ListResponse, error) {
	var resp ListResponse
	if err := c.get(ctx, "list", q.Encode(), &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &APIError{Method: "list", StatusCode: http.StatusOK, Message: resp.Message}
	}
	return &resp, nil
}

// Prices returns the price quotes for the given station ids, keyed by id.
// Callers are expected to pass de-duplicated ids.
func (c *Client) Prices(ctx context.Context, ids []string) (*PricesResponse, error) {
	if len(ids) == 0 {
		return nil, ErrNoStationIDs
	}

	var resp PricesResponse
	if err := c.get(ctx, "prices", "ids="+url.QueryEscape(strings.Join(ids, ",")), &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &APIError{Method: "prices", StatusCode: http.StatusOK, Message: resp.Message}
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, method, rawQuery string, v any) error {
	endpoint := fmt.Sprintf("%s/%s.php?%s&apikey=%s", c.baseURL, method, rawQuery, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return &APIError{Method: method, Err: fmt.Errorf("error creating request: %w", redact(err))}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Method: method, Err: fmt.Errorf("error fetching data: %w", redact(err))}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("error reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("error unmarshaling JSON: %w", err)}
	}

	return nil
}

// redact drops the request URL from url.Error values, which would otherwise
// carry the API key into error messages.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
