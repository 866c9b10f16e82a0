// Package apsas is the REST client of the upstream APSAS API.
package apsas

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/bundle"
	"github.com/trezcool/apsas/core/dashboard"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 100
	// maxPages stops the paging of an endpoint that keeps answering full pages.
	maxPages = 1000
	// errBodyLimit is how much of an error response body ends up in the error.
	errBodyLimit = 512
)

type tokenKey struct{}

// WithToken returns a copy of ctx carrying the bearer token of the caller.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type Client struct {
	baseURL  string
	host     string // of baseURL: the only host that gets the caller's token
	http     *http.Client
	timeout  time.Duration
	pageSize int
	log      core.Logger
}

var (
	_ dashboard.Source = (*Client)(nil)
	_ bundle.Source    = (*Client)(nil)
)

// NewClient returns a client of the API at conf.BaseURL. A nil httpClient means http.DefaultClient.
func NewClient(conf core.APSASConfig, httpClient *http.Client, logger core.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:  strings.TrimRight(conf.BaseURL, "/"),
		http:     httpClient,
		timeout:  conf.Timeout,
		pageSize: conf.PageSize,
		log:      logger,
	}
	if u, err := url.Parse(c.baseURL); err == nil {
		c.host = u.Host
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// page is one decoded list response.
type page struct {
	items json.RawMessage
	total int
	paged bool // false for bare arrays: the whole collection in one response
}

type envelope struct {
	Items json.RawMessage `json:"items"`
	Total int             `json:"total"`
	Result *struct {
		Items json.RawMessage `json:"items"`
		Total int             `json:"total"`
	} `json:"result"`
}

func decodePage(body []byte) (page, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return page{}, nil
	}
	if body[0] == '[' {
		return page{items: body}, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return page{}, errors.Wrap(err, "decoding response")
	}
	if env.Result != nil {
		return page{items: env.Result.Items, total: env.Result.Total, paged: true}, nil
	}
	return page{items: env.Items, total: env.Total, paged: true}, nil
}

func (c *Client) url(path string, params url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// get sends a GET and returns the body of a 2xx response.
// The caller's token is only sent to the API host.
func (c *Client) get(ctx context.Context, resource, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &core.UpstreamError{Resource: resource, Err: err}
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if token := TokenFrom(ctx); token != "" && strings.EqualFold(req.URL.Host, c.host) {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug("apsas: GET "+rawURL, map[string]interface{}{"resource": resource})
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &core.UpstreamError{Resource: resource, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		uerr := &core.UpstreamError{Resource: resource, StatusCode: resp.StatusCode}
		if msg = bytes.TrimSpace(msg); len(msg) > 0 {
			uerr.Err = errors.Errorf("status %d: %s", resp.StatusCode, msg)
		}
		return nil, uerr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.UpstreamError{Resource: resource, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

// list pages through a list endpoint until every item is fetched.
// Bare array responses are taken as the whole collection.
func list[T any](ctx context.Context, c *Client, resource string, params url.Values) ([]T, error) {
	q := make(url.Values, len(params)+2)
	for k, v := range params {
		q[k] = v
	}
	q.Set("pageSize", strconv.Itoa(c.pageSize))

	all := make([]T, 0)
	for pageNumber := 1; pageNumber <= maxPages; pageNumber++ {
		q.Set("pageNumber", strconv.Itoa(pageNumber))

		items, p, err := fetchPage[T](ctx, c, resource, c.url(resource, q))
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if !p.paged || len(items) == 0 || len(items) < c.pageSize || (p.total > 0 && len(all) >= p.total) {
			return all, nil
		}
	}
	c.log.Warn("apsas: paging stopped", map[string]interface{}{"resource": resource, "pages": maxPages})
	return all, nil
}

func fetchPage[T any](ctx context.Context, c *Client, resource, rawURL string) ([]T, page, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.get(ctx, resource, rawURL, "application/json")
	if err != nil {
		return nil, page{}, err
	}
	p, err := decodePage(body)
	if err != nil {
		return nil, page{}, &core.UpstreamError{Resource: resource, Err: err}
	}

	var items []T
	if len(p.items) > 0 && !bytes.Equal(p.items, []byte("null")) {
		if err := json.Unmarshal(p.items, &items); err != nil {
			return nil, page{}, &core.UpstreamError{Resource: resource, Err: errors.Wrap(err, "decoding items")}
		}
	}
	return items, p, nil
}

// Download fetches a file. Relative URLs are resolved against the API base URL.
// Files hosted elsewhere, such as presigned storage URLs, are fetched without the caller's token.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return nil, &core.UpstreamError{Resource: "file", Err: err}
	}
	if !u.IsAbs() {
		fileURL = c.url(fileURL, nil)
	}
	return c.get(ctx, "file", fileURL, "")
}
