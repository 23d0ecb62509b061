package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-team-directory/member"
)

const (
	// DefaultTimeout bounds one request when no *http.Client is supplied.
	DefaultTimeout = 10 * time.Second
	// DefaultPath is the collection resource path.
	DefaultPath = "/members"
	// DefaultTotalHeader carries the filtered total count on list responses.
	DefaultTotalHeader = "X-Total-Count"
)

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 512

// QueryParams names the list query string parameters.
type QueryParams struct {
	Page   string
	Limit  string
	Search string
}

// DefaultQueryParams returns page, limit and q.
func DefaultQueryParams() QueryParams {
	return QueryParams{Page: "page", Limit: "limit", Search: "q"}
}

// JSONServerParams returns the parameter names json-server understands.
func JSONServerParams() QueryParams {
	return QueryParams{Page: "_page", Limit: "_limit", Search: "q"}
}

// Client talks to the remote member collection. Each call is attempted
// exactly once; failures come back as *member.NetworkError,
// *member.ServerError, *member.NotFoundError or *member.ValidationError.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	path        string
	params      QueryParams
	totalHeader string
	envelope    Envelope
	userAgent   string
	timeout     time.Duration
	logger      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default *http.Client. It has no
// effect when WithHTTPClient supplies a client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPath sets the collection path, "/members" by default.
func WithPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.path = "/" + strings.Trim(path, "/")
		}
	}
}

// WithQueryParams sets the list query parameter names.
func WithQueryParams(p QueryParams) Option {
	return func(c *Client) {
		c.params = p
	}
}

// WithTotalHeader sets the response header holding the total count.
func WithTotalHeader(name string) Option {
	return func(c *Client) {
		c.totalHeader = name
	}
}

// WithEnvelope sets the field names of an enveloped list body.
func WithEnvelope(e Envelope) Option {
	return func(c *Client) {
		c.envelope = e
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the collection under baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		path:        DefaultPath,
		params:      DefaultQueryParams(),
		totalHeader: DefaultTotalHeader,
		envelope:    DefaultEnvelope(),
		userAgent:   "team-directory",
		timeout:     DefaultTimeout,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// List fetches one page of members matching q.Search. The total comes from
// the total header or, failing that, from an enveloped body; the page's own
// length is never used as the total.
func (c *Client) List(ctx context.Context, q member.PageQuery) (member.PageResult, error) {
	q = q.Normalize()

	values := url.Values{}
	values.Set(c.params.Page, strconv.Itoa(q.Page))
	values.Set(c.params.Limit, strconv.Itoa(q.PageSize))
	if q.Search != "" {
		values.Set(c.params.Search, q.Search)
	}
	endpoint := c.collectionURL() + "?" + values.Encode()

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return member.PageResult{}, err
	}
	if !resp.IsSuccess() {
		return member.PageResult{}, resp.serverError(http.MethodGet, endpoint)
	}

	result, err := decodeList(resp, c.totalHeader, c.envelope)
	if err != nil {
		return member.PageResult{}, &member.ServerError{
			Op:         "GET " + endpoint,
			StatusCode: resp.StatusCode,
			Body:       err.Error(),
		}
	}
	if q.PageSize > 0 && len(result.Members) > q.PageSize {
		c.logger.Warn().
			Str("url", endpoint).
			Int("members", len(result.Members)).
			Int("limit", q.PageSize).
			Msg("list response ignores the page limit")
		return member.PageResult{}, &member.ServerError{
			Op:         "GET " + endpoint,
			StatusCode: resp.StatusCode,
			Body:       fmt.Sprintf("page holds %d members, limit is %d", len(result.Members), q.PageSize),
		}
	}
	return result, nil
}

// GetByID fetches one member.
func (c *Client) GetByID(ctx context.Context, id member.ID) (member.Member, error) {
	endpoint := c.itemURL(id)

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return member.Member{}, err
	}
	return c.decodeMember(resp, http.MethodGet, endpoint, id)
}

// Create posts fields and returns the member with its server-assigned id.
func (c *Client) Create(ctx context.Context, fields member.Fields) (member.Member, error) {
	endpoint := c.collectionURL()

	resp, err := c.do(ctx, http.MethodPost, endpoint, fields)
	if err != nil {
		return member.Member{}, err
	}
	return c.decodeMember(resp, http.MethodPost, endpoint, "")
}

// Update sends a partial update and returns the updated member.
func (c *Client) Update(ctx context.Context, id member.ID, patch member.Patch) (member.Member, error) {
	endpoint := c.itemURL(id)

	resp, err := c.do(ctx, http.MethodPatch, endpoint, patch)
	if err != nil {
		return member.Member{}, err
	}
	return c.decodeMember(resp, http.MethodPatch, endpoint, id)
}

// Delete removes a member. Deleting an id twice yields a NotFoundError the
// second time.
func (c *Client) Delete(ctx context.Context, id member.ID) error {
	endpoint := c.itemURL(id)

	resp, err := c.do(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return &member.NotFoundError{ID: id}
	}
	if !resp.IsSuccess() {
		return resp.serverError(http.MethodDelete, endpoint)
	}
	return nil
}

func (c *Client) collectionURL() string {
	return c.baseURL + c.path
}

func (c *Client) itemURL(id member.ID) string {
	return c.collectionURL() + "/" + url.PathEscape(string(id))
}

func (c *Client) decodeMember(resp *httpResponse, method, endpoint string, id member.ID) (member.Member, error) {
	switch {
	case resp.StatusCode == http.StatusNotFound && id != "":
		return member.Member{}, &member.NotFoundError{ID: id}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		if method == http.MethodPost || method == http.MethodPatch {
			return member.Member{}, resp.validationError()
		}
	}
	if !resp.IsSuccess() {
		return member.Member{}, resp.serverError(method, endpoint)
	}

	var m member.Member
	if err := json.Unmarshal(resp.Body, &m); err != nil {
		return member.Member{}, &member.ServerError{
			Op:         method + " " + endpoint,
			StatusCode: resp.StatusCode,
			Body:       fmt.Sprintf("invalid member body: %v", err),
		}
	}
	return m, nil
}

// do issues one request. Transport and body read failures become
// *member.NetworkError; any status is returned to the caller as is.
func (c *Client) do(ctx context.Context, method, endpoint string, payload any) (*httpResponse, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", endpoint).
		Msg("making HTTP request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().
			Str("method", method).
			Str("url", endpoint).
			Err(err).
			Msg("HTTP request failed")
		return nil, &member.NetworkError{Op: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &member.NetworkError{Op: method, URL: endpoint, Err: err}
	}

	out := &httpResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}

	event := c.logger.Debug()
	if !out.IsSuccess() {
		event = c.logger.Warn()
	}
	event.
		Str("method", method).
		Str("url", endpoint).
		Int("status_code", resp.StatusCode).
		Int("body_length", len(data)).
		Msg("received HTTP response")

	return out, nil
}

// httpResponse is a fully read response.
type httpResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// IsSuccess checks if the response indicates success (2xx status code)
func (r *httpResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *httpResponse) serverError(method, endpoint string) error {
	body := strings.TrimSpace(string(r.Body))
	if len(body) > maxErrorBody {
		n := maxErrorBody
		for n > 0 && !utf8.RuneStart(body[n]) {
			n--
		}
		body = body[:n]
	}
	return &member.ServerError{Op: method + " " + endpoint, StatusCode: r.StatusCode, Body: body}
}

// validationError reads {"errors": {"field": "message"}, "message": "..."}
// when present; any other body becomes the message.
func (r *httpResponse) validationError() error {
	var payload struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	out := &member.ValidationError{FromServer: true}
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		out.Message = strings.TrimSpace(string(r.Body))
		return out
	}
	out.Message = payload.Message
	out.Fields = payload.Errors
	return out
}
