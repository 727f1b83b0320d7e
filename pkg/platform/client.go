// Package platform is a client for the Moxi Works Platform partner REST API.
//
// Each resource validates its named parameters locally, then goes through the
// shared request pipeline in this file: credential headers, session cookie,
// parameter encoding, error detection and JSON decoding.
package platform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.moxiworks.com"
	AcceptHeader   = "application/vnd.moxi-platform+json;version=1"

	defaultTimeout = 15 * time.Second
	maxBodyLen     = 512
)

// Credentials identify the partner to the Platform.
type Credentials struct {
	Identifier string
	Secret     string
}

func (c Credentials) valid() bool {
	return strings.TrimSpace(c.Identifier) != "" && strings.TrimSpace(c.Secret) != ""
}

func (c Credentials) authorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Identifier+":"+c.Secret))
}

// Client talks to one Platform deployment. It is safe for concurrent use.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	log        *zap.Logger
	debug      bool

	mu     sync.RWMutex
	cookie string
}

// Option configures Client behavior.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimSpace(u); u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithDebug logs every raw response body at info level, so it shows up with a
// production logger.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the absolute endpoint for an API resource path such as
// "action_logs".
func (c *Client) URL(resource string) string {
	return c.baseURL + "/api/" + strings.TrimLeft(resource, "/")
}

// SessionCookie returns the cookie the Platform last handed out, if any.
func (c *Client) SessionCookie() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cookie
}

func (c *Client) storeCookies(resp *http.Response) {
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return
	}
	pairs := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		pairs = append(pairs, ck.Name+"="+ck.Value)
	}
	c.mu.Lock()
	c.cookie = strings.Join(pairs, "; ")
	c.mu.Unlock()
}

// do executes one request against the Platform and decodes the JSON response
// into dest. GET parameters travel on the query string, everything else is
// form-encoded in the body.
func (c *Client) do(ctx context.Context, method, resource string, params url.Values, dest any) (http.Header, error) {
	if !c.creds.valid() {
		return nil, &AuthorizationError{Message: "platform identifier and secret are required"}
	}

	endpoint := c.URL(resource)
	var body io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			endpoint += "?" + params.Encode()
		}
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.creds.authorization())
	req.Header.Set("Accept", AcceptHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie := c.SessionCookie(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform unavailable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read platform response: %w", err)
	}

	c.storeCookies(resp)

	if c.debug {
		c.log.Info("platform response",
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
	}

	if err := checkForError(resp.StatusCode, raw); err != nil {
		c.log.Warn("platform request failed",
			zap.String("method", method),
			zap.String("resource", resource),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return resp.Header, err
	}

	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return resp.Header, &RemoteRequestFailure{
				StatusCode: resp.StatusCode,
				Body:       clip(raw),
				cause:      "unable to decode remote response: " + err.Error(),
			}
		}
	}
	return resp.Header, nil
}

type failureEnvelope struct {
	Status   string `json:"status"`
	Messages []any  `json:"messages"`
}

// checkForError inspects a Platform response. A JSON object whose status is
// "fail" is an error whatever the HTTP status says.
func checkForError(status int, body []byte) error {
	if status == http.StatusUnauthorized {
		return &AuthorizationError{Message: "platform rejected credentials (HTTP 401)"}
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return &RemoteRequestFailure{
			StatusCode: status,
			Body:       clip(body),
			cause:      "unable to parse remote response: " + summarizeBody(body),
		}
	}

	if _, ok := decoded.(map[string]any); ok {
		var env failureEnvelope
		if err := json.Unmarshal(body, &env); err == nil && env.Status == "fail" {
			msgs := make([]string, 0, len(env.Messages))
			for _, m := range env.Messages {
				msgs = append(msgs, fmt.Sprint(m))
			}
			return &RemoteRequestFailure{StatusCode: status, Messages: msgs, Body: clip(body)}
		}
	}

	if status < 200 || status >= 300 {
		return &RemoteRequestFailure{StatusCode: status, Body: clip(body)}
	}
	return nil
}

// clip truncates b to maxBodyLen bytes without splitting a UTF-8 sequence.
func clip(b []byte) string {
	if len(b) <= maxBodyLen {
		return string(b)
	}
	n := maxBodyLen
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n])
}
