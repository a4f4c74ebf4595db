// Package api executes requests against the Sylve REST API. Every response is
// unwrapped from its envelope and validated against a caller-supplied schema.
// Execute never fails outright: callers always get a usable value plus a
// classified error.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"sylvectl/internal/ratelimit"
	"sylvectl/internal/utils"
)

// Header names attached to every request.
const (
	HeaderClusterToken    = "X-Cluster-Token"
	HeaderCurrentHostname = "X-Current-Hostname"
	HeaderRequestID       = "X-Request-ID"
)

// ValidMethods lists the HTTP methods the executor sends.
var ValidMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
}

// Session supplies per-request credentials.
type Session interface {
	// AuthToken returns the session token, or nil when logged out.
	AuthToken() *oauth2.Token
	ClusterToken() string
	CurrentHostname() string
}

// Config holds client settings.
type Config struct {
	// BaseURL is the Sylve origin, e.g. https://sylve.lan:8181. "/api" is
	// appended unless already present.
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	Fallback   FallbackPolicy
	HTTPClient *http.Client
	Stats      *ratelimit.Stats
	Logger     *utils.Logger
}

// Client sends requests to one Sylve server.
type Client struct {
	baseURL  string
	session  Session
	http     *ratelimit.Client
	fallback FallbackPolicy
	log      *utils.Logger

	mu            sync.RWMutex
	onAuthExpired []func(*Error)
}

// NewClient creates a client. session may be nil for unauthenticated calls
// such as login.
func NewClient(cfg Config, session Session) (*Client, error) {
	base, err := apiBase(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = utils.GetLogger()
	}

	return &Client{
		baseURL: base,
		session: session,
		http: ratelimit.NewClient(ratelimit.Config{
			MaxRetries:   cfg.MaxRetries,
			BaseDelay:    cfg.BaseDelay,
			EnableJitter: true,
			HTTPClient:   httpClient,
			Stats:        cfg.Stats,
		}),
		fallback: cfg.Fallback,
		log:      log,
	}, nil
}

func apiBase(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("server URL is empty")
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", raw)
	}
	path := strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(path, "/api") {
		path += "/api"
	}
	u.Path = path
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// BaseURL returns the API base, ending in /api.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithSession returns a copy of c that authenticates with s. Hooks are shared.
func (c *Client) WithSession(s Session) *Client {
	c.mu.RLock()
	hooks := append([]func(*Error){}, c.onAuthExpired...)
	c.mu.RUnlock()
	return &Client{
		baseURL:       c.baseURL,
		session:       s,
		http:          c.http,
		fallback:      c.fallback,
		log:           c.log,
		onAuthExpired: hooks,
	}
}

// OnAuthExpired registers fn to run whenever a request comes back 401.
// The executor itself takes no action on expiry.
func (c *Client) OnAuthExpired(fn func(*Error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAuthExpired = append(c.onAuthExpired, fn)
}

func (c *Client) authExpired(e *Error) {
	c.mu.RLock()
	hooks := c.onAuthExpired
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(e)
	}
}

func validMethod(method string) bool {
	for _, m := range ValidMethods {
		if m == method {
			return true
		}
	}
	return false
}

// headers builds the request headers from the session.
func (c *Client) headers(requestID string, hasBody bool) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set(HeaderRequestID, requestID)
	if hasBody {
		h.Set("Content-Type", "application/json")
	}
	if c.session == nil {
		return h
	}
	if tok := c.session.AuthToken(); tok != nil && tok.Valid() {
		h.Set("Authorization", tok.Type()+" "+tok.AccessToken)
	}
	if ct := c.session.ClusterToken(); ct != "" {
		h.Set(HeaderClusterToken, "Bearer "+ct)
	}
	if host := c.session.CurrentHostname(); host != "" {
		h.Set(HeaderCurrentHostname, host)
	}
	return h
}

// response is one completed round trip.
type response struct {
	requestID string
	status    int
	body      []byte
}

// send performs the round trip. Any HTTP status counts as success here; only
// failures to build, send or read the request return an error.
func (c *Client) send(ctx context.Context, method, endpoint string, body any) (response, error) {
	resp := response{requestID: uuid.NewString()}

	if !validMethod(method) {
		return resp, utils.ErrInvalidMethod(method, ValidMethods)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return resp, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	target := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	c.log.Debug("[%s] %s %s", resp.requestID, method, target)

	httpResp, err := c.http.Do(ctx, method, target, c.headers(resp.requestID, payload != nil), payload)
	if err != nil {
		return resp, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	resp.status = httpResp.StatusCode
	resp.body, err = io.ReadAll(httpResp.Body)
	if err != nil {
		return resp, fmt.Errorf("failed to read response body: %w", err)
	}
	c.log.Debug("[%s] %s %s -> %d (%d bytes)", resp.requestID, method, target, resp.status, len(resp.body))
	return resp, nil
}

// Raw sends a request and returns the parsed envelope without validating its
// data. The HTTP status is returned alongside.
func (c *Client) Raw(ctx context.Context, method, endpoint string, body any) (*Envelope, int, error) {
	resp, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return nil, resp.status, err
	}
	env, parseErr := parseEnvelope(resp.body)
	if resp.status == http.StatusUnauthorized {
		c.authExpired(&Error{
			Kind:      KindAuthExpired,
			Method:    method,
			Endpoint:  endpoint,
			Status:    resp.status,
			Code:      env.Error,
			Message:   env.Message,
			RequestID: resp.requestID,
			Err:       parseErr,
		})
	}
	if parseErr != nil {
		return nil, resp.status, fmt.Errorf("malformed response envelope: %w", parseErr)
	}
	return &env, resp.status, nil
}
