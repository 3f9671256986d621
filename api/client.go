package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL    = "https://ldb.fabdigital.uk/"
	DefaultAppName    = "Southernrail_Interface"
	DefaultAppVersion = "0.0.1"

	sessionCookie = "PHPSESSID"
	endpointPath  = "api/index.php"

	pageEnv         = "env"
	pageStationData = "get_station_ref_data"
	pageBoard       = "ldbws"
)

// StationCache stores the upstream station list so it can be shared between
// processes. Load returning an error is treated as a miss.
type StationCache interface {
	Load(ctx context.Context) ([]Station, error)
	Save(ctx context.Context, stations []Station) error
}

// Client talks to the departure board widget backend. It keeps the session
// cookie and the station tables between calls and is safe for concurrent use.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	autoRefresh bool
	cache       StationCache
	logger      zerolog.Logger

	mu         sync.Mutex
	appName    string
	appVersion string
	sessionID  string
	stale      bool

	stationsMu sync.Mutex
	stations   *stationTable
}

type Option func(*Client) error

func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid base url %q: %w", raw, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base url %q: scheme and host are required", raw)
		}
		c.baseURL = u
		return nil
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = httpClient
		return nil
	}
}

// WithAutoRefresh makes a failed station lookup reload the station tables on
// the next call.
func WithAutoRefresh(autoRefresh bool) Option {
	return func(c *Client) error {
		c.autoRefresh = autoRefresh
		return nil
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

func WithApplication(name, version string) Option {
	return func(c *Client) error {
		c.appName = name
		c.appVersion = version
		return nil
	}
}

func WithStationCache(cache StationCache) Option {
	return func(c *Client) error {
		c.cache = cache
		return nil
	}
}

func New(opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.Logger.With().Str("component", "southernrail").Logger(),
		appName:    DefaultAppName,
		appVersion: DefaultAppVersion,
	}
	if err := WithBaseURL(DefaultBaseURL)(c); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// SetDebug switches the client logger between debug and info level.
func (c *Client) SetDebug(debug bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if debug {
		c.logger = c.logger.Level(zerolog.DebugLevel)
	} else {
		c.logger = c.logger.Level(zerolog.InfoLevel)
	}
}

// SetApplication changes the name and version sent in the User-Agent header.
func (c *Client) SetApplication(name, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.appName = name
	c.appVersion = version
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) log() *zerolog.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.logger
	return &l
}

func (c *Client) userAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return fmt.Sprintf("%s/%s (Go_%s) %s (%s) Go Wrapper", c.appName, c.appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func (c *Client) session() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionID
}

func (c *Client) endpointURL(page string) string {
	ref := &url.URL{Path: endpointPath, RawQuery: url.Values{"page": {page}}.Encode()}
	return c.baseURL.ResolveReference(ref).String()
}

func (c *Client) ensureSession(ctx context.Context) error {
	if c.session() != "" {
		return nil
	}

	return c.newSession(ctx)
}

// newSession asks the env page for a fresh PHPSESSID cookie.
func (c *Client) newSession(ctx context.Context) error {
	resp, err := c.do(ctx, pageEnv, []formField{{"page", pageEnv}})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookie && cookie.Value != "" {
			c.mu.Lock()
			c.sessionID = cookie.Value
			c.mu.Unlock()

			c.log().Debug().Str("session", cookie.Value).Msg("Got new session")
			return nil
		}
	}

	return ErrNoSession
}

// do sends one multipart POST to the given page. The caller closes the body.
func (c *Client) do(ctx context.Context, page string, fields []formField) (*http.Response, error) {
	body, contentType, err := encodeForm(fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(page), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", page, err)
	}

	origin := c.baseURL.Scheme + "://" + c.baseURL.Host
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	if session := c.session(); session != "" && page != pageEnv {
		req.Header.Set("Cookie", sessionCookie+"="+session)
	}

	c.log().Debug().Str("page", page).Str("content_type", contentType).Msg("Making POST request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", page, err)
	}

	c.log().Debug().Str("page", page).Int("status", resp.StatusCode).Msg("Got response")

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{Page: page, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// postJSON sends the form and decodes the "response" member of the reply into out.
func (c *Client) postJSON(ctx context.Context, page string, fields []formField, out any) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}

	resp, err := c.do(ctx, page, fields)
	if sessionRejected(err) {
		c.log().Debug().Str("page", page).Msg("Session rejected, requesting a new one")
		if err := c.newSession(ctx); err != nil {
			return err
		}
		resp, err = c.do(ctx, page, fields)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	envelope := struct {
		Response any `json:"response"`
	}{Response: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", page, err)
	}

	return nil
}

// sessionRejected reports whether the upstream refused the PHPSESSID, which
// happens once the server side session expires.
func sessionRejected(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}

	return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
}
