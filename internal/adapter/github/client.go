// Package github is the hosting-platform adapter: it talks to the GitHub
// Pull Request Reviews API and satisfies the reconciler's Host port plus
// the changed-files listing.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/critique-dev/critique/internal/adapter/httpkit"
)

const (
	serviceName = "github"

	defaultBaseURL        = "https://api.github.com"
	defaultTimeout        = 30 * time.Second
	defaultBotLogin       = "critique[bot]"
	defaultInitialBackoff = 2 * time.Second
)

// Client is an HTTP client for one pull request on one repository.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  httpkit.RetryConfig
	logger     httpkit.Logger

	owner      string
	repo       string
	pullNumber int
	commitSHA  string
	botLogin   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a custom API host (for testing or
// GitHub Enterprise).
func WithBaseURL(url string) Option { return func(c *Client) { c.baseURL = url } }

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(rc httpkit.RetryConfig) Option { return func(c *Client) { c.retryConf = rc } }

// WithLogger sets the structured logger.
func WithLogger(l httpkit.Logger) Option { return func(c *Client) { c.logger = l } }

// WithBotLogin sets the login this tool posts under, used to recognize its
// own reviews.
func WithBotLogin(login string) Option { return func(c *Client) { c.botLogin = login } }

// WithCommitSHA pins standalone comments to a head commit. Required for the
// per-comment fallback path.
func WithCommitSHA(sha string) Option { return func(c *Client) { c.commitSHA = sha } }

// NewClient creates a client bound to one pull request. The token is a
// personal access token or the Actions-provided GITHUB_TOKEN.
func NewClient(token, owner, repo string, pullNumber int, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf: httpkit.RetryConfig{
			MaxRetries:     3,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
		logger:     httpkit.NopLogger{},
		owner:      owner,
		repo:       repo,
		pullNumber: pullNumber,
		botLogin:   defaultBotLogin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BotLogin returns the identity this client posts reviews under.
func (c *Client) BotLogin() string { return c.botLogin }

func (c *Client) prPath(suffix string) string {
	return fmt.Sprintf("%s/repos/%s/%s/pulls/%d%s", c.baseURL, c.owner, c.repo, c.pullNumber, suffix)
}

// do executes one API call with retry and decodes the response into out
// (skipped when out is nil). Payload is marshalled as the JSON body when
// non-nil.
func (c *Client) do(ctx context.Context, method, url string, payload, out interface{}) error {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		body = data
	}

	var resp *http.Response
	err := httpkit.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, url, reader)
		if reqErr != nil {
			return &httpkit.Error{
				Type:    httpkit.ErrTypeUnknown,
				Message: reqErr.Error(),
				Service: serviceName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		var callErr error
		resp, callErr = c.httpClient.Do(req)
		if callErr != nil {
			return &httpkit.Error{
				Type:      httpkit.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Service:   serviceName,
			}
		}

		if resp.StatusCode >= 400 {
			errBody, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return &httpkit.Error{
					Type:       httpkit.ErrTypeUnknown,
					Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
					StatusCode: resp.StatusCode,
					Retryable:  resp.StatusCode >= 500,
					Service:    serviceName,
				}
			}
			return MapHTTPError(resp.StatusCode, errBody)
		}

		return nil
	}, c.retryConf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
