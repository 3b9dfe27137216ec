package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/critique-dev/critique/internal/adapter/httpkit"
	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/extract"
)

const (
	anthropicService = "anthropic"

	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicVersion = "2023-06-01"
	defaultAnthropicTimeout = 120 * time.Second
	defaultMaxTokens        = 8192
)

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	retryConf  httpkit.RetryConfig
	logger     httpkit.Logger

	// customInstructions is appended to, never replaces, the built-in
	// validation criteria.
	customInstructions string
}

// AnthropicOption configures the client.
type AnthropicOption func(*Anthropic)

func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(a *Anthropic) { a.baseURL = url }
}

func WithAnthropicMaxTokens(n int) AnthropicOption {
	return func(a *Anthropic) { a.maxTokens = n }
}

func WithAnthropicTimeout(d time.Duration) AnthropicOption {
	return func(a *Anthropic) { a.httpClient.Timeout = d }
}

func WithAnthropicRetryConfig(rc httpkit.RetryConfig) AnthropicOption {
	return func(a *Anthropic) { a.retryConf = rc }
}

func WithAnthropicLogger(l httpkit.Logger) AnthropicOption {
	return func(a *Anthropic) { a.logger = l }
}

// WithCustomInstructions appends extra validation criteria to the built-in
// prompt text.
func WithCustomInstructions(text string) AnthropicOption {
	return func(a *Anthropic) { a.customInstructions = text }
}

// NewAnthropic creates the client for the given model.
func NewAnthropic(apiKey, model string, opts ...AnthropicOption) *Anthropic {
	a := &Anthropic{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultAnthropicBaseURL,
		maxTokens:  defaultMaxTokens,
		httpClient: &http.Client{Timeout: defaultAnthropicTimeout},
		retryConf:  httpkit.DefaultRetryConfig(),
		logger:     httpkit.NopLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type messagesRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze asks for a full findings pass over the changeset's patches.
func (a *Anthropic) Analyze(ctx context.Context, changeset domain.Changeset, instructions string) (string, error) {
	prompt := analysisPrompt(changeset, joinInstructions(instructions, a.customInstructions))
	return a.call(ctx, analysisSystemPrompt, prompt)
}

// ValidateFinding asks the narrow false-positive question for one finding.
// The answer is fail-closed on the drop side: an unparseable reply counts
// as "drop" per the filter contract, while transport errors surface so the
// filter can fail open.
func (a *Anthropic) ValidateFinding(ctx context.Context, finding domain.Finding) (bool, error) {
	prompt, err := validationPrompt(finding, a.customInstructions)
	if err != nil {
		return false, err
	}

	raw, err := a.call(ctx, validationSystemPrompt, prompt)
	if err != nil {
		return false, err
	}

	verdict, err := extract.ParseVerdict(raw)
	if err != nil {
		a.logger.LogWarning(ctx, "validation reply unparseable, dropping finding", map[string]interface{}{
			"file":  finding.File,
			"line":  finding.Line,
			"error": err.Error(),
		})
		return false, nil
	}
	return verdict.Keep, nil
}

func (a *Anthropic) call(ctx context.Context, system, prompt string) (string, error) {
	reqBody := messagesRequest{
		Model:     a.model,
		System:    system,
		Messages:  []message{{Role: "user", Content: prompt}},
		MaxTokens: a.maxTokens,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	started := time.Now()
	var resp *http.Response
	err = httpkit.RetryWithBackoff(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/v1/messages", bytes.NewReader(jsonData))
		if reqErr != nil {
			return &httpkit.Error{
				Type:    httpkit.ErrTypeUnknown,
				Message: reqErr.Error(),
				Service: anthropicService,
			}
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", a.apiKey)
		req.Header.Set("anthropic-version", defaultAnthropicVersion)

		var callErr error
		resp, callErr = a.httpClient.Do(req)
		if callErr != nil {
			return &httpkit.Error{
				Type:      httpkit.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Service:   anthropicService,
			}
		}

		if resp.StatusCode >= 400 {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return &httpkit.Error{
					Type:       httpkit.ErrTypeUnknown,
					Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
					StatusCode: resp.StatusCode,
					Retryable:  resp.StatusCode >= 500,
					Service:    anthropicService,
				}
			}
			return mapAnthropicError(resp.StatusCode, body)
		}
		return nil
	}, a.retryConf)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	a.logger.LogInfo(ctx, "engine call completed", map[string]interface{}{
		"model":       a.model,
		"duration_ms": time.Since(started).Milliseconds(),
		"stop_reason": parsed.StopReason,
	})
	return sb.String(), nil
}

func mapAnthropicError(statusCode int, body []byte) *httpkit.Error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var parsed anthropicError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		message = fmt.Sprintf("HTTP %d: %s", statusCode, parsed.Error.Message)
	}

	switch {
	case statusCode == 401 || statusCode == 403:
		return httpkit.NewAuthenticationError(anthropicService, message)
	case statusCode == 429:
		return httpkit.NewRateLimitError(anthropicService, message)
	case statusCode == 404:
		return httpkit.NewNotFoundError(anthropicService, message)
	case statusCode >= 500 || statusCode == 529:
		return httpkit.NewServiceUnavailableError(anthropicService, message)
	case statusCode == 400:
		return httpkit.NewInvalidRequestError(anthropicService, message)
	default:
		return &httpkit.Error{
			Type:       httpkit.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Service:    anthropicService,
		}
	}
}

func joinInstructions(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}
