package ranking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/onnwee/mentorfeed/internal/candidate"
	"github.com/onnwee/mentorfeed/internal/tracing"
)

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a successful oracle body is read.
const maxResponseBytes = 1 << 20

// ErrEmptyResponse is returned when the oracle answers without any choice.
var ErrEmptyResponse = errors.New("empty ranking response")

// StatusError is returned for non-2xx oracle responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ranking API %d: %s", e.StatusCode, e.Body)
}

// Candidate is a profile as seen by the oracle.
type Candidate struct {
	ID          string
	Description *string
}

// Source tells how a Result's order was obtained.
type Source string

const (
	SourceSkipped  Source = "skipped"  // nothing to rank, no call made
	SourceOracle   Source = "oracle"   // order came from the oracle
	SourceFallback Source = "fallback" // the call failed, original order
)

// Result is the outcome of a ranking call.
type Result struct {
	// IDs is the oracle's order, or the candidates' original order when
	// Source is not SourceOracle. Oracle ids may be partial, repeated or unknown.
	IDs    []string
	Source Source

	// Err is the failure behind a SourceFallback result.
	Err error
}

// ClientConfig holds oracle connection settings.
type ClientConfig struct {
	// URL is the chat-completions endpoint.
	URL    string
	APIKey string

	// Prompts overrides DefaultPrompts.
	Prompts *Prompts

	// Timeout bounds each call. Default: 30 seconds.
	Timeout time.Duration

	// Breaker, when set, guards every call.
	Breaker *Breaker

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Client ranks candidates through an OpenAI-compatible chat-completions API.
// One attempt is made per Rank call; there are no retries.
type Client struct {
	url     string
	apiKey  string
	prompts *Prompts
	timeout time.Duration
	breaker *Breaker
	http    *http.Client
	metrics *Metrics
	logger  *slog.Logger
}

// NewClient creates an oracle client.
func NewClient(cfg ClientConfig, metrics *Metrics, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("ranking API URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Prompts == nil {
		cfg.Prompts = DefaultPrompts()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		prompts: cfg.Prompts,
		timeout: cfg.Timeout,
		breaker: cfg.Breaker,
		http:    cfg.HTTPClient,
		metrics: metrics,
		logger:  logger,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Rank orders candidates by interest for the viewer. Empty input skips the
// call. The call is detached from ctx cancellation and bounded by the client
// timeout, so an abandoned request may still finish and populate the cache.
func (c *Client) Rank(ctx context.Context, audience candidate.Kind, viewerDescription string, candidates []Candidate) Result {
	original := make([]string, len(candidates))
	for i, cand := range candidates {
		original[i] = cand.ID
	}
	if len(candidates) == 0 || strings.TrimSpace(viewerDescription) == "" {
		return Result{IDs: original, Source: SourceSkipped}
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	callCtx, endSpan := tracing.StartOracleSpan(callCtx, c.prompts.Model, len(candidates))

	start := time.Now()
	ids, err := c.rank(callCtx, audience, viewerDescription, candidates)
	endSpan(err)
	c.metrics.observeCall(classify(err), time.Since(start).Seconds())

	if err != nil {
		c.logger.WarnContext(ctx, "ranking oracle failed, keeping original order",
			"audience", string(audience),
			"candidates", len(candidates),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return Result{IDs: original, Source: SourceFallback, Err: err}
	}
	return Result{IDs: ids, Source: SourceOracle}
}

func (c *Client) rank(ctx context.Context, audience candidate.Kind, viewerDescription string, candidates []Candidate) ([]string, error) {
	prompts := c.prompts.For(audience)
	req := chatRequest{
		Model: c.prompts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.System},
			{Role: "user", Content: BuildPrompt(prompts, viewerDescription, candidates)},
		},
		Temperature: c.prompts.Temperature,
	}

	call := func() (string, error) { return c.complete(ctx, req) }
	var text string
	var err error
	if c.breaker != nil {
		text, err = c.breaker.Execute(call)
	} else {
		text, err = call()
	}
	if err != nil {
		return nil, err
	}
	return ParseRanking(text)
}

// complete performs one chat-completions exchange and returns the first choice.
func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode ranking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create ranking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ranking API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(excerpt)}
	}

	var cr chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&cr); err != nil {
		return "", fmt.Errorf("failed to decode ranking response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return cr.Choices[0].Message.Content, nil
}

// BuildPrompt renders the user message for one ranking call.
func BuildPrompt(p PromptSet, viewerDescription string, candidates []Candidate) string {
	var sb strings.Builder
	sb.WriteString(p.Instruction)
	sb.WriteString("\n\n")
	sb.WriteString(p.ViewerHeading)
	sb.WriteString(":\n")
	sb.WriteString(viewerDescription)
	sb.WriteString("\n\n")
	sb.WriteString(p.CandidatesHeading)
	sb.WriteString(":\n")
	for i, cand := range candidates {
		if i > 0 {
			sb.WriteString("\n")
		}
		desc := p.EmptyDescription
		if cand.Description != nil && *cand.Description != "" {
			desc = *cand.Description
		}
		fmt.Fprintf(&sb, "ID: %s, Description: %s", cand.ID, desc)
	}
	sb.WriteString("\n")
	return sb.String()
}

func classify(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case IsRejection(err):
		return ResultRejected
	case errors.Is(err, ErrUnparseable):
		return ResultUnparseable
	default:
		return ResultError
	}
}
