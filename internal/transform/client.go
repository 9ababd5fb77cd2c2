package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scenekit/resize/internal/config"
	"github.com/scenekit/resize/internal/logging"
	"github.com/scenekit/resize/internal/request"
	"github.com/scenekit/resize/internal/scene"
	"github.com/scenekit/resize/internal/shared/id"
)

const (
	breakerThreshold = 5
	breakerCooldown  = time.Minute
)

// Client talks to an OpenAI-compatible chat-completions endpoint. Retries
// cover whole calls: each attempt carries a fresh attempt ID and idempotency
// key, runs under its own timeout, and is never merged with another
// attempt's partial response.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	breaker *breaker
	cfg     config.ServiceConfig
	logger  *logging.Logger
}

// NewClient creates a reasoning-service client.
func NewClient(cfg config.ServiceConfig, logger *logging.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "scenekit-resize/1.0").
		SetAuthToken(cfg.APIKey)

	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: newBreaker(breakerThreshold, breakerCooldown),
		cfg:     cfg,
		logger:  logger.Stage("transform"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transform sends the request and returns the candidate revision. Transient
// transport failures are retried with exponential backoff up to the
// configured attempt budget; a response that decodes as JSON but not as a
// valid scene is returned as a candidate for the validator to judge.
func (c *Client) Transform(ctx context.Context, req *request.Request) (*Candidate, error) {
	if !c.breaker.allow() {
		return nil, ErrBreakerOpen
	}

	userPrompt, err := req.UserPrompt()
	if err != nil {
		return nil, err
	}
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt()},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	attempts := c.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		attemptID := id.NewAttemptID()
		cand, retryable, err := c.attempt(ctx, attemptID, req, body)
		if err == nil {
			c.breaker.success()
			return cand, nil
		}
		c.breaker.failure()
		if !retryable {
			return nil, err
		}
		lastErr = err

		wait := retryablehttp.DefaultBackoff(c.cfg.RetryWaitMin, c.cfg.RetryWaitMax, attempt, nil)
		c.logger.Warn("transient service failure, backing off",
			zap.String("attempt_id", string(attemptID)),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, &TimeoutError{Attempts: attempts, Last: lastErr}
}

// attempt performs one bounded service call. The bool result reports whether
// the failure was transient and the call may be retried.
func (c *Client) attempt(ctx context.Context, attemptID id.AttemptID, req *request.Request, body chatRequest) (*Candidate, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var parsed chatResponse
	resp, err := c.http.R().
		SetContext(attemptCtx).
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetHeader("X-Run-ID", string(req.Run)).
		SetHeader("X-Attempt-ID", string(attemptID)).
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post("/chat/completions")

	// retryablehttp's default policy is the arbiter of transience: network
	// errors, 429, and 5xx retry; everything else is terminal.
	var raw *int
	if resp != nil && resp.RawResponse != nil {
		code := resp.StatusCode()
		raw = &code
	}
	if err != nil {
		retry, _ := retryablehttp.DefaultRetryPolicy(attemptCtx, nil, err)
		return nil, retry || attemptCtx.Err() == context.DeadlineExceeded,
			fmt.Errorf("service call: %w", err)
	}
	if resp.IsError() {
		retry, _ := retryablehttp.DefaultRetryPolicy(attemptCtx, resp.RawResponse, nil)
		msg := resp.Status()
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		svcErr := &ServiceError{Status: statusOf(raw), Message: msg}
		return nil, retry, svcErr
	}
	if len(parsed.Choices) == 0 {
		return nil, false, &ServiceError{Status: statusOf(raw), Message: "response contains no choices"}
	}

	content := stripFences(parsed.Choices[0].Message.Content)
	doc, decodeErr := scene.Unmarshal([]byte(content))
	if decodeErr != nil {
		c.logger.Warn("candidate did not decode as a scene document",
			zap.String("attempt_id", string(attemptID)),
			zap.Error(decodeErr))
	}
	return &Candidate{
		Document:  doc,
		Raw:       []byte(content),
		DecodeErr: decodeErr,
		Attempt:   attemptID,
	}, false, nil
}

func statusOf(code *int) int {
	if code == nil {
		return 0
	}
	return *code
}

// stripFences removes a wrapping markdown code fence if the model added one
// despite the instructions.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
