package visionocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tagren/internal/domain"
	"tagren/internal/ports"
)

const (
	maxRetries         = 3
	defaultRetryDelay  = 2 * time.Second
	defaultMaxTokens   = 1024
	defaultTemperature = 0.0
)

// Client is an OpenAI-compatible vision chat client used as a recognizer
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	http       *http.Client
	retryDelay time.Duration
}

// Ensure Client implements ports.Recognizer
var _ ports.Recognizer = (*Client)(nil)

// Option configures the Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithRetryDelay sets the base delay between retries
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

type imageURL struct {
	URL string `json:"url"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// APIError is a non-200 answer from the chat endpoint
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OCR API error (status %d): %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if repeated
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, 529:
		return true
	}
	return false
}

// NewClient creates a vision OCR client. baseURL may be the API root or the
// full chat completions endpoint.
func NewClient(apiKey, model, baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/chat/completions") {
		baseURL += "/chat/completions"
	}
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		http:       &http.Client{Timeout: 60 * time.Second},
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model identifier
func (c *Client) Model() string {
	return c.model
}

// Recognize sends the crop as a data URL together with prompt and returns
// the last non-empty line of the answer.
func (c *Client) Recognize(ctx context.Context, crop *ports.Crop, prompt string) (string, error) {
	mime := crop.MIME
	if mime == "" {
		mime = http.DetectContentType(crop.Data)
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(crop.Data)

	payload := chatRequest{
		Model: c.model,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				{Type: "text", Text: prompt},
			},
		}},
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		result, err := c.doRequest(ctx, body)
		if err == nil {
			return domain.AnswerLine(result), nil
		}
		lastErr = err
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return "", err
		}
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("OCR error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", errors.New("OCR API returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}
