package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docverify-backend/internal/extract"
	"docverify-backend/internal/extraction"
	"docverify-backend/internal/match"
)

const (
	apiURL         = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel   = "llama-3.3-70b-versatile"
	defaultTimeout = 60 * time.Second
)

// Client implements extraction.Service by running local text extraction and
// sending the result through Groq's OpenAI-compatible chat completions API.
type Client struct {
	apiKey         string
	model          string
	httpClient     *http.Client
	apiURLOverride string
}

// NewClient constructs a Groq-backed extraction client. A zero timeout falls
// back to the backend default.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Extract runs OCR/text extraction over the document and asks the model for
// the structured fields.
func (c *Client) Extract(ctx context.Context, in extraction.Input) (match.Fields, error) {
	text, err := extract.Text(ctx, in.Data, in.MimeType, in.FileName)
	if err != nil {
		return match.Fields{}, fmt.Errorf("document text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return match.Fields{}, errors.New("document produced no text")
	}

	prompt := extraction.BuildPrompt(in.Kind, text)
	raw, err := c.completeOnce(ctx, prompt)
	if err != nil {
		return match.Fields{}, err
	}

	if !json.Valid(raw) {
		// One repair attempt; small models occasionally wrap the object in prose.
		raw, err = c.completeOnce(ctx, fixJSONPrompt(raw))
		if err != nil {
			return match.Fields{}, err
		}
		if !json.Valid(raw) {
			return match.Fields{}, fmt.Errorf("invalid JSON from groq")
		}
	}

	return extraction.ParseFields(raw)
}

func (c *Client) completeOnce(ctx context.Context, prompt string) (json.RawMessage, error) {
	temp := float32(0.1)
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: &temp,
		MaxTokens:   500,
		ResponseFormat: &responseFormat{
			Type: "json_object",
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("groq request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("groq response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("groq error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("groq response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("groq response empty content")
	}
	return json.RawMessage(content), nil
}

func (c *Client) endpoint() string {
	if c.apiURLOverride != "" {
		return c.apiURLOverride
	}
	return apiURL
}

func fixJSONPrompt(raw json.RawMessage) string {
	return "The following was supposed to be a JSON object with keys name, phone, and address but is not valid JSON. " +
		"Return only the corrected JSON object, nothing else.\n\n" + string(raw)
}

var _ extraction.Service = (*Client)(nil)
