package vision

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

	"docverify-backend/internal/extraction"
	"docverify-backend/internal/match"
)

const (
	apiURL         = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel   = "llama-3.2-90b-vision-preview"
	defaultTimeout = 90 * time.Second
)

// Client implements extraction.Service by sending the document image itself
// to a multimodal model, skipping the separate OCR pass. This is the second
// backend variant; it shares the Fields contract with the Groq text backend.
type Client struct {
	apiKey         string
	model          string
	httpClient     *http.Client
	apiURLOverride string
}

// NewClient constructs a vision-model-backed extraction client. A zero
// timeout falls back to the backend default, which is longer than the text
// backend's because image completions are slower.
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

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
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
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

var supportedImageMimes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
}

// Extract sends the document image to the vision model and decodes the
// structured fields from its JSON answer.
func (c *Client) Extract(ctx context.Context, in extraction.Input) (match.Fields, error) {
	if len(in.Data) == 0 {
		return match.Fields{}, errors.New("empty document data")
	}
	mime := strings.ToLower(strings.TrimSpace(strings.Split(in.MimeType, ";")[0]))
	if _, ok := supportedImageMimes[mime]; !ok {
		return match.Fields{}, fmt.Errorf("vision backend: unsupported mime type %s", mime)
	}

	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(in.Data)

	temp := float32(0.1)
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: extraction.BuildVisionPrompt(in.Kind)},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		}},
		Temperature: &temp,
		MaxTokens:   500,
		ResponseFormat: &responseFormat{
			Type: "json_object",
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return match.Fields{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return match.Fields{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return match.Fields{}, fmt.Errorf("vision request timeout: %w", err)
		}
		return match.Fields{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return match.Fields{}, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return match.Fields{}, fmt.Errorf("vision response parse: %w", err)
	}
	if parsed.Error != nil {
		return match.Fields{}, fmt.Errorf("vision error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return match.Fields{}, fmt.Errorf("vision response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" || !json.Valid([]byte(content)) {
		return match.Fields{}, fmt.Errorf("invalid JSON from vision model")
	}

	return extraction.ParseFields(json.RawMessage(content))
}

func (c *Client) endpoint() string {
	if c.apiURLOverride != "" {
		return c.apiURLOverride
	}
	return apiURL
}

var _ extraction.Service = (*Client)(nil)
