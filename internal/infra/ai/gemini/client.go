package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/bryanwahyu/health-companion/internal/domain/ai"
)

const defaultModel = "gemini-2.5-flash"

// Client talks to the Gemini API through the genai SDK.
type Client struct {
	models    *genai.Models
	model     string
	maxTokens int32
}

// NewClient builds a Gemini client. baseURL is only set for tests and proxies.
func NewClient(ctx context.Context, apiKey, model, baseURL string, maxTokens int) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{models: gc.Models, model: model, maxTokens: int32(maxTokens)}, nil
}

// Generate sends the prompt (and inline attachment) asking for JSON that
// matches the schema.
func (c *Client) Generate(ctx context.Context, in ai.GenerateRequest) (string, error) {
	parts := []*genai.Part{{Text: in.Prompt}}
	if in.Attachment != nil {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{
			MIMEType: in.Attachment.MediaType,
			Data:     in.Attachment.Data,
		}})
	}

	cfg := c.config()
	if in.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = Schema(in.Schema)
	}
	return c.generate(ctx, []*genai.Content{{Role: string(ai.RoleUser), Parts: parts}}, cfg)
}

// Chat replays the history as contents and appends the new user message.
func (c *Client) Chat(ctx context.Context, in ai.ChatRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(in.History)+1)
	for _, t := range in.History {
		contents = append(contents, &genai.Content{Role: string(t.Role), Parts: []*genai.Part{{Text: t.Text}}})
	}
	contents = append(contents, &genai.Content{Role: string(ai.RoleUser), Parts: []*genai.Part{{Text: in.Message}}})

	cfg := c.config()
	if in.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: in.SystemInstruction}}}
	}
	return c.generate(ctx, contents, cfg)
}

// Ping fetches the configured model's metadata.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.models.Get(ctx, c.model, nil); err != nil {
		return fmt.Errorf("failed to reach gemini: %w", mapError(err))
	}
	return nil
}

// Accepts is true for every media type; Gemini takes images and PDFs inline.
func (c *Client) Accepts(string) bool { return true }

func (c *Client) config() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}
	return cfg
}

func (c *Client) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", mapError(err))
	}
	text := responseText(resp)
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}

// responseText joins the text parts of the first candidate, skipping thoughts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
	}
	return err
}
