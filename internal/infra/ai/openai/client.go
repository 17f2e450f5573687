package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/health-companion/internal/domain/ai"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 2048
	schemaName       = "health_result"
	wrapperField     = "items"
)

type Client struct {
	*openai.Client
	Model     string
	MaxTokens int
}

// NewClient builds an OpenAI-compatible client. baseURL may be empty.
func NewClient(apiKey, model, baseURL string, maxTokens int) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model, MaxTokens: maxTokens}
}

// Generate sends one prompt (plus an optional image) with a strict json_schema
// response format. Top-level array schemas are wrapped in an object because
// structured outputs must be objects; the wrapper is removed from the reply.
func (c *Client) Generate(ctx context.Context, in ai.GenerateRequest) (string, error) {
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: in.Prompt}
	if in.Attachment != nil {
		part, err := imagePart(in.Attachment)
		if err != nil {
			return "", err
		}
		user = openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: in.Prompt},
				part,
			},
		}
	}

	req := c.request([]openai.ChatCompletionMessage{user})
	wrapped := false
	if in.Schema != nil {
		schema := in.Schema
		if schema.Type != ai.TypeObject {
			schema = &ai.Schema{
				Type:       ai.TypeObject,
				Properties: map[string]*ai.Schema{wrapperField: in.Schema},
				Required:   []string{wrapperField},
			}
			wrapped = true
		}
		raw, err := json.Marshal(JSONSchema(schema))
		if err != nil {
			return "", fmt.Errorf("failed to marshal response schema: %w", err)
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: json.RawMessage(raw),
				Strict: true,
			},
		}
	}

	content, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}
	if wrapped {
		return unwrap(content), nil
	}
	return content, nil
}

// Chat replays the history after the system instruction and sends the new message.
func (c *Client) Chat(ctx context.Context, in ai.ChatRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(in.History)+2)
	if in.SystemInstruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: in.SystemInstruction})
	}
	for _, t := range in.History {
		role := openai.ChatMessageRoleUser
		if t.Role == ai.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: in.Message})
	return c.complete(ctx, c.request(msgs))
}

// Ping lists models to confirm the key and endpoint work.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.ListModels(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

// Accepts reports whether the attachment can be sent as an image part.
func (c *Client) Accepts(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}

func (c *Client) request(msgs []openai.ChatCompletionMessage) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{Model: c.Model, Messages: msgs}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(c.Model, "o1") || strings.HasPrefix(c.Model, "o3") || strings.HasPrefix(c.Model, "o4") || strings.HasPrefix(c.Model, "gpt-5") {
		req.MaxCompletionTokens = c.MaxTokens
	} else {
		req.MaxTokens = c.MaxTokens
	}
	return req
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", mapError(err))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func imagePart(a *ai.Attachment) (openai.ChatMessagePart, error) {
	if !strings.HasPrefix(a.MediaType, "image/") {
		return openai.ChatMessagePart{}, fmt.Errorf("%w: %s", ai.ErrUnsupportedAttachment, a.MediaType)
	}
	url := fmt.Sprintf("data:%s;base64,%s", a.MediaType, base64.StdEncoding.EncodeToString(a.Data))
	return openai.ChatMessagePart{
		Type:     openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto},
	}, nil
}

// unwrap returns the wrapped payload, or the raw text when it is not a wrapper
// so the caller's schema check reports the mismatch.
func unwrap(content string) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &obj); err != nil {
		return content
	}
	inner, ok := obj[wrapperField]
	if !ok || len(obj) != 1 {
		return content
	}
	return string(inner)
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
	}
	return err
}
