package ai

import "context"

// Role of a replayed chat turn as the provider sees it.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Attachment is a binary file relayed to the provider untouched.
type Attachment struct {
	MediaType string
	Data      []byte
}

// GenerateRequest asks for one structured completion.
type GenerateRequest struct {
	Prompt     string
	Attachment *Attachment
	Schema     *Schema
}

// Turn is one replayed message of a chat history.
type Turn struct {
	Role Role
	Text string
}

// ChatRequest asks for the next assistant message of a conversation.
type ChatRequest struct {
	SystemInstruction string
	History           []Turn
	Message           string
}

// Client is the port every model provider adapter implements.
// Each method performs at most one round trip.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Chat(ctx context.Context, req ChatRequest) (string, error)
	Ping(ctx context.Context) error
	// Accepts reports whether Generate can relay an attachment of this media type.
	Accepts(mediaType string) bool
}
