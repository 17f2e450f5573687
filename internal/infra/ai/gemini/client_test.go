package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/bryanwahyu/health-companion/internal/domain/ai"
)

type recorder struct {
	mu     sync.Mutex
	paths  []string
	bodies []string
}

func (r *recorder) last() (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths[len(r.paths)-1], r.bodies[len(r.bodies)-1]
}

func newTestClient(t *testing.T, status int, reply string) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.paths = append(rec.paths, r.URL.Path)
		rec.bodies = append(rec.bodies, string(body))
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
			return
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": reply}},
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)

	c, err := NewClient(context.Background(), "test-key", "", ts.URL+"/", 512)
	require.NoError(t, err)
	return c, rec
}

func TestGenerateSendsSchemaAndAttachment(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"ok":true}`)

	out, err := c.Generate(context.Background(), ai.GenerateRequest{
		Prompt:     "Analyze this report",
		Attachment: &ai.Attachment{MediaType: "application/pdf", Data: []byte("%PDF-1.4")},
		Schema: &ai.Schema{
			Type:       ai.TypeObject,
			Properties: map[string]*ai.Schema{"ok": {Type: ai.TypeBoolean}},
			Required:   []string{"ok"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	path, body := rec.last()
	assert.True(t, strings.HasSuffix(path, "/models/gemini-2.5-flash:generateContent"), path)
	assert.Contains(t, body, "Analyze this report")
	assert.Contains(t, body, "application/pdf")
	assert.Contains(t, body, "application/json")
}

func TestChatSendsHistoryAndInstruction(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, "Stay hydrated.")

	out, err := c.Chat(context.Background(), ai.ChatRequest{
		SystemInstruction: "You are a health assistant.",
		History: []ai.Turn{
			{Role: ai.RoleModel, Text: "Hello!"},
			{Role: ai.RoleUser, Text: "I feel tired"},
			{Role: ai.RoleModel, Text: "Sleep more."},
		},
		Message: "Anything else?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Stay hydrated.", out)

	_, body := rec.last()
	assert.Contains(t, body, "You are a health assistant.")
	assert.Contains(t, body, "I feel tired")
	assert.Contains(t, body, "Anything else?")
}

func TestAcceptsPDF(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, "{}")
	assert.True(t, c.Accepts("application/pdf"))
	assert.True(t, c.Accepts("image/jpeg"))
}

func TestEmptyReplyIsError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, "")
	_, err := c.Generate(context.Background(), ai.GenerateRequest{Prompt: "x"})
	assert.Error(t, err)
}

func TestQuotaErrorIsTagged(t *testing.T) {
	c, _ := newTestClient(t, http.StatusTooManyRequests, "")
	_, err := c.Generate(context.Background(), ai.GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestSchemaConversion(t *testing.T) {
	s := Schema(&ai.Schema{
		Type: ai.TypeObject,
		Properties: map[string]*ai.Schema{
			"status": {Type: ai.TypeString, Enum: []string{"Low", "High"}},
			"note":   {Type: ai.TypeString, Nullable: true},
			"tags":   {Type: ai.TypeArray, Items: &ai.Schema{Type: ai.TypeString}},
		},
		Required: []string{"status", "note", "tags"},
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"note", "status", "tags"}, s.PropertyOrdering)
	assert.Equal(t, []string{"status", "note", "tags"}, s.Required)
	assert.Equal(t, []string{"Low", "High"}, s.Properties["status"].Enum)
	require.NotNil(t, s.Properties["note"].Nullable)
	assert.True(t, *s.Properties["note"].Nullable)
	assert.Nil(t, s.Properties["status"].Nullable)
	assert.Equal(t, genai.TypeString, s.Properties["tags"].Items.Type)
}
