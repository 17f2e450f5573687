package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/health-companion/internal/domain/ai"
	"github.com/bryanwahyu/health-companion/internal/domain/chat"
	"github.com/bryanwahyu/health-companion/internal/domain/reports"
)

type fakeClient struct {
	mu        sync.Mutex
	reply     string
	err       error
	generates []ai.GenerateRequest
	chats     []ai.ChatRequest

	// imagesOnly makes Accepts reject anything but images
	imagesOnly bool
}

func (f *fakeClient) Generate(_ context.Context, req ai.GenerateRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generates = append(f.generates, req)
	return f.reply, f.err
}

func (f *fakeClient) Chat(_ context.Context, req ai.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, req)
	return f.reply, f.err
}

func (f *fakeClient) Ping(context.Context) error { return f.err }

func (f *fakeClient) Accepts(mediaType string) bool {
	return !f.imagesOnly || strings.HasPrefix(mediaType, "image/")
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.generates) + len(f.chats)
}

const analysisJSON = `{
  "reportType": "Blood Test",
  "summary": "Mild anemia.",
  "parameters": [
    {"name": "Hemoglobin", "value": "10.2", "unit": "g/dL", "status": "Low", "referenceRange": "13-17"}
  ],
  "timelineTrend": "No past data available.",
  "mostImproving": null,
  "mostConcerning": "Low Hemoglobin"
}`

func newService(c ai.Client) *Service {
	return NewService(c, time.Second, nil)
}

func TestAnalyzeReportRejectsEmptyRequestWithoutCalling(t *testing.T) {
	c := &fakeClient{reply: analysisJSON}
	_, err := newService(c).AnalyzeReport(context.Background(), reports.AnalysisRequest{})
	assert.ErrorIs(t, err, ai.ErrInvalidRequest)
	assert.Zero(t, c.calls())
}

func TestAnalyzeReportDecodesText(t *testing.T) {
	c := &fakeClient{reply: analysisJSON}
	got, err := newService(c).AnalyzeReport(context.Background(), reports.TextRequest("Hb 10.2"))
	require.NoError(t, err)

	assert.Equal(t, "Blood Test", got.ReportType)
	require.Len(t, got.Parameters, 1)
	assert.Equal(t, reports.StatusLow, got.Parameters[0].Status)
	assert.Nil(t, got.MostImproving)
	require.NotNil(t, got.MostConcerning)
	assert.Equal(t, "Low Hemoglobin", *got.MostConcerning)

	require.Len(t, c.generates, 1)
	assert.Nil(t, c.generates[0].Attachment)
	assert.NotNil(t, c.generates[0].Schema)
}

func TestAnalyzeReportRelaysAttachment(t *testing.T) {
	c := &fakeClient{reply: analysisJSON}
	_, err := newService(c).AnalyzeReport(context.Background(), reports.FileRequest("image/png", []byte{0x89, 'P', 'N', 'G'}))
	require.NoError(t, err)

	require.Len(t, c.generates, 1)
	require.NotNil(t, c.generates[0].Attachment)
	assert.Equal(t, "image/png", c.generates[0].Attachment.MediaType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, c.generates[0].Attachment.Data)
}

func TestAnalyzeReportStripsCodeFence(t *testing.T) {
	c := &fakeClient{reply: "```json\n" + analysisJSON + "\n```"}
	got, err := newService(c).AnalyzeReport(context.Background(), reports.TextRequest("Hb"))
	require.NoError(t, err)
	assert.Equal(t, "Mild anemia.", got.Summary)
}

func TestAnalyzeReportProviderFailures(t *testing.T) {
	cases := map[string]*fakeClient{
		"transport error": {err: errors.New("connection reset")},
		"empty text":      {reply: "   "},
		"not json":        {reply: "Here is your analysis"},
		"missing field":   {reply: `{"reportType":"x","summary":"y","parameters":[],"timelineTrend":"z","mostImproving":null}`},
		"unknown field":   {reply: `{"reportType":"x","summary":"y","parameters":[],"timelineTrend":"z","mostImproving":null,"mostConcerning":null,"extra":1}`},
		"bad enum":        {reply: `{"reportType":"x","summary":"y","parameters":[{"name":"a","value":"1","unit":"u","status":"Fine","referenceRange":"r"}],"timelineTrend":"z","mostImproving":null,"mostConcerning":null}`},
		"null required":   {reply: `{"reportType":null,"summary":"y","parameters":[],"timelineTrend":"z","mostImproving":null,"mostConcerning":null}`},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newService(c).AnalyzeReport(context.Background(), reports.TextRequest("Hb"))
			assert.ErrorIs(t, err, ai.ErrProvider)
			assert.Equal(t, 1, c.calls())
		})
	}
}

func TestUnsupportedAttachmentIsInvalidRequest(t *testing.T) {
	c := &fakeClient{err: fmt.Errorf("%w: application/pdf", ai.ErrUnsupportedAttachment)}
	_, err := newService(c).AnalyzeReport(context.Background(), reports.FileRequest("application/pdf", []byte("%PDF")))
	assert.ErrorIs(t, err, ai.ErrInvalidRequest)
	assert.NotErrorIs(t, err, ai.ErrProvider)
}

func TestRefusedAttachmentFailsBeforeCalling(t *testing.T) {
	c := &fakeClient{reply: analysisJSON, imagesOnly: true}
	svc := newService(c)

	assert.False(t, svc.AcceptsAttachment("application/pdf"))
	assert.True(t, svc.AcceptsAttachment("image/png"))

	_, err := svc.AnalyzeReport(context.Background(), reports.FileRequest("application/pdf", []byte("%PDF")))
	assert.ErrorIs(t, err, ai.ErrInvalidRequest)
	assert.ErrorIs(t, err, ai.ErrUnsupportedAttachment)
	assert.Zero(t, c.calls())
}

func TestQuotaErrorKeepsSentinel(t *testing.T) {
	c := &fakeClient{err: fmt.Errorf("%w: 429", ai.ErrQuotaExceeded)}
	_, err := newService(c).PredictRisks(context.Background(), reports.ReportAnalysis{})
	assert.ErrorIs(t, err, ai.ErrProvider)
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestListOperationsDecode(t *testing.T) {
	ctx := context.Background()

	recs, err := newService(&fakeClient{reply: `[{"title":"Boost Your Iron","category":"Diet","suggestion":"Eat spinach.","reasoning":"Iron."}]`}).
		Recommend(ctx, []string{"Low Hemoglobin"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, reports.CategoryDiet, recs[0].Category)

	schemes, err := newService(&fakeClient{reply: `[{"name":"PM-JAY","description":"d","eligibility":["a"],"benefits":["b"],"applicationLink":"https://pmjay.gov.in"}]`}).
		FindSchemes(ctx, "Low Hemoglobin")
	require.NoError(t, err)
	require.Len(t, schemes, 1)
	assert.Equal(t, []string{"b"}, schemes[0].Benefits)

	risks, err := newService(&fakeClient{reply: `[]`}).PredictRisks(ctx, reports.ReportAnalysis{})
	require.NoError(t, err)
	assert.Empty(t, risks)

	_, err = newService(&fakeClient{reply: `{"items":[]}`}).PredictRisks(ctx, reports.ReportAnalysis{})
	assert.ErrorIs(t, err, ai.ErrProvider)
}

func TestPredictRisksEmbedsDigest(t *testing.T) {
	c := &fakeClient{reply: `[]`}
	concern := "Low Hemoglobin"
	_, err := newService(c).PredictRisks(context.Background(), reports.ReportAnalysis{
		Summary:        "Mild anemia.",
		MostConcerning: &concern,
		Parameters:     []reports.HealthParameter{{Name: "Hemoglobin", Value: "10.2", Unit: "g/dL", Status: reports.StatusLow}},
	})
	require.NoError(t, err)
	require.Len(t, c.generates, 1)
	assert.Contains(t, c.generates[0].Prompt, "Hemoglobin: 10.2 g/dL (Low)")
}

func TestContinueChatPreconditions(t *testing.T) {
	cases := map[string][]chat.Turn{
		"empty":            nil,
		"ends with answer": {{Sender: chat.SenderUser, Text: "hi"}, {Sender: chat.SenderAssistant, Text: "hello"}},
	}
	for name, history := range cases {
		t.Run(name, func(t *testing.T) {
			c := &fakeClient{reply: "ok"}
			_, err := newService(c).ContinueChat(context.Background(), history)
			assert.ErrorIs(t, err, ai.ErrInvalidRequest)
			assert.Zero(t, c.calls())
		})
	}
}

func TestContinueChatReplaysHistory(t *testing.T) {
	c := &fakeClient{reply: "  Drink water.  "}
	history := []chat.Turn{
		{Sender: chat.SenderAssistant, Text: "Hello!"},
		{Sender: chat.SenderUser, Text: "I feel tired"},
		{Sender: chat.SenderAssistant, Text: "Sleep more."},
		{Sender: chat.SenderUser, Text: "Anything else?"},
	}
	reply, err := newService(c).ContinueChat(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "Drink water.", reply)

	require.Len(t, c.chats, 1)
	req := c.chats[0]
	assert.Equal(t, "Anything else?", req.Message)
	assert.Equal(t, []ai.Turn{
		{Role: ai.RoleModel, Text: "Hello!"},
		{Role: ai.RoleUser, Text: "I feel tired"},
		{Role: ai.RoleModel, Text: "Sleep more."},
	}, req.History)
	assert.Contains(t, req.SystemInstruction, "never provide a medical diagnosis")
}

func TestContinueChatEmptyReplyIsProviderError(t *testing.T) {
	c := &fakeClient{reply: ""}
	_, err := newService(c).ContinueChat(context.Background(), []chat.Turn{{Sender: chat.SenderUser, Text: "hi"}})
	assert.ErrorIs(t, err, ai.ErrProvider)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `[1]`, stripFence("```\n[1]\n```"))
	assert.Equal(t, `{"a":1}`, stripFence(`{"a":1}`))
}
