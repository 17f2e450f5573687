package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bryanwahyu/health-companion/internal/domain/ai"
	"github.com/bryanwahyu/health-companion/internal/domain/chat"
	"github.com/bryanwahyu/health-companion/internal/domain/reports"
	"github.com/bryanwahyu/health-companion/internal/infra/ai/prompt"
)

const defaultCallTimeout = 60 * time.Second

// Service is the model gateway. Every operation makes at most one provider
// call and returns typed results decoded from schema-checked JSON.
type Service struct {
	client  ai.Client
	timeout time.Duration
	log     *slog.Logger
}

func NewService(client ai.Client, timeout time.Duration, log *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{client: client, timeout: timeout, log: log}
}

// AnalyzeReport reads one report, relaying the attachment when there is one.
func (s *Service) AnalyzeReport(ctx context.Context, req reports.AnalysisRequest) (reports.ReportAnalysis, error) {
	var out reports.ReportAnalysis
	if err := req.Validate(); err != nil {
		return out, err
	}
	p, schema := prompt.ReportAnalysis(req)
	gen := ai.GenerateRequest{Prompt: p, Schema: schema}
	if req.File != nil {
		gen.Attachment = &ai.Attachment{MediaType: req.File.MediaType, Data: req.File.Data}
	}
	err := s.generate(ctx, "analyze_report", gen, &out)
	return out, err
}

// Recommend returns diet and lifestyle suggestions. Callers skip the call
// when there are no concerns.
func (s *Service) Recommend(ctx context.Context, concerns []string) ([]reports.Recommendation, error) {
	p, schema := prompt.Recommendations(concerns)
	var out []reports.Recommendation
	err := s.generate(ctx, "recommend", ai.GenerateRequest{Prompt: p, Schema: schema}, &out)
	return out, err
}

func (s *Service) FindSchemes(ctx context.Context, condition string) ([]reports.GovernmentScheme, error) {
	p, schema := prompt.Schemes(condition)
	var out []reports.GovernmentScheme
	err := s.generate(ctx, "find_schemes", ai.GenerateRequest{Prompt: p, Schema: schema}, &out)
	return out, err
}

func (s *Service) PredictRisks(ctx context.Context, analysis reports.ReportAnalysis) ([]reports.RiskPrediction, error) {
	p, schema := prompt.RiskPrediction(analysis)
	var out []reports.RiskPrediction
	err := s.generate(ctx, "predict_risks", ai.GenerateRequest{Prompt: p, Schema: schema}, &out)
	return out, err
}

// ContinueChat sends the last turn as the new message and replays the rest.
// The history must be non-empty and end with a user turn.
func (s *Service) ContinueChat(ctx context.Context, history []chat.Turn) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("%w: chat history is empty", ai.ErrInvalidRequest)
	}
	last := history[len(history)-1]
	if last.Sender != chat.SenderUser {
		return "", fmt.Errorf("%w: chat history must end with a user turn", ai.ErrInvalidRequest)
	}

	prior := make([]ai.Turn, 0, len(history)-1)
	for _, t := range history[:len(history)-1] {
		role := ai.RoleUser
		if t.Sender == chat.SenderAssistant {
			role = ai.RoleModel
		}
		prior = append(prior, ai.Turn{Role: role, Text: t.Text})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.client.Chat(ctx, ai.ChatRequest{
		SystemInstruction: prompt.ChatSystemInstruction(),
		History:           prior,
		Message:           last.Text,
	})
	if err != nil {
		return "", s.providerError("continue_chat", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: continue_chat: empty reply", ai.ErrProvider)
	}
	return reply, nil
}

// AcceptsAttachment reports whether the provider can relay a file of this
// media type.
func (s *Service) AcceptsAttachment(mediaType string) bool {
	return s.client.Accepts(mediaType)
}

// Ping checks that the provider is reachable.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx)
}

func (s *Service) generate(ctx context.Context, op string, req ai.GenerateRequest, out any) error {
	if req.Attachment != nil {
		if len(req.Attachment.Data) == 0 || req.Attachment.MediaType == "" {
			return fmt.Errorf("%w: attachment needs data and a media type", ai.ErrInvalidRequest)
		}
		if !s.client.Accepts(req.Attachment.MediaType) {
			return fmt.Errorf("%w: %s: %w: %s", ai.ErrInvalidRequest, op, ai.ErrUnsupportedAttachment, req.Attachment.MediaType)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.client.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, ai.ErrUnsupportedAttachment) {
			return fmt.Errorf("%w: %s: %w", ai.ErrInvalidRequest, op, err)
		}
		return s.providerError(op, err)
	}
	s.log.Debug("provider call finished", "op", op, "duration", time.Since(start))

	if err := decode(text, req.Schema, out); err != nil {
		s.log.Warn("provider reply rejected", "op", op, "error", err)
		return fmt.Errorf("%w: %s: %w", ai.ErrProvider, op, err)
	}
	return nil
}

func (s *Service) providerError(op string, err error) error {
	s.log.Error("provider call failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", ai.ErrProvider, op, err)
}

// decode checks text against schema before unmarshalling it into out.
func decode(text string, schema *ai.Schema, out any) error {
	body := stripFence(strings.TrimSpace(text))
	if body == "" {
		return errors.New("empty reply")
	}

	if schema != nil {
		dec := json.NewDecoder(strings.NewReader(body))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return fmt.Errorf("reply is not JSON: %w", err)
		}
		if dec.More() {
			return errors.New("reply has trailing data")
		}
		if err := schema.Validate(doc); err != nil {
			return err
		}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode reply: %w", err)
	}
	return nil
}

// stripFence removes a surrounding ```json ... ``` block.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
