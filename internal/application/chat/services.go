package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/bryanwahyu/health-companion/internal/application"
	domain "github.com/bryanwahyu/health-companion/internal/domain/chat"
)

const (
	Greeting = "Hello! I'm your AI Health Assistant. How can I help you today? You can ask me about your report, diet, or general health questions."
	Fallback = "I'm sorry, I encountered an error. Please try again."

	summaryPlaceholder = "[REPORT_SUMMARY]"
	summaryQuestion    = "Explain my report summary in simpler terms: " + summaryPlaceholder
)

var quickQuestions = []string{
	"Natural ways to improve Vitamin D?",
	"Benefits and side effects of Paracetamol?",
	"How to manage high cholesterol?",
}

// Gateway is the slice of the model gateway a conversation needs.
type Gateway interface {
	ContinueChat(ctx context.Context, history []domain.Turn) (string, error)
}

// Service holds one conversation. Sends are serialized; reads never block
// on a provider call.
type Service struct {
	gateway Gateway
	clock   application.Clock
	log     *slog.Logger

	sendMu sync.Mutex

	mu    sync.RWMutex
	turns []domain.Turn
}

func NewService(gateway Gateway, clock application.Clock, log *slog.Logger) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{gateway: gateway, clock: clock, log: log}
	s.append(domain.SenderAssistant, Greeting)
	return s
}

// Send appends the user's message and then the assistant's reply, or the
// fallback text when the gateway fails. Blank messages are ignored.
func (s *Service) Send(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	history := s.appendUser(text)
	reply, err := s.gateway.ContinueChat(ctx, history)
	if err != nil {
		s.log.Error("chat reply failed", "error", err)
		reply = Fallback
	}
	s.append(domain.SenderAssistant, reply)
}

// Notify appends an assistant message that did not come from the model.
func (s *Service) Notify(text string) {
	s.append(domain.SenderAssistant, text)
}

// Transcript returns a copy of the conversation so far.
func (s *Service) Transcript() []domain.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Suggestions returns quick questions, led by a summary question when a
// report summary is available.
func (s *Service) Suggestions(summary string) []string {
	out := make([]string, 0, len(quickQuestions)+1)
	if summary = strings.TrimSpace(summary); summary != "" {
		out = append(out, strings.Replace(summaryQuestion, summaryPlaceholder, summary, 1))
	}
	return append(out, quickQuestions...)
}

// appendUser adds the user's turn and returns the history ending with it.
func (s *Service) appendUser(text string) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, domain.Turn{Sender: domain.SenderUser, Text: text, At: s.clock.Now()})
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Service) append(sender domain.Sender, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, domain.Turn{Sender: sender, Text: text, At: s.clock.Now()})
}
