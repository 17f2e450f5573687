package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/health-companion/internal/domain/ai"
	"github.com/bryanwahyu/health-companion/internal/domain/reports"
)

// State of the dashboard for one session.
type State string

const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

const (
	FailureMessage = "An error occurred while processing your report. Please try again."
	ReadyNotice    = "I've analyzed your report and potential health risks. Feel free to ask me any questions about it!"
)

// ErrBusy is returned when a report is submitted while another is still being analyzed.
var ErrBusy = errors.New("a report is already being analyzed")

// ErrClosed is returned by submits after Close.
var ErrClosed = errors.New("dashboard is closed")

// Section names a supplemental part of the dashboard.
type Section string

const (
	SectionRisks           Section = "risks"
	SectionRecommendations Section = "recommendations"
	SectionSchemes         Section = "schemes"
)

var warningText = map[Section]string{
	SectionRisks:           "Risk predictions are unavailable for this report.",
	SectionRecommendations: "Recommendations are unavailable for this report.",
	SectionSchemes:         "Government schemes are unavailable for this report.",
}

// Warning records a supplemental section that failed while the analysis succeeded.
type Warning struct {
	Section Section `json:"section"`
	Message string  `json:"message"`
}

// View is what the dashboard renders.
type View struct {
	State           State                      `json:"state"`
	Analysis        *reports.ReportAnalysis    `json:"analysis"`
	Risks           []reports.RiskPrediction   `json:"risks"`
	Recommendations []reports.Recommendation   `json:"recommendations"`
	Schemes         []reports.GovernmentScheme `json:"schemes"`
	Warnings        []Warning                  `json:"warnings"`
	Error           string                     `json:"error,omitempty"`
}

func emptyView(state State) View {
	return View{
		State:           state,
		Risks:           []reports.RiskPrediction{},
		Recommendations: []reports.Recommendation{},
		Schemes:         []reports.GovernmentScheme{},
		Warnings:        []Warning{},
	}
}

// Clone returns a deep copy.
func (v View) Clone() View {
	out := v
	if v.Analysis != nil {
		a := v.Analysis.Clone()
		out.Analysis = &a
	}
	out.Risks = make([]reports.RiskPrediction, len(v.Risks))
	for i, r := range v.Risks {
		out.Risks[i] = r.Clone()
	}
	out.Recommendations = append([]reports.Recommendation{}, v.Recommendations...)
	out.Schemes = make([]reports.GovernmentScheme, len(v.Schemes))
	for i, s := range v.Schemes {
		out.Schemes[i] = s.Clone()
	}
	out.Warnings = append([]Warning{}, v.Warnings...)
	return out
}

// Gateway is the part of the model gateway the dashboard drives.
type Gateway interface {
	AnalyzeReport(ctx context.Context, req reports.AnalysisRequest) (reports.ReportAnalysis, error)
	Recommend(ctx context.Context, concerns []string) ([]reports.Recommendation, error)
	FindSchemes(ctx context.Context, condition string) ([]reports.GovernmentScheme, error)
	PredictRisks(ctx context.Context, analysis reports.ReportAnalysis) ([]reports.RiskPrediction, error)
	AcceptsAttachment(mediaType string) bool
}

// Notifier receives a message once a report is ready.
type Notifier interface {
	Notify(text string)
}

// Service runs report submissions for one session.
type Service struct {
	gateway  Gateway
	notifier Notifier
	log      *slog.Logger

	mu   sync.Mutex
	view View
	// gen increments on every submit and reset; a run only commits while
	// its generation is current.
	gen    uint64
	closed bool

	wg sync.WaitGroup
}

func NewService(gateway Gateway, notifier Notifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{gateway: gateway, notifier: notifier, log: log, view: emptyView(StateIdle)}
}

// Submit analyzes a report and blocks until the dashboard is Ready or Failed.
func (s *Service) Submit(ctx context.Context, req reports.AnalysisRequest) error {
	gen, err := s.begin(req, false)
	if err != nil {
		return err
	}
	s.run(ctx, gen, req)
	return nil
}

// SubmitAsync enters Analyzing before returning and finishes in the background.
// Use Wait to join the background work.
func (s *Service) SubmitAsync(ctx context.Context, req reports.AnalysisRequest) error {
	gen, err := s.begin(req, true)
	if err != nil {
		return err
	}
	go func() {
		defer s.wg.Done()
		s.run(ctx, gen, req)
	}()
	return nil
}

// Reset clears the dashboard. Results of a run still in flight are discarded.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.view = emptyView(StateIdle)
}

// Snapshot returns a copy of the current view.
func (s *Service) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Clone()
}

// Wait blocks until every background submission has finished.
func (s *Service) Wait() { s.wg.Wait() }

// Close rejects further submits with ErrClosed and waits for background work.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

// begin moves the view to Analyzing. When async is set the background run is
// registered with wg under the same lock that Close takes.
func (s *Service) begin(req reports.AnalysisRequest, async bool) (uint64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	if req.File != nil && !s.gateway.AcceptsAttachment(req.File.MediaType) {
		return 0, fmt.Errorf("%w: %w: %s", ai.ErrInvalidRequest, ai.ErrUnsupportedAttachment, req.File.MediaType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if s.view.State == StateAnalyzing {
		return 0, ErrBusy
	}
	s.gen++
	s.view = emptyView(StateAnalyzing)
	if async {
		s.wg.Add(1)
	}
	return s.gen, nil
}

func (s *Service) run(ctx context.Context, gen uint64, req reports.AnalysisRequest) {
	analysis, err := s.gateway.AnalyzeReport(ctx, req)
	if err != nil {
		s.log.Error("report analysis failed", "error", err)
		s.commit(gen, func(v *View) {
			v.State = StateFailed
			v.Error = FailureMessage
		})
		return
	}

	var (
		risks                     []reports.RiskPrediction
		recs                      []reports.Recommendation
		schemes                   []reports.GovernmentScheme
		riskErr, recErr, schemErr error
	)

	// every supplemental call is joined before the view leaves Analyzing
	var g errgroup.Group
	g.Go(func() error {
		risks, riskErr = s.gateway.PredictRisks(ctx, analysis.Clone())
		return nil
	})
	if concern := mostConcerning(analysis); concern != "" {
		g.Go(func() error {
			recs, recErr = s.gateway.Recommend(ctx, []string{concern})
			return nil
		})
		g.Go(func() error {
			schemes, schemErr = s.gateway.FindSchemes(ctx, concern)
			return nil
		})
	}
	_ = g.Wait()

	var warnings []Warning
	for _, f := range []struct {
		section Section
		err     error
	}{
		{SectionRisks, riskErr},
		{SectionRecommendations, recErr},
		{SectionSchemes, schemErr},
	} {
		if f.err == nil {
			continue
		}
		s.log.Warn("supplemental call failed", "section", f.section, "error", f.err)
		warnings = append(warnings, Warning{Section: f.section, Message: warningText[f.section]})
	}

	ok := s.commit(gen, func(v *View) {
		v.State = StateReady
		v.Analysis = &analysis
		if riskErr == nil && risks != nil {
			v.Risks = risks
		}
		if recErr == nil && recs != nil {
			v.Recommendations = recs
		}
		if schemErr == nil && schemes != nil {
			v.Schemes = schemes
		}
		if warnings != nil {
			v.Warnings = warnings
		}
	})
	if ok && s.notifier != nil {
		s.notifier.Notify(ReadyNotice)
	}
}

// commit applies fn when gen is still current and reports whether it did.
func (s *Service) commit(gen uint64, fn func(v *View)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.Debug("discarding stale report result", "generation", gen)
		return false
	}
	fn(&s.view)
	return true
}

func mostConcerning(a reports.ReportAnalysis) string {
	if a.MostConcerning == nil {
		return ""
	}
	return strings.TrimSpace(*a.MostConcerning)
}
