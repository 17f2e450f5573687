package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/health-companion/internal/application"
	"github.com/bryanwahyu/health-companion/internal/application/dashboard"
	"github.com/bryanwahyu/health-companion/internal/domain/chat"
	"github.com/bryanwahyu/health-companion/internal/domain/reports"
)

// blockingGateway holds AnalyzeReport until its context is cancelled.
type blockingGateway struct{}

func (blockingGateway) AnalyzeReport(ctx context.Context, _ reports.AnalysisRequest) (reports.ReportAnalysis, error) {
	<-ctx.Done()
	return reports.ReportAnalysis{}, ctx.Err()
}

func (blockingGateway) Recommend(context.Context, []string) ([]reports.Recommendation, error) {
	return nil, nil
}

func (blockingGateway) FindSchemes(context.Context, string) ([]reports.GovernmentScheme, error) {
	return nil, nil
}

func (blockingGateway) PredictRisks(context.Context, reports.ReportAnalysis) ([]reports.RiskPrediction, error) {
	return nil, nil
}

func (blockingGateway) AcceptsAttachment(string) bool { return true }

func (blockingGateway) ContinueChat(context.Context, []chat.Turn) (string, error) {
	return "ok", nil
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var _ application.Clock = (*manualClock)(nil)

func TestCreateGetEnd(t *testing.T) {
	s := NewService(blockingGateway{}, nil, nil, 0, 0)
	defer s.Close()

	sess := s.Create()
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, s.Count())

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, s.End(sess.ID))
	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, s.End(sess.ID), ErrSessionNotFound)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewService(blockingGateway{}, nil, nil, 0, 0)
	defer s.Close()

	a, b := s.Create(), s.Create()
	assert.NotEqual(t, a.ID, b.ID)

	a.Chat.Send(context.Background(), "hello")
	assert.Len(t, a.Chat.Transcript(), 3)
	assert.Len(t, b.Chat.Transcript(), 1)
}

func TestEndCancelsInFlightAnalysis(t *testing.T) {
	s := NewService(blockingGateway{}, nil, nil, 0, 0)
	defer s.Close()

	sess := s.Create()
	require.NoError(t, sess.Dashboard.SubmitAsync(sess.Context(), reports.TextRequest("report")))
	assert.Equal(t, dashboard.StateAnalyzing, sess.Dashboard.Snapshot().State)

	require.NoError(t, s.End(sess.ID))
	assert.Equal(t, dashboard.StateFailed, sess.Dashboard.Snapshot().State)
	assert.Error(t, sess.Context().Err())
}

func TestEndedSessionRejectsSubmits(t *testing.T) {
	s := NewService(blockingGateway{}, nil, nil, 0, 0)
	defer s.Close()

	sess := s.Create()
	require.NoError(t, s.End(sess.ID))

	err := sess.Dashboard.SubmitAsync(sess.Context(), reports.TextRequest("late"))
	assert.ErrorIs(t, err, dashboard.ErrClosed)
	assert.Equal(t, dashboard.StateIdle, sess.Dashboard.Snapshot().State)
}

func TestSweepEndsIdleSessions(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewService(blockingGateway{}, clock, nil, 10*time.Minute, 0)
	defer s.Close()

	idle := s.Create()
	clock.advance(6 * time.Minute)
	active := s.Create()
	clock.advance(5 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	_, err := s.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(active.ID)
	assert.NoError(t, err)
}

func TestGetRefreshesIdleTimer(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewService(blockingGateway{}, clock, nil, 10*time.Minute, 0)
	defer s.Close()

	sess := s.Create()
	clock.advance(9 * time.Minute)
	_, err := s.Get(sess.ID)
	require.NoError(t, err)
	clock.advance(9 * time.Minute)

	assert.Zero(t, s.Sweep())
	assert.Equal(t, 1, s.Count())
}
