package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/health-companion/internal/application"
	"github.com/bryanwahyu/health-companion/internal/application/dashboard"
	"github.com/bryanwahyu/health-companion/internal/application/sessions"
	domai "github.com/bryanwahyu/health-companion/internal/domain/ai"
	"github.com/bryanwahyu/health-companion/internal/domain/family"
	"github.com/bryanwahyu/health-companion/internal/middleware"
)

const defaultMaxUpload = 10 << 20

type Options struct {
	Sessions       *sessions.Service
	Family         family.Repository
	Clock          application.Clock
	Health         map[string]middleware.HealthChecker
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type Router struct {
	sessions  *sessions.Service
	family    family.Repository
	clock     application.Clock
	maxUpload int64
	log       *slog.Logger
}

func NewRouter(opts Options) http.Handler {
	r := &Router{
		sessions:  opts.Sessions,
		family:    opts.Family,
		clock:     opts.Clock,
		maxUpload: opts.MaxUploadBytes,
		log:       opts.Logger,
	}
	if r.maxUpload <= 0 {
		r.maxUpload = defaultMaxUpload
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.clock == nil {
		r.clock = application.SystemClock{}
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware(r.log))
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	if opts.RateLimiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler(map[string]func() int{
		"sessions_active": r.sessions.Count,
	}))

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/sessions", r.wrap(r.handleCreateSession))
		rt.Route("/sessions/{id}", func(st chi.Router) {
			st.Delete("/", r.wrap(r.handleEndSession))
			st.Post("/reports", r.wrap(r.handleSubmitReport))
			st.Get("/dashboard", r.wrap(r.handleDashboard))
			st.Delete("/dashboard", r.wrap(r.handleResetDashboard))
			st.Get("/chat", r.wrap(r.handleTranscript))
			st.Post("/chat", r.wrap(r.handleSendChat))
			st.Get("/chat/suggestions", r.wrap(r.handleSuggestions))
		})

		rt.Get("/family", r.wrap(r.handleFamilyList))
		rt.Get("/family/{memberID}", r.wrap(r.handleFamilyMember))
		rt.Get("/family/{memberID}/documents", r.wrap(r.handleDocuments))
		rt.Get("/family/{memberID}/appointments", r.wrap(r.handleAppointments))
		rt.Get("/emergency-profile", r.wrap(r.handleEmergencyProfile))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			case errors.Is(err, domai.ErrInvalidRequest):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, sessions.ErrSessionNotFound), errors.Is(err, dashboard.ErrClosed), errors.Is(err, family.ErrMemberNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, dashboard.ErrBusy):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, domai.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			default:
				r.log.Error("request failed", "request_id", chimw.GetReqID(req.Context()), "path", req.URL.Path, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// session resolves {id}; malformed ids are reported as unknown.
func (r *Router) session(req *http.Request) (*sessions.Session, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return nil, sessions.ErrSessionNotFound
	}
	return r.sessions.Get(id)
}

// POST /v1/sessions
func (r *Router) handleCreateSession(w http.ResponseWriter, req *http.Request) error {
	sess := r.sessions.Create()
	middleware.IncrementSessionsCreated()
	return writeJSON(w, http.StatusCreated, map[string]any{
		"id":        sess.ID,
		"createdAt": sess.CreatedAt.Format(time.RFC3339),
	})
}

// DELETE /v1/sessions/{id}
func (r *Router) handleEndSession(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return sessions.ErrSessionNotFound
	}
	if err := r.sessions.End(id); err != nil {
		return err
	}
	middleware.IncrementSessionsEnded()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/sessions/{id}/reports
// Body: multipart "file" (or "text"), or JSON {"text": "..."} / {"file": {"mimeType", "data"}}.
// Analysis runs in the background; poll the dashboard for the result.
func (r *Router) handleSubmitReport(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.session(req)
	if err != nil {
		return err
	}

	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	areq, err := r.readReport(req)
	if err != nil {
		return err
	}

	if err := sess.Dashboard.SubmitAsync(sess.Context(), areq); err != nil {
		if errors.Is(err, dashboard.ErrBusy) {
			middleware.IncrementReportsRejected()
		}
		return err
	}
	middleware.IncrementReports()

	return writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  dashboard.StateAnalyzing,
		"message": "report analysis started in background",
	})
}

// GET /v1/sessions/{id}/dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.session(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess.Dashboard.Snapshot())
}

// DELETE /v1/sessions/{id}/dashboard
func (r *Router) handleResetDashboard(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.session(req)
	if err != nil {
		return err
	}
	sess.Dashboard.Reset()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/sessions/{id}/chat
func (r *Router) handleTranscript(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.session(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"turns": sess.Chat.Transcript()})
}

// POST /v1/sessions/{id}/chat
// Body: {"message": "..."}; responds with the updated transcript
func (r *Router) handleSendChat(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.session(req)
	if err != nil {
		return err
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 64<<10)).Decode(&body); err != nil {
		return invalid("invalid JSON body: %v", err)
	}
	msg := middleware.SanitizeString(body.Message)
	if err := middleware.ValidateChatMessage(msg); err != nil {
		return invalid("%v", err)
	}

	if msg != "" {
		middleware.IncrementChatMessages()
	}
	sess.Chat.Send(sess.Context(), msg)

	return writeJSON(w, http.StatusOK, map[string]any{"turns": sess.Chat.Transcript()})
}

// GET /v1/sessions/{id}/chat/suggestions
func (r *Router) handleSuggestions(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.session(req)
	if err != nil {
		return err
	}
	var summary string
	if v := sess.Dashboard.Snapshot(); v.Analysis != nil {
		summary = v.Analysis.Summary
	}
	return writeJSON(w, http.StatusOK, map[string]any{"suggestions": sess.Chat.Suggestions(summary)})
}

// GET /v1/family
func (r *Router) handleFamilyList(w http.ResponseWriter, req *http.Request) error {
	list, err := r.family.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

func memberID(req *http.Request) (string, error) {
	id := chi.URLParam(req, "memberID")
	if err := middleware.ValidateMemberID(id); err != nil {
		return "", family.ErrMemberNotFound
	}
	return id, nil
}

// GET /v1/family/{memberID}
func (r *Router) handleFamilyMember(w http.ResponseWriter, req *http.Request) error {
	id, err := memberID(req)
	if err != nil {
		return err
	}
	m, err := r.family.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, m)
}

// GET /v1/family/{memberID}/documents?q=
func (r *Router) handleDocuments(w http.ResponseWriter, req *http.Request) error {
	id, err := memberID(req)
	if err != nil {
		return err
	}
	q := middleware.SanitizeString(req.URL.Query().Get("q"))
	docs, err := r.family.SearchDocuments(req.Context(), id, q)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// GET /v1/family/{memberID}/appointments
func (r *Router) handleAppointments(w http.ResponseWriter, req *http.Request) error {
	id, err := memberID(req)
	if err != nil {
		return err
	}
	apts, err := r.family.UpcomingAppointments(req.Context(), id, r.clock.Now())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"appointments": apts})
}

// GET /v1/emergency-profile
func (r *Router) handleEmergencyProfile(w http.ResponseWriter, req *http.Request) error {
	p, err := r.family.EmergencyProfile(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}
