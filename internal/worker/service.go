// Package worker provides the HTTP service of the talent assessment backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/dtp-id/talenta/internal/ai"
	"github.com/dtp-id/talenta/internal/assessment"
	"github.com/dtp-id/talenta/internal/auth"
	"github.com/dtp-id/talenta/internal/catalog"
	"github.com/dtp-id/talenta/internal/config"
	gormdb "github.com/dtp-id/talenta/internal/db/gorm"
	"github.com/dtp-id/talenta/internal/events"
	"github.com/dtp-id/talenta/internal/interview"
	"github.com/dtp-id/talenta/internal/metrics"
	"github.com/dtp-id/talenta/internal/worker/session"
	"github.com/dtp-id/talenta/internal/worker/sse"
)

// ObjectStore is the file storage used for avatars and certification proofs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// Deps are the collaborators a Service is built from.
type Deps struct {
	Config    *config.Config
	Store     *gormdb.Store
	AI        ai.Client
	Objects   ObjectStore
	Publisher events.Publisher // extra sink besides SSE, may be nil
	Catalog   *catalog.Catalog
	Metrics   *metrics.Recorder
	Now       func() time.Time
	Version   string
}

// Service wires the stores, domain services and HTTP routes together.
type Service struct {
	startTime      time.Time
	ctx            context.Context
	config         *config.Config
	store          *gormdb.Store
	users          *gormdb.UserStore
	profiles       *gormdb.ProfileStore
	transcripts    *gormdb.TranscriptStore
	assessmentDB   *gormdb.AssessmentStore
	auth           *auth.Service
	interviews     *interview.Orchestrator
	assessments    *assessment.Service
	ai             ai.Client
	objects        ObjectStore
	catalog        *catalog.Catalog
	sessionManager *session.Manager
	sseBroadcaster *sse.Broadcaster
	router         chi.Router
	server         *http.Server
	cancel         context.CancelFunc
	now            func() time.Time
	version        string
	ready          atomic.Bool
}

// NewService builds the service. It does not start listening.
func NewService(deps Deps) (*Service, error) {
	if deps.Config == nil || deps.Store == nil || deps.AI == nil {
		return nil, errors.New("config, store and ai client are required")
	}
	cat := deps.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	tokens, err := auth.NewTokens(deps.Config.JWTSecret, deps.Config.JWTAlgorithm, deps.Config.AccessTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	users := gormdb.NewUserStore(deps.Store)
	profiles := gormdb.NewProfileStore(deps.Store)
	transcripts := gormdb.NewTranscriptStore(deps.Store)
	assessmentDB := gormdb.NewAssessmentStore(deps.Store)

	sessionManager := session.NewManager(ctx)
	sseBroadcaster := sse.NewBroadcaster()
	sessionManager.SetOnSessionCreated(func(userID int64) {
		log.Debug().Int64("user_id", userID).Msg("Interview session activated")
	})
	sessionManager.SetOnSessionDeleted(func(userID int64) {
		log.Debug().Int64("user_id", userID).Msg("Interview session evicted")
	})

	client := ai.Instrument(deps.AI, deps.Metrics)

	svc := &Service{
		version:      deps.Version,
		config:       deps.Config,
		store:        deps.Store,
		users:        users,
		profiles:     profiles,
		transcripts:  transcripts,
		assessmentDB: assessmentDB,
		auth:         auth.NewService(users, tokens),
		interviews: interview.NewOrchestrator(interview.Config{
			Store:    transcripts,
			Profiles: profiles,
			Statuses: assessmentDB,
			AI:       client,
			Locker:   sessionManager,
			Notifier: events.Fanout{sseBroadcaster, deps.Publisher},
			Metrics:  deps.Metrics,
			Now:      now,
			MaxTurns: deps.Config.InterviewMaxTurns,
		}),
		assessments:    assessment.NewService(assessmentDB, client, float64(deps.Config.PassThreshold)),
		ai:             client,
		objects:        deps.Objects,
		catalog:        cat,
		sessionManager: sessionManager,
		sseBroadcaster: sseBroadcaster,
		router:         chi.NewRouter(),
		ctx:            ctx,
		cancel:         cancel,
		now:            now,
		startTime:      now(),
	}
	svc.setupRoutes()
	return svc, nil
}

// Handler returns the root HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.router
}

// SetReady marks the service as able to serve API requests.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Service) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ready", s.handleReady)
	r.Get("/api/version", s.handleVersion)
	r.Get("/static/*", s.serveStatic)

	r.Group(func(r chi.Router) {
		r.Use(s.requireReady)

		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", s.handleGetProfile)
				r.Put("/", s.handleUpdateProfile)
				r.Get("/constants", s.handleConstants)
				r.Get("/completeness", s.handleCompleteness)
				r.Post("/education", s.handleAddEducation)
				r.Delete("/education/{id}", s.handleDeleteEducation)
				r.Post("/certification", s.handleAddCertification)
				r.Delete("/certification/{id}", s.handleDeleteCertification)
				r.Post("/experience", s.handleAddExperience)
				r.Delete("/experience/{id}", s.handleDeleteExperience)
				r.Post("/avatar", s.handleUploadAvatar)
				r.Delete("/avatar", s.handleDeleteAvatar)
			})

			r.Route("/ai", func(r chi.Router) {
				r.Post("/interview/start", s.handleInterviewStart)
				r.Post("/interview", s.handleInterviewContinue)
				r.Get("/history", s.handleHistory)
				r.Get("/events", s.handleEvents)
				r.Post("/mapping", s.handleMapping)
				r.Post("/questions", s.handleQuestions)
			})

			r.Route("/assessment", func(r chi.Router) {
				r.Post("/submit", s.handleSubmitAssessment)
				r.Get("/status", s.handleAssessmentStatus)
			})
		})
	})
}

// Start listens on the configured address until ctx is cancelled or Shutdown is called.
func (s *Service) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
	}
	s.ready.Store(true)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Str("version", s.version).Msg("HTTP server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops accepting requests, closes event streams and waits for in-flight turns.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	s.sseBroadcaster.Broadcast(map[string]string{"type": "shutdown"})
	s.cancel()

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.sessionManager.ShutdownAll(ctx)
	log.Info().Msg("HTTP server stopped")
	return err
}

func (s *Service) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "Service is starting"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "DTP Backend Modular is Ready!"})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.store.Ping(); err != nil {
		log.Warn().Err(err).Msg("Health check: database unreachable")
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":          status,
		"uptime":          time.Since(s.startTime).Round(time.Second).String(),
		"active_sessions": s.sessionManager.GetActiveSessionCount(),
		"processing":      s.sessionManager.IsAnySessionProcessing(),
		"sse_clients":     s.sseBroadcaster.ClientCount(),
	})
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func (s *Service) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if r.URL.Path == "/api/health" {
			return
		}
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
