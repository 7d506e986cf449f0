package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/cors"

	"freelancedesk/internal/auth"
	"freelancedesk/internal/cache"
	"freelancedesk/internal/invoice"
	"freelancedesk/internal/log"
	"freelancedesk/internal/middleware/ratelimit"
	"freelancedesk/internal/middleware/security"
	"freelancedesk/internal/middleware/trace"
	"freelancedesk/internal/services"
)

// Options configures NewServer.
type Options struct {
	Addr           string
	Tokens         *auth.Tokens
	Logger         *log.Logger
	AllowedOrigins []string
	// RateLimit is the number of writes per minute allowed per client IP.
	RateLimit    int
	DefaultTheme string
	// DashboardCache is only read for metrics; may be nil.
	DashboardCache cache.Cache[services.DashboardSnapshot]
	TrustedProxies []string
}

type Server struct {
	http.Server
	svc              *services.Services
	logger           *log.Logger
	auth             *auth.Middleware
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	dashboardCache   cache.Cache[services.DashboardSnapshot]
	defaultTheme     string
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer wires routes and the middleware chain over svc.
func NewServer(svc *services.Services, opts Options) (*Server, error) {
	if svc == nil {
		return nil, errors.New("services are required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("token verifier is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Component: log.ComponentHTTP})
	}
	if opts.DefaultTheme == "" {
		opts.DefaultTheme = invoice.DefaultTemplate
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector(opts.Logger)
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:              svc,
		logger:           logger,
		auth:             auth.NewMiddleware(opts.Tokens, svc.Profiles, opts.Logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(opts.Logger, detector.ExtractClientIP),
		dashboardCache:   opts.DashboardCache,
		defaultTheme:     opts.DefaultTheme,
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.Handler = s.middleware(s.routes(), opts.AllowedOrigins)
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	api := http.NewServeMux()

	api.HandleFunc("GET /api/clients", s.handleListClients)
	api.HandleFunc("POST /api/clients", s.handleCreateClient)
	api.HandleFunc("GET /api/clients/{id}", s.handleGetClient)
	api.HandleFunc("PUT /api/clients/{id}", s.handleUpdateClient)
	api.HandleFunc("DELETE /api/clients/{id}", s.handleDeleteClient)

	api.HandleFunc("GET /api/projects", s.handleListProjects)
	api.HandleFunc("POST /api/projects", s.handleCreateProject)
	api.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	api.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	api.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	api.HandleFunc("GET /api/projects/{id}/payments", s.handleProjectPayments)
	api.HandleFunc("GET /api/projects/{id}/invoice", s.handleProjectInvoice)
	api.HandleFunc("POST /api/projects/{id}/reminder/dismiss", s.handleDismissReminder)
	api.HandleFunc("GET /api/reminders", s.handleReminders)
	api.HandleFunc("GET /api/invoice-templates", s.handleInvoiceTemplates)

	api.HandleFunc("GET /api/payments", s.handleListPayments)
	api.HandleFunc("POST /api/payments", s.handleCreatePayment)
	api.HandleFunc("DELETE /api/payments/{id}", s.handleDeletePayment)

	api.HandleFunc("GET /api/team-members", s.handleListTeamMembers)
	api.HandleFunc("POST /api/team-members", s.handleCreateTeamMember)
	api.HandleFunc("PUT /api/team-members/{id}", s.handleUpdateTeamMember)
	api.HandleFunc("DELETE /api/team-members/{id}", s.handleDeleteTeamMember)
	api.HandleFunc("GET /api/team-payments", s.handleListTeamPayments)
	api.HandleFunc("POST /api/team-payments", s.handleCreateTeamPayment)
	api.HandleFunc("PUT /api/team-payments/{id}", s.handleUpdateTeamPayment)
	api.HandleFunc("DELETE /api/team-payments/{id}", s.handleDeleteTeamPayment)

	api.HandleFunc("GET /api/investments", s.handleListInvestments)
	api.HandleFunc("POST /api/investments", s.handleCreateInvestment)
	api.HandleFunc("PUT /api/investments/{id}", s.handleUpdateInvestment)
	api.HandleFunc("DELETE /api/investments/{id}", s.handleDeleteInvestment)

	api.HandleFunc("GET /api/profile", s.handleGetProfile)
	api.HandleFunc("PUT /api/profile", s.handleUpdateProfile)
	api.HandleFunc("GET /api/profile/avatar", s.handleAvatar)

	api.HandleFunc("GET /api/dashboard", s.handleDashboard)
	api.HandleFunc("GET /api/export/{file}", s.handleExport)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("/api/", security.NoStore(s.auth.Handler(api)))
	return mux
}

// middleware wraps next, outermost first: trace, security headers and
// detection, CORS, write rate limiting.
func (s *Server) middleware(next http.Handler, allowedOrigins []string) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.WritesOnly,
		func(w http.ResponseWriter, r *http.Request) {
			writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
		})(next)

	withCORS := cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(allowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           300,
	})(limited)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	return s.traceMiddleware.Middleware(headers.Middleware(s.securityDetector.Middleware(withCORS)))
}

func corsOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Shutdown stops accepting requests, then stops background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
		s.rateLimiter.Stop()
	})
	return shutdownErr
}
