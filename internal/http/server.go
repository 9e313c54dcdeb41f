// Package http serves the dashboard page, the chart API and rendered images.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"cardstats/internal/dashboard"
	applog "cardstats/internal/log"
	"cardstats/internal/middleware/ratelimit"
	"cardstats/internal/middleware/security"
	"cardstats/internal/middleware/trace"
	"cardstats/internal/source"
	appweb "cardstats/web"
)

// ChartJSURL is the Chart.js bundle loaded by the page
const ChartJSURL = security.ChartJSOrigin + "/npm/chart.js@4.4.1/dist/chart.umd.min.js"

// Options tunes the server beyond its required collaborators
type Options struct {
	Logger             *applog.Logger
	RateLimitPerMinute int
	TrustedProxies     []string
	ReadyTimeout       time.Duration
}

type Server struct {
	http.Server
	templates *template.Template
	ctrl      *dashboard.Controller
	ready     source.IndexReader
	logger    *applog.Logger

	resolver     *security.Resolver
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	readyTimeout time.Duration
	started      time.Time
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. ready is probed by /readyz.
func NewServer(addr string, ctrl *dashboard.Controller, ready source.IndexReader, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 5 * time.Second
	}

	resolver := security.NewResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := resolver.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err.Error())
		}
	}

	s := &Server{
		ctrl:         ctrl,
		ready:        ready,
		logger:       logger,
		resolver:     resolver,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:       trace.NewMiddleware(logger, resolver.ClientIP),
		readyTimeout: opts.ReadyTimeout,
		started:      time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err.Error())
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err.Error())
	}

	limited := s.limiter.Middleware(s.resolver.ClientIP, s.handleRateLimited)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /api/charts", security.NoStore(limited(http.HandlerFunc(s.handleCharts))))
	mux.Handle("GET /charts/{file}", security.NoStore(http.HandlerFunc(s.handleChartPNG)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(s.flagSuspicious(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

// flagSuspicious logs probing requests; routing still decides the response.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.resolver.Suspicious(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request", applog.FieldClientIP, s.resolver.ClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded", applog.FieldClientIP, s.resolver.ClientIP(r))
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
}
