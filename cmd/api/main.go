package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/printdesk/backend-print/internal/app"
	"github.com/printdesk/backend-print/internal/checkout"
	"github.com/printdesk/backend-print/internal/common"
	"github.com/printdesk/backend-print/internal/config"
	"github.com/printdesk/backend-print/internal/document"
	"github.com/printdesk/backend-print/internal/events"
	"github.com/printdesk/backend-print/internal/health"
	"github.com/printdesk/backend-print/internal/obs"
	"github.com/printdesk/backend-print/internal/order"
	"github.com/printdesk/backend-print/internal/payment"
	"github.com/printdesk/backend-print/internal/ratelimit"
	"github.com/printdesk/backend-print/internal/session"
	"github.com/printdesk/backend-print/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "printdesk")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "printdesk-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	deps := app.NewDependencies(context.Background())

	bus := &events.Bus{
		Store:     events.NewMemoryLog(cfg.EventLogCapacity),
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}

	sessions := session.NewStore(cfg.SessionTTL, cfg.Policy(), deps.Validator, bus)
	sessions.StartJanitor(deps.Context, cfg.JanitorInterval)
	sessionHandler := &session.Handler{Store: sessions}

	uploadSvc := &upload.Service{
		Counters:    upload.DefaultCounters(),
		Concurrency: cfg.UploadConcurrency,
		MaxFiles:    cfg.UploadMaxFiles,
		MaxFileSize: cfg.UploadMaxFileSize,
		Events:      bus,
	}
	uploadHandler := &upload.Handler{Svc: uploadSvc, Resolver: sessions}

	documentHandler := &document.Handler{Resolver: sessions, Events: bus}
	orderHandler := &order.Handler{Resolver: sessions, Currency: cfg.CurrencyCode}
	checkoutHandler := &checkout.Handler{Resolver: sessions}

	paymentSvc := &payment.Service{
		Providers: map[string]payment.Provider{
			payment.MethodUPI:  payment.UPI{VPA: cfg.PaymentUPIVPA, PayeeName: cfg.PaymentUPIPayee},
			payment.MethodCash: payment.Cash{},
		},
	}
	paymentHandler := &payment.Handler{Svc: paymentSvc, Resolver: sessions}

	uploadLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Store: deps.LimiterStore, Prefix: "upload:"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) },
			Window: cfg.UploadRateWindow,
			Max:    cfg.UploadRateMax,
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", session.HeaderSessionID},
		ExposedHeaders:   []string{session.HeaderSessionID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", true)
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{Checker: sessions, StartedAt: time.Now()}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Post("/sessions", sessionHandler.Create)

		v.Group(func(s chi.Router) {
			s.Use(sessions.Middleware)
			s.With(uploadLimit.Middleware).Post("/documents", uploadHandler.Upload)
			s.Get("/documents", documentHandler.List)
			s.Patch("/documents/{id}/options", documentHandler.UpdateOptions)
			s.Delete("/documents/{id}", documentHandler.Remove)

			s.Get("/order", orderHandler.Get)
			s.Post("/checkout", checkoutHandler.Checkout)

			s.Route("/payments", func(p chi.Router) {
				p.Post("/intent", paymentHandler.Intent)
				p.Post("/{handleId}/confirm", paymentHandler.Confirm)
				p.Post("/{handleId}/cancel", paymentHandler.Cancel)
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
