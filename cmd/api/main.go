package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	ulimiter "github.com/ulule/limiter/v3"
	limitermw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/noah-isme/backend-resto/internal/address"
	"github.com/noah-isme/backend-resto/internal/analytics"
	"github.com/noah-isme/backend-resto/internal/app"
	"github.com/noah-isme/backend-resto/internal/audit"
	"github.com/noah-isme/backend-resto/internal/auth"
	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/catalog"
	"github.com/noah-isme/backend-resto/internal/checkout"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/config"
	"github.com/noah-isme/backend-resto/internal/coupon"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/favorites"
	"github.com/noah-isme/backend-resto/internal/health"
	"github.com/noah-isme/backend-resto/internal/lock"
	"github.com/noah-isme/backend-resto/internal/notify"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/ratelimit"
	"github.com/noah-isme/backend-resto/internal/reviews"
	"github.com/noah-isme/backend-resto/internal/security"
	"github.com/noah-isme/backend-resto/internal/store"
	"github.com/noah-isme/backend-resto/internal/tenant"
	"github.com/noah-isme/backend-resto/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "resto")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "resto-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	deps, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	if err := redisotel.InstrumentTracing(deps.Redis); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(deps.Redis); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}

	queries := store.New(deps.DB)
	policy := pricing.FeePolicy{
		DeliveryFee:        pricing.Money(cfg.DeliveryFee),
		ProcessingRateBPS:  cfg.ProcessingFeeBps,
		ProcessingFixedFee: pricing.Money(cfg.ProcessingFeeFixed),
		PlatformFee:        pricing.Money(cfg.PlatformFee),
	}

	resolver := tenant.NewResolver(cfg.TenantHeader, cfg.TenantRootDomain, cfg.DefaultRestaurant)

	authService, err := auth.NewService(auth.Config{
		Queries:         queries,
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Issuer:          cfg.JWTIssuer,
		Audience:        cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{
		Svc:          authService,
		Validate:     deps.Validator,
		CookieDomain: cfg.CookieDomain,
		Secure:       cfg.CookieSecure,
	}
	authMiddleware := &auth.Middleware{Svc: authService, Q: queries}

	catalogService := catalog.NewService(catalog.ServiceConfig{
		Queries: queries,
		Cache:   catalog.NewCache(deps.Redis, cfg.MenuCacheTTL),
	})
	catalogHandler := &catalog.Handler{Service: catalogService, Validate: deps.Validator}

	couponSvc := &coupon.Service{Q: queries}
	couponHandler := &coupon.Handler{Q: queries, Svc: couponSvc, Validate: deps.Validator}

	cartSvc := &cart.Service{Q: queries, Coupons: couponSvc, Policy: policy, TTL: cfg.CartTTL}
	cartHandler := &cart.Handler{Svc: cartSvc, Q: queries, Validate: deps.Validator}

	bus := &events.Bus{
		Store: queries,
		Scheduler: &notify.Scheduler{
			Client: deps.TaskClient,
			Queue:  cfg.NotifyQueue,
		},
	}

	checkoutSvc := &checkout.Service{
		Q:        queries,
		Pool:     deps.DB,
		Policy:   policy,
		Currency: cfg.Currency,
		Events:   bus,
		Locker:   &lock.Locker{R: deps.Redis},
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Validate: deps.Validator}

	orderHandler := &order.Handler{Q: queries, Events: bus}
	orderAdmin := &order.AdminHandler{Q: queries, Events: bus}

	favoritesHandler := &favorites.Handler{Svc: &favorites.Service{Q: queries}}
	reviewsHandler := &reviews.Handler{Svc: &reviews.Service{Q: queries}}
	addressHandler := &address.Handler{Svc: &address.Service{Q: queries}}
	profileHandler := &user.Handler{Svc: &user.Service{Q: queries}}

	analyticsHandler := &analytics.Handler{Svc: &analytics.Service{
		Q:   queries,
		R:   deps.Redis,
		TTL: envDurationMillis("ANALYTICS_CACHE_TTL_MS", 60000),
	}}

	auditSvc := &audit.Service{
		Q:       queries,
		Logger:  logger,
		Enabled: envBool("AUDIT_ENABLED", true),
	}
	auditHandler := &audit.Handler{Svc: auditSvc}

	loginLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: deps.Redis, Prefix: "rl:auth:"},
		Config: ratelimit.Config{
			Key:    common.ClientIP,
			Window: time.Minute,
			Max:    envInt("RATE_LIMIT_AUTH_PER_MINUTE", 20),
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	// Coarse per-IP ceiling across the whole API; the auth routes keep
	// their own tighter window below.
	globalRate := ulimiter.New(deps.LimiterStore, ulimiter.Rate{
		Period: time.Minute,
		Limit:  envInt64("RATE_LIMIT_GLOBAL_PER_MINUTE", 600),
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(limitermw.NewMiddleware(globalRate).Handler)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: envInt64("SECURE_MAX_BODY_BYTES", 1<<20)}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", cfg.TenantHeader},
		ExposedHeaders:   []string{"Link", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(resolver.Middleware)
	r.Use(authMiddleware.Authenticate)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		u := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		p := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), u, p))
	}

	healthHandler := health.Handler{
		Checker:      deps,
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/restaurants", catalogHandler.Restaurants)
		v.Get("/restaurants/{slug}", catalogHandler.Restaurant)
		v.Get("/restaurants/{slug}/branches", catalogHandler.Branches)
		v.Get("/menu", catalogHandler.Menu)
		v.Get("/menu/{itemID}", catalogHandler.MenuItem)
		v.Get("/menu/{menuItemID}/reviews", reviewsHandler.List)

		v.Route("/auth", func(a chi.Router) {
			a.Use(loginLimiter.Middleware)
			a.Post("/register", authHandler.Register)
			a.Post("/login", authHandler.Login)
			// Refresh and logout accept the session cookie, so the
			// cookie path needs double-submit protection.
			csrf := security.CSRF{Header: "X-CSRF-Token"}
			a.With(csrf.Middleware).Post("/refresh", authHandler.Refresh)
			a.With(csrf.Middleware).Post("/logout", authHandler.Logout)
			a.With(auth.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/carts", func(c chi.Router) {
			c.Post("/", cartHandler.Ensure)
			c.Route("/{cartID}", func(cr chi.Router) {
				cr.Get("/", cartHandler.Get)
				cr.Get("/quote", cartHandler.Quote)
				cr.Post("/items", cartHandler.AddItem)
				cr.Patch("/items/{itemID}", cartHandler.UpdateItem)
				cr.Delete("/items/{itemID}", cartHandler.RemoveItem)
				cr.Patch("/fulfillment", cartHandler.SetFulfillment)
				cr.Post("/coupon", cartHandler.ApplyCoupon)
				cr.Delete("/coupon", cartHandler.RemoveCoupon)
			})
		})

		v.Post("/coupons/preview", couponHandler.Preview)

		v.Group(func(authed chi.Router) {
			authed.Use(auth.RequireAuth)
			authed.With(common.Idem{R: deps.Redis, TTL: 24 * time.Hour}.Middleware).
				Post("/checkout", checkoutHandler.Checkout)
			authed.Get("/orders", orderHandler.List)
			authed.Get("/orders/{orderID}", orderHandler.Get)
			authed.Get("/orders/{orderID}/track", orderHandler.Track)
			authed.Post("/orders/{orderID}/cancel", orderHandler.Cancel)

			authed.Get("/favorites", favoritesHandler.List)
			authed.Post("/favorites/toggle", favoritesHandler.Toggle)
			authed.Post("/menu/{menuItemID}/reviews", reviewsHandler.Submit)
			authed.Delete("/menu/{menuItemID}/reviews", reviewsHandler.Delete)

			authed.Get("/addresses", addressHandler.List)
			authed.Post("/addresses", addressHandler.Create)
			authed.Put("/addresses/{addressID}", addressHandler.Update)
			authed.Delete("/addresses/{addressID}", addressHandler.Delete)

			authed.Patch("/users/me", profileHandler.UpdateName)
			authed.Post("/users/me/password", profileHandler.ChangePassword)
		})

		v.Route("/admin/restaurants/{restaurantID}", func(admin chi.Router) {
			admin.Use(auth.RequireAuth)
			admin.Use(auth.RequireRole(store.RoleSuperAdmin, store.RoleRestaurantAdmin, store.RoleBranchManager))

			admin.Group(func(menu chi.Router) {
				menu.Use(auditSvc.Middleware("menu"))
				menu.Post("/menu", catalogHandler.CreateItem)
				menu.Put("/menu/{itemID}", catalogHandler.UpdateItem)
				menu.Delete("/menu/{itemID}", catalogHandler.DeleteItem)
			})

			admin.Group(func(coupons chi.Router) {
				coupons.Use(auditSvc.Middleware("coupons"))
				coupons.Get("/coupons", couponHandler.List)
				coupons.Post("/coupons", couponHandler.Create)
				coupons.Put("/coupons/{couponID}", couponHandler.Update)
			})

			admin.With(auditSvc.Middleware("orders")).
				Patch("/orders/{orderID}/status", orderAdmin.PatchStatus)

			admin.Get("/analytics/sales", analyticsHandler.Sales)
			admin.Get("/analytics/top-items", analyticsHandler.TopItems)
			admin.Get("/analytics/coupons", analyticsHandler.CouponUsage)
			admin.Get("/audit", auditHandler.List)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
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

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
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
