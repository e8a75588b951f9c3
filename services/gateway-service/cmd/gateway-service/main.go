package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/kunal-deshmukh/drivetrack/libs/auth"
	"github.com/kunal-deshmukh/drivetrack/libs/config"
	"github.com/kunal-deshmukh/drivetrack/libs/httpx"
	otelx "github.com/kunal-deshmukh/drivetrack/libs/otel"
	"github.com/kunal-deshmukh/drivetrack/libs/runtime"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "gateway-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	mux := runtime.NewBaseMuxWithReady()
	jwtSecret := config.String("JWT_SECRET", "dev-secret")
	jwksURL := config.String("JWKS_URL", "")
	jwksTTL := time.Duration(config.Int("JWKS_CACHE_SECONDS", 300)) * time.Second
	registerRoutes(mux, jwtSecret, jwksURL, jwksTTL)

	rateLimitMW, closeLimiter := buildRateLimiter(logger)
	defer closeLimiter()

	bodyLimit := config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)
	if bodyLimit <= 0 {
		bodyLimit = 1 << 20
	}
	requestTimeout := config.Int("REQUEST_TIMEOUT_SECONDS", 10)
	if requestTimeout <= 0 {
		requestTimeout = 10
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")),
			AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id")),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           time.Duration(config.Int("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(bodyLimit)),
		httpx.WithTimeout(time.Duration(requestTimeout)*time.Second),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "gateway")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// buildRateLimiter picks redis when REDIS_ADDR is set, otherwise a per
// instance in-memory limiter. The returned func closes the redis client.
func buildRateLimiter(logger *slog.Logger) (httpx.Middleware, func()) {
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)

	addr := strings.TrimSpace(config.String("REDIS_ADDR", ""))
	if addr == "" {
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
		return httpx.NewRateLimiter(limitPerMinute, time.Minute).Middleware(), func() {}
	}

	redisDB := config.Int("REDIS_DB", 0)
	if redisDB < 0 {
		redisDB = 0
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       redisDB,
	})
	rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
	failOpen := config.Bool("RATE_LIMIT_FAIL_OPEN", true)
	logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	return rl.Middleware(logger, failOpen), func() { _ = rdb.Close() }
}

func registerRoutes(mux *http.ServeMux, jwtSecret string, jwksURL string, jwksTTL time.Duration) {
	branchURL := mustParseURL(config.String("BRANCH_URL", "http://branch-service:8082"))
	schedulingURL := mustParseURL(config.String("SCHEDULING_URL", "http://scheduling-service:8084"))

	branchProxy := httputil.NewSingleHostReverseProxy(branchURL)
	schedulingProxy := httputil.NewSingleHostReverseProxy(schedulingURL)
	otelTransport := otelhttp.NewTransport(http.DefaultTransport)
	branchProxy.Transport = otelTransport
	schedulingProxy.Transport = otelTransport

	var jwksClient *auth.JWKSClient
	if jwksURL != "" {
		jwksClient = auth.NewJWKSClient(jwksURL, jwksTTL)
	}

	registerProxy(mux, "/api/v1/schedule", requireAuth(schedulingProxy, jwtSecret, jwksClient))
	registerProxy(mux, "/api/v1/sessions", requireAuth(schedulingProxy, jwtSecret, jwksClient))
	registerProxy(mux, "/api/v1/branch", requireAuth(requireRole(branchProxy, "owner", "admin"), jwtSecret, jwksClient))
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func verifyToken(token, jwtSecret string, jwksClient *auth.JWKSClient) (*auth.Claims, error) {
	if jwksClient == nil {
		return auth.ParseAndVerifyHS256(token, jwtSecret)
	}

	header, err := auth.ParseHeader(token)
	if err != nil {
		return nil, err
	}
	if header.Alg == "RS256" && header.Kid != "" {
		pub, err := jwksClient.Get(header.Kid)
		if err != nil {
			return nil, err
		}
		return auth.VerifyRS256(token, pub)
	}
	return auth.ParseAndVerifyHS256(token, jwtSecret)
}

func requireAuth(next http.Handler, jwtSecret string, jwksClient *auth.JWKSClient) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := verifyToken(token, jwtSecret, jwksClient)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Del("X-User-Id")
		r.Header.Del("X-Branch-Id")
		r.Header.Del("X-Role")
		r.Header.Set("X-User-Id", claims.Sub)
		r.Header.Set("X-Branch-Id", claims.BranchID)
		r.Header.Set("X-Role", claims.Role)
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get("X-Role")
		if _, ok := allowed[role]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
