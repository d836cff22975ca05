// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/draff227/bslc/internal/core/domain"
	"github.com/draff227/bslc/internal/core/ports"
)

const (
	DefaultPublicPrefix = "/api/public"
	DefaultAPIPrefix    = "/api"

	fallbackIdentifier = "127.0.0.1"

	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
	headerRetryAfter         = "Retry-After"

	rateLimitExceededMessage = "you have reached the maximum number of requests allowed within the current window"
)

// GateConfig define os prefixos e as listas de permissão da política de acesso.
type GateConfig struct {
	PublicPrefix      string
	APIPrefix         string
	AllowedOrigins    []string
	ExemptIdentifiers []string
	Now               func() time.Time
}

type requestGate struct {
	limiter      ports.RateLimiter
	publicPrefix string
	apiPrefix    string
	origins      []string
	originSet    map[string]struct{}
	exempt       map[string]struct{}
	now          func() time.Time
	logger       *zap.Logger
}

// NewRequestGate aplica exatamente uma política por requisição: rate limit nos caminhos
// públicos, verificação de origem no restante da API e nenhuma nos demais caminhos.
func NewRequestGate(limiter ports.RateLimiter, cfg GateConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	gate := &requestGate{
		limiter:      limiter,
		publicPrefix: strings.TrimSuffix(cfg.PublicPrefix, "/"),
		apiPrefix:    strings.TrimSuffix(cfg.APIPrefix, "/"),
		origins:      cfg.AllowedOrigins,
		originSet:    toSet(cfg.AllowedOrigins),
		exempt:       toSet(cfg.ExemptIdentifiers),
		now:          cfg.Now,
		logger:       logger,
	}
	if gate.publicPrefix == "" {
		gate.publicPrefix = DefaultPublicPrefix
	}
	if gate.apiPrefix == "" {
		gate.apiPrefix = DefaultAPIPrefix
	}
	if gate.now == nil {
		gate.now = time.Now
	}
	if gate.logger == nil {
		gate.logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case hasPathPrefix(r.URL.Path, gate.publicPrefix):
				gate.servePublic(w, r, next)
			case hasPathPrefix(r.URL.Path, gate.apiPrefix):
				gate.serveInternal(w, r, next)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func (g *requestGate) servePublic(w http.ResponseWriter, r *http.Request, next http.Handler) {
	setPublicCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	identifier := ExtractIdentifier(r)
	result := g.check(identifier)
	writeRateLimitHeaders(w, result)

	if !result.Allowed {
		retryAfter := retryAfterSeconds(result.ResetTime, g.now())
		w.Header().Set(headerRetryAfter, strconv.Itoa(retryAfter))
		g.logger.Info("rate limit exceeded",
			zap.String("identifier", identifier),
			zap.String("path", r.URL.Path),
			zap.Int("retry_after", retryAfter),
		)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":      "rate_limit_exceeded",
			"message":    rateLimitExceededMessage,
			"statusCode": http.StatusTooManyRequests,
			"retryAfter": retryAfter,
		})
		return
	}

	next.ServeHTTP(w, r)
}

func (g *requestGate) check(identifier string) domain.RateLimitResult {
	if _, ok := g.exempt[identifier]; ok {
		rule := g.limiter.Rule()
		return domain.RateLimitResult{
			Allowed:   true,
			Limit:     rule.Requests,
			Remaining: rule.Requests - 1,
			ResetTime: g.now().Add(rule.Window),
		}
	}
	return g.limiter.Check(identifier)
}

func (g *requestGate) serveInternal(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if !g.originAllowed(r) {
		g.logger.Warn("request rejected by origin policy",
			zap.String("path", r.URL.Path),
			zap.String("origin", r.Header.Get("Origin")),
		)
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	if origin := r.Header.Get("Origin"); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	next.ServeHTTP(w, r)
}

// originAllowed confia em cabeçalhos enviados pelo cliente: serve contra hotlinking, não como autenticação.
func (g *requestGate) originAllowed(r *http.Request) bool {
	if origin := strings.TrimSpace(r.Header.Get("Origin")); origin != "" {
		if _, ok := g.originSet[origin]; ok {
			return true
		}
	}

	referer := strings.TrimSpace(r.Header.Get("Referer"))
	if referer == "" {
		return false
	}
	for _, allowed := range g.origins {
		if strings.HasPrefix(referer, allowed) {
			return true
		}
	}
	return false
}

// ExtractIdentifier resolve a chave do cliente na ordem X-Forwarded-For, X-Real-IP,
// CF-Connecting-IP e, por fim, o loopback fixo.
func ExtractIdentifier(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		first, _, _ := strings.Cut(xForwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); xRealIP != "" {
		return xRealIP
	}

	if cfConnectingIP := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); cfConnectingIP != "" {
		return cfConnectingIP
	}

	return fallbackIdentifier
}

func writeRateLimitHeaders(w http.ResponseWriter, result domain.RateLimitResult) {
	w.Header().Set(headerRateLimitLimit, strconv.Itoa(result.Limit))
	w.Header().Set(headerRateLimitRemaining, strconv.Itoa(max(0, result.Remaining)))
	w.Header().Set(headerRateLimitReset, strconv.FormatInt(result.ResetTime.UnixMilli(), 10))
}

func retryAfterSeconds(resetTime, now time.Time) int {
	seconds := math.Ceil(resetTime.Sub(now).Seconds())
	if seconds < 0 {
		return 0
	}
	return int(seconds)
}

func setPublicCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Expose-Headers", "X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			set[value] = struct{}{}
		}
	}
	return set
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
