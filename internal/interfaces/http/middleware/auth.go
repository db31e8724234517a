package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Pottifar/calendar/pkg/logger"
)

var (
	// ErrUnauthorized - токен отсутствует или не совпал
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAuthMisconfigured - авторизация включена, но токен не задан
	ErrAuthMisconfigured = errors.New("auth enabled without token")
)

// AuthConfig - общий Bearer token для API и WebSocket
type AuthConfig struct {
	Enabled     bool
	BearerToken string
}

// AuthCookieName - cookie, которую может выставить календарный клиент
const AuthCookieName = "calendar_auth_token"

// Auth пропускает запрос, только если он несет настроенный токен.
// Preflight OPTIONS обрабатывается CORS раньше и сюда не доходит.
func Auth(cfg AuthConfig, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ValidateRequestAuth(r, cfg); err != nil {
				log.Warn("Unauthorized request",
					"path", r.URL.Path,
					"method", r.Method,
					"client_ip", remoteHost(r),
					"reason", err.Error(),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="calendar"`)
				WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ValidateRequestAuth проверяет токен из заголовка, cookie или query (?token= для WebSocket)
func ValidateRequestAuth(r *http.Request, cfg AuthConfig) error {
	if !cfg.Enabled {
		return nil
	}

	expected := strings.TrimSpace(cfg.BearerToken)
	if expected == "" {
		return ErrAuthMisconfigured
	}

	for _, token := range requestTokens(r) {
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1 {
			return nil
		}
	}
	return ErrUnauthorized
}

// requestTokens собирает непустые кандидаты в порядке приоритета
func requestTokens(r *http.Request) []string {
	var tokens []string

	if scheme, value, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " "); ok && strings.EqualFold(scheme, "Bearer") {
		if value = strings.TrimSpace(value); value != "" {
			tokens = append(tokens, value)
		}
	}
	if c, err := r.Cookie(AuthCookieName); err == nil {
		if value := strings.TrimSpace(c.Value); value != "" {
			tokens = append(tokens, value)
		}
	}
	// Браузерный WebSocket не умеет передавать Authorization
	if value := strings.TrimSpace(r.URL.Query().Get("token")); value != "" {
		tokens = append(tokens, value)
	}

	return tokens
}

// WriteJSON пишет payload как JSON с указанным статусом
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
