package http

import (
	"net/http"

	prommetrics "github.com/Pottifar/calendar/internal/infrastructure/observability/prometheus"
	"github.com/Pottifar/calendar/internal/interfaces/http/handler"
	"github.com/Pottifar/calendar/internal/interfaces/http/middleware"
	"github.com/Pottifar/calendar/pkg/config"
	"github.com/Pottifar/calendar/pkg/logger"
)

// Router настраивает маршруты приложения
type Router struct {
	mux                   *http.ServeMux
	reservationAPIHandler *handler.ReservationAPIHandler
	legacyBookingHandler  *handler.LegacyBookingHandler
	websocketHandler      *handler.WebSocketHandler
	healthHandler         *handler.HealthHandler
	metrics               *prommetrics.Metrics
	security              config.SecurityConfig
	rateLimit             config.RateLimitConfig
	limiter               *middleware.IPRateLimiter
	logger                *logger.Logger
}

// NewRouter создает новый router; websocketHandler и metrics могут быть nil
func NewRouter(
	reservationAPIHandler *handler.ReservationAPIHandler,
	legacyBookingHandler *handler.LegacyBookingHandler,
	websocketHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	metrics *prommetrics.Metrics,
	security config.SecurityConfig,
	rateLimit config.RateLimitConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:                   http.NewServeMux(),
		reservationAPIHandler: reservationAPIHandler,
		legacyBookingHandler:  legacyBookingHandler,
		websocketHandler:      websocketHandler,
		healthHandler:         healthHandler,
		metrics:               metrics,
		security:              security,
		rateLimit:             rateLimit,
		logger:                logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Health и метрики доступны без токена
	rt.mux.HandleFunc("GET /healthz", rt.healthHandler.Healthz)
	rt.mux.HandleFunc("GET /readyz", rt.healthHandler.Readyz)
	if rt.metrics != nil {
		rt.mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)

	api := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(middleware.Compression(h))
	}

	// WebSocket проверяет токен сам: браузер передает его в query
	if rt.websocketHandler != nil {
		rt.mux.HandleFunc("GET /ws", rt.websocketHandler.HandleConnection)
	}

	// Versioned API
	rt.mux.Handle("POST /api/v1/reservations", api(rt.reservationAPIHandler.Create))
	rt.mux.Handle("GET /api/v1/reservations", api(rt.reservationAPIHandler.List))
	rt.mux.Handle("PATCH /api/v1/reservations/{id}", api(rt.reservationAPIHandler.Update))
	rt.mux.Handle("DELETE /api/v1/reservations/{id}", api(rt.reservationAPIHandler.Delete))

	// Маршруты существующего календарного клиента
	rt.mux.Handle("POST /api/createBooking", api(rt.legacyBookingHandler.CreateBooking))
	rt.mux.Handle("PATCH /api/updateBooking/{id}", api(rt.legacyBookingHandler.UpdateBooking))
	rt.mux.Handle("DELETE /api/deleteBooking/{id}", api(rt.legacyBookingHandler.DeleteBooking))
	rt.mux.Handle("GET /api/getBookingsByDate", api(rt.legacyBookingHandler.GetBookingsByDate))
	rt.mux.Handle("GET /api/getBookingForUser", api(rt.legacyBookingHandler.GetBookingForUser))

	// Применяем middleware
	var handler http.Handler = rt.mux
	if rt.rateLimit.Enabled {
		rt.limiter = middleware.NewIPRateLimiter(rt.rateLimit.RPS, rt.rateLimit.Burst).
			TrustProxies(rt.rateLimit.TrustedProxies)
		if rt.metrics != nil {
			rt.limiter.OnReject(rt.metrics.RateLimitDropped.Inc)
		}
		handler = middleware.RateLimit(rt.limiter)(handler)
	}
	handler = middleware.CORS(rt.security.AllowedOrigins)(handler)
	handler = middleware.Logger(rt.logger)(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(rt.logger)(handler)

	return handler
}

// Close останавливает фоновую очистку rate limiter
func (rt *Router) Close() {
	if rt.limiter != nil {
		rt.limiter.Stop()
	}
}
