package handler

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/Pottifar/calendar/internal/interfaces/http/middleware"
	"github.com/Pottifar/calendar/pkg/logger"
)

// CheckFunc проверяет доступность зависимости
type CheckFunc func(ctx context.Context) error

// HealthHandler отвечает на liveness и readiness пробы
type HealthHandler struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
	logger  *logger.Logger
}

// NewHealthHandler создает новый handler
func NewHealthHandler(timeout time.Duration, logger *logger.Logger) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
		logger:  logger,
	}
}

// AddCheck регистрирует проверку для /readyz
func (h *HealthHandler) AddCheck(name string, check CheckFunc) *HealthHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
	return h
}

// Healthz - процесс жив
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz - все зависимости отвечают
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	status := http.StatusOK
	result := make(map[string]string, len(names))
	for _, name := range names {
		h.mu.RLock()
		check := h.checks[name]
		h.mu.RUnlock()

		if err := check(ctx); err != nil {
			h.logger.Warn("Readiness check failed", "check", name, "error", err)
			result[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}

	middleware.WriteJSON(w, status, result)
}
