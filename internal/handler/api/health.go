package api

import (
	"context"
	"sort"
	"strings"
	"time"

	xhttp "FinBot/pkg/http"
	xlogger "FinBot/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	logger  *xlogger.Logger
	checks  map[string]Check
	timeout time.Duration
}

func NewHealthHandler(logger *xlogger.Logger, checks map[string]Check) *HealthHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &HealthHandler{logger: logger, checks: checks, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Live)
	e.GET("/readyz", h.Ready)
}

func (h *HealthHandler) Live(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Ready runs every check and reports the failing ones by name.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	var failed []string
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("readiness check failed", xlogger.String("check", name), xlogger.Error(err))
			status[name] = err.Error()
			failed = append(failed, name)
			continue
		}
		status[name] = "ok"
	}
	if len(failed) > 0 {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("not ready: "+strings.Join(failed, ", ")))
	}
	return xhttp.SuccessResponse(c, status)
}

var _ xhttp.Handler = (*HealthHandler)(nil)
