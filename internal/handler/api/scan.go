package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	models "bandarscan/internal/domain/models"
	drepo "bandarscan/internal/domain/repository"
	"bandarscan/internal/scancache"
	"bandarscan/internal/service/idx"
	"bandarscan/internal/service/ratelimit"
	"bandarscan/internal/usecase"
	xhttp "bandarscan/pkg/http"
	xlogger "bandarscan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScanHandler serves the scan pipeline and its admin surfaces over Echo.
type ScanHandler struct {
	logger   *xlogger.Logger
	scanner  *usecase.Scanner
	cache    *scancache.Manager
	archiver *usecase.Archiver
	hub      *StreamHub
	rl       *ratelimit.Limiter
	metrics  drepo.Metrics
}

func NewScanHandler(logger *xlogger.Logger, scanner *usecase.Scanner, cache *scancache.Manager, archiver *usecase.Archiver, hub *StreamHub) *ScanHandler {
	return &ScanHandler{
		logger:   logger,
		scanner:  scanner,
		cache:    cache,
		archiver: archiver,
		hub:      hub,
		rl:       ratelimit.New(),
	}
}

// SetMetrics injects the metrics recorder.
func (h *ScanHandler) SetMetrics(m drepo.Metrics) { h.metrics = m }

func (h *ScanHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/scan", h.Scan)
	g.POST("/cache", h.CacheAdmin)
	g.GET("/archive", h.Archive)
	g.POST("/archive/cleanup", h.ArchiveCleanup)
	g.GET("/scan/stream", h.Stream)
	e.GET("/healthz", h.Health)
}

// Scan serves the composed result for the current time bucket, running the
// pipeline at most once per bucket. When the upstream is down it degrades to
// the newest cached run, then to the static fallback payload.
func (h *ScanHandler) Scan(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":scan", 10, 2) {
		h.logger.Warn("scan rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	start := time.Now()
	result, cached, err := h.cache.GetOrCompute(c.Request().Context(), func(ctx context.Context) (*models.ScanResult, error) {
		fresh, scanErr := h.scanner.Scan(ctx)
		if scanErr != nil {
			return nil, scanErr
		}
		if h.hub != nil {
			h.hub.Broadcast(fresh)
		}
		if h.archiver != nil {
			go h.archiver.Store(context.WithoutCancel(ctx), fresh)
		}
		return fresh, nil
	})
	if err != nil {
		h.logger.Error("scan pipeline failed", xlogger.Error(err))
		// A malformed upstream payload is fatal for the run: retrying or
		// degrading would mask a contract break with the exchange. Only an
		// unreachable upstream degrades to stale data or the static list.
		if errors.Is(err, idx.ErrMalformedUpstream) {
			appErr := xhttp.InternalError("upstream returned a malformed summary payload").
				WithError(err).
				WithParam("timestamp", time.Now().UnixMilli())
			return xhttp.FailureResponse(c, appErr)
		}
		if last, ok := h.cache.Last(); ok {
			stale := *last
			stale.Cached = true
			return xhttp.SuccessResponse(c, &stale)
		}
		return xhttp.SuccessResponse(c, h.scanner.Fallback())
	}

	if h.metrics != nil {
		if cached {
			h.metrics.RecordCache("hit")
		} else {
			h.metrics.RecordCache("miss")
		}
		h.metrics.RecordLatency("serve_scan", time.Since(start).Seconds())
	}

	out := *result
	out.Cached = cached
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, &out)
}

// CacheAdmin handles clear/status/cleanup actions on the scan cache.
func (h *ScanHandler) CacheAdmin(c echo.Context) error {
	req := &models.CacheAdminRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	switch req.Action {
	case "clear":
		n := h.cache.Clear()
		h.logger.Info("scan cache cleared", xlogger.Int("entries", n))
		return xhttp.SuccessResponse(c, map[string]interface{}{"cleared": n})
	case "cleanup":
		n := h.cache.Cleanup()
		if h.metrics != nil && n > 0 {
			h.metrics.RecordCache("evict")
		}
		return xhttp.SuccessResponse(c, map[string]interface{}{"removed": n})
	default:
		return xhttp.SuccessResponse(c, h.cache.Status())
	}
}

// Archive returns archived scan rows, newest first.
func (h *ScanHandler) Archive(c echo.Context) error {
	req := &models.ArchiveQueryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.archiver.History(c.Request().Context(), req.Limit, req.Symbol)
	if err != nil {
		h.logger.Error("archive read failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	// Optional lower bound on row timestamps.
	if since := xhttp.ParseTimeDefault(c.QueryParam("since"), time.Time{}); !since.IsZero() {
		filtered := rows[:0]
		for i := range rows {
			if !rows[i].Timestamp.Before(since) {
				filtered = append(filtered, rows[i])
			}
		}
		rows = filtered
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// ArchiveCleanup drops archived rows past the retention window.
func (h *ScanHandler) ArchiveCleanup(c echo.Context) error {
	removed, err := h.archiver.Cleanup(c.Request().Context())
	if err != nil {
		h.logger.Error("archive cleanup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"removed": removed})
}

// Health reports process liveness, cache depth and archive reachability.
func (h *ScanHandler) Health(c echo.Context) error {
	archive := "ok"
	if h.archiver != nil {
		if err := h.archiver.Health(c.Request().Context()); err != nil {
			archive = err.Error()
		}
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":  "ok",
		"cache":   h.cache.Status(),
		"archive": archive,
	})
}
