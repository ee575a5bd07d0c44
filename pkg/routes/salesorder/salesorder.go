// Package salesorder exposes direct and queued order creation endpoints
package salesorder

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/orders"
	"github.com/dylan-buck/UAF-Auto/pkg/queue"
	"github.com/dylan-buck/UAF-Auto/pkg/tracing"
	"github.com/dylan-buck/UAF-Auto/pkg/utils"
)

// Handler handles sales order endpoints. The queue store is nil when the
// queue is disabled, which turns the async endpoints into 503s.
type Handler struct {
	orders *orders.Service
	store  *queue.Store
}

func NewHandler(orders *orders.Service, store *queue.Store) *Handler {
	return &Handler{orders: orders, store: store}
}

// RegisterRoutes registers sales order endpoints
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/orders", h.Create)
	e.POST("/api/v1/orders/queue", h.Enqueue)
	e.GET("/api/v1/orders/queue/stats", h.QueueStats)
	e.GET("/api/v1/orders/queue/:jobID", h.JobStatus)
}

// Create writes an order synchronously. Business failures come back with
// 200 and success=false so callers can distinguish them from transport
// problems; 503 is reserved for an exhausted session pool.
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "salesorder.Create")
	defer span.End()

	req, err := utils.BindRequest[models.SalesOrderRequest](c)
	if err != nil {
		return err
	}

	resp, err := h.orders.Create(ctx, &req)
	if err != nil {
		return err
	}
	if resp.ErrorCode == models.OrderErrorBusy {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// EnqueueRequest wraps an order with a queue priority
type EnqueueRequest struct {
	models.SalesOrderRequest
	Priority string `json:"priority,omitempty" validate:"omitempty,oneof=normal high"`
}

// Enqueue submits an order for asynchronous processing
func (h *Handler) Enqueue(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "salesorder.Enqueue")
	defer span.End()

	if h.store == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "order queue is disabled")
	}

	req, err := utils.BindRequest[EnqueueRequest](c)
	if err != nil {
		return err
	}

	job, err := h.store.Enqueue(ctx, &req.SalesOrderRequest, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, job)
}

// JobStatus reports a queued job's state and result
func (h *Handler) JobStatus(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "salesorder.JobStatus")
	defer span.End()

	if h.store == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "order queue is disabled")
	}

	jobID := c.Param("jobID")
	job, err := h.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "job %s not found", jobID)
	}
	return c.JSON(http.StatusOK, job)
}

// QueueStatsResponse reports queue depths
type QueueStatsResponse struct {
	High   int64 `json:"high"`
	Normal int64 `json:"normal"`
}

// QueueStats reports the current queue depths
func (h *Handler) QueueStats(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "salesorder.QueueStats")
	defer span.End()

	if h.store == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "order queue is disabled")
	}

	high, normal, err := h.store.Depth(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, QueueStatsResponse{High: high, Normal: normal})
}
