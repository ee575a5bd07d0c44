// Package inventory exposes the item code validation endpoint
package inventory

import (
	"net/http"

	"github.com/labstack/echo/v4"

	invsvc "github.com/dylan-buck/UAF-Auto/pkg/inventory"
	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/tracing"
	"github.com/dylan-buck/UAF-Auto/pkg/utils"
)

// Handler handles inventory endpoints
type Handler struct {
	inventory *invsvc.Service
}

func NewHandler(inventory *invsvc.Service) *Handler {
	return &Handler{inventory: inventory}
}

// RegisterRoutes registers inventory endpoints
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/inventory/validate", h.Validate)
}

// Validate checks a batch of item codes
func (h *Handler) Validate(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "inventory.Validate")
	defer span.End()

	req, err := utils.BindRequest[models.ItemValidationRequest](c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.inventory.ValidateItemCodes(ctx, &req))
}
