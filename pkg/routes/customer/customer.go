// Package customer exposes customer search, lookup, resolution, and
// ship-to validation endpoints
package customer

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dylan-buck/UAF-Auto/pkg/customers"
	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/tracing"
	"github.com/dylan-buck/UAF-Auto/pkg/utils"
)

// Handler handles customer endpoints
type Handler struct {
	customers *customers.Service
	resolver  *customers.Resolver
}

func NewHandler(customers *customers.Service, resolver *customers.Resolver) *Handler {
	return &Handler{customers: customers, resolver: resolver}
}

// RegisterRoutes registers customer endpoints
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/customers/search", h.Search)
	e.GET("/api/v1/customers/:customerNumber", h.Get)
	e.POST("/api/v1/customers/resolve", h.Resolve)
	e.POST("/api/v1/customers/:customerNumber/validate-shipto", h.ValidateShipTo)
}

// Search runs a bounded scan against the supplied criteria
func (h *Handler) Search(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "customer.Search")
	defer span.End()

	req, err := utils.BindRequest[models.CustomerSearchRequest](c)
	if err != nil {
		return err
	}

	resp, err := h.customers.Search(ctx, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Get fetches one customer with its ship-to addresses
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "customer.Get")
	defer span.End()

	customer, err := h.customers.Get(ctx, c.Param("customerNumber"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Resolve maps free-text purchase order party data to a customer account
func (h *Handler) Resolve(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "customer.Resolve")
	defer span.End()

	req, err := utils.BindRequest[models.ResolutionRequest](c)
	if err != nil {
		return err
	}

	result, err := h.resolver.Resolve(ctx, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ValidateShipTo compares an address against a customer's ship-tos
func (h *Handler) ValidateShipTo(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "customer.ValidateShipTo")
	defer span.End()

	req, err := utils.BindRequest[models.ValidateShipToRequest](c)
	if err != nil {
		return err
	}

	resp, err := h.customers.ValidateShipTo(ctx, c.Param("customerNumber"), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
