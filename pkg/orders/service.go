// Package orders writes sales orders into the external system
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/dylan-buck/UAF-Auto/pkg/customers"
	"github.com/dylan-buck/UAF-Auto/pkg/metrics"
	"github.com/dylan-buck/UAF-Auto/pkg/models"
	"github.com/dylan-buck/UAF-Auto/pkg/sage"
)

const orderObject = "SO_SalesOrder_bus"

const defaultWarehouse = "000"

// Service creates sales orders through pooled sessions. Business
// failures come back inside the response with an error code; only
// infrastructure failures surface as errors.
type Service struct {
	pool   *sage.Pool
	logger ectologger.Logger
}

func NewService(pool *sage.Pool, logger ectologger.Logger) *Service {
	return &Service{pool: pool, logger: logger}
}

// Create writes one sales order: reserve the next order number, set the
// header, add each line, then commit. Line-level set failures are
// warnings the external system resolves itself (price lookups, item
// defaults); only the final commit decides success.
func (s *Service) Create(ctx context.Context, req *models.SalesOrderRequest) (*models.SalesOrderResponse, error) {
	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"method":          "Create",
		"customer_number": req.CustomerNumber,
		"po_number":       req.PONumber,
		"line_count":      len(req.Lines),
	})

	var resp *models.SalesOrderResponse
	err := sage.WithSession(ctx, s.pool, func(h *sage.SessionHandle) error {
		obj, err := h.NewObject(orderObject)
		if err != nil {
			return sage.Corrupted(err)
		}
		defer obj.Release()

		r, err := s.writeOrder(ctx, log, obj, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		resp = s.translateFailure(err)
	}

	outcome := "error"
	if resp.Success {
		outcome = "ok"
	}
	metrics.OrdersTotal.WithLabelValues(outcome).Inc()
	if resp.Success {
		log.WithField("sales_order_number", resp.SalesOrderNumber).Info("Sales order created")
	} else {
		log.WithFields(map[string]any{
			"error_code":    resp.ErrorCode,
			"error_message": resp.ErrorMessage,
		}).Error("Sales order creation failed")
	}
	return resp, nil
}

func (s *Service) writeOrder(ctx context.Context, log ectologger.Logger, obj sage.Object, req *models.SalesOrderRequest) (*models.SalesOrderResponse, error) {
	orderNo, code := obj.NextDocumentNumber()
	if code == 0 || orderNo == "" {
		// Cannot even reserve a number; the object is not usable
		return nil, sage.Corrupted(sage.Check(obj, orderObject, "NextDocumentNumber", 0))
	}
	log = log.WithField("sales_order_number", orderNo)

	if err := sage.Check(obj, orderObject, "SetKey", obj.SetKey(orderNo)); err != nil {
		return &models.SalesOrderResponse{
			Success:      false,
			ErrorCode:    models.OrderErrorWrite,
			ErrorMessage: err.Error(),
		}, nil
	}

	division, customerNo := customers.SplitCustomerNumber(req.CustomerNumber)
	if req.DivisionNo != "" && !strings.Contains(req.CustomerNumber, "-") {
		division = req.DivisionNo
	}

	warnings := []string{}
	setHeader := func(field string, value any) {
		if obj.SetField(field, value) == 0 {
			warning := fmt.Sprintf("%s: %s", field, obj.LastErrorMsg())
			warnings = append(warnings, warning)
			log.WithField("field", field).Warn("Header field set warning")
		}
	}

	setHeader("ARDivisionNo$", division)
	setHeader("CustomerNo$", customerNo)
	setHeader("CustomerPONo$", req.PONumber)
	if req.OrderDate != "" {
		setHeader("OrderDate$", req.OrderDate)
	} else {
		setHeader("OrderDate$", time.Now().Format("20060102"))
	}
	if req.ShipDate != "" {
		setHeader("ShipExpireDate$", req.ShipDate)
	}
	if req.Comment != "" {
		setHeader("Comment$", req.Comment)
	}
	if req.ShipToAddress != nil {
		setShipTo(setHeader, req.ShipToAddress)
	}

	lines, ok := obj.Lines()
	if !ok {
		return nil, sage.Corrupted(&sage.CallError{Object: orderObject, Op: "Lines", Msg: "no line collection"})
	}

	for i, line := range req.Lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo := i + 1
		if lines.AddLine() == 0 {
			warnings = append(warnings, fmt.Sprintf("line %d AddLine: %s", lineNo, lines.LastErrorMsg()))
		}

		warehouse := line.WarehouseCode
		if warehouse == "" {
			warehouse = defaultWarehouse
		}
		// Warehouse must be set before the item code or the item's
		// default warehouse overrides it
		setLine := func(field string, value any) {
			if lines.SetField(field, value) == 0 {
				warnings = append(warnings, fmt.Sprintf("line %d %s: %s", lineNo, field, lines.LastErrorMsg()))
			}
		}
		setLine("WarehouseCode$", warehouse)
		setLine("ItemCode$", line.ItemCode)
		setLine("QuantityOrdered", line.Quantity)
		if line.UnitPrice != nil {
			setLine("UnitPrice", *line.UnitPrice)
		}
		if line.Description != "" {
			setLine("ItemCodeDesc$", line.Description)
		}

		if lines.Write() == 0 {
			warnings = append(warnings, fmt.Sprintf("line %d write: %s", lineNo, lines.LastErrorMsg()))
		}
	}

	if obj.Write() == 0 {
		return &models.SalesOrderResponse{
			Success:      false,
			ErrorCode:    models.OrderErrorWrite,
			ErrorMessage: fmt.Sprintf("Failed to create sales order: %s", obj.LastErrorMsg()),
			LineWarnings: warnings,
		}, nil
	}

	return &models.SalesOrderResponse{
		Success:          true,
		SalesOrderNumber: orderNo,
		Message:          fmt.Sprintf("Sales order %s created successfully", orderNo),
		LineWarnings:     warnings,
	}, nil
}

// translateFailure normalizes infrastructure errors into the business
// failure shape so queue and batch callers handle one result type
func (s *Service) translateFailure(err error) *models.SalesOrderResponse {
	resp := &models.SalesOrderResponse{Success: false}
	switch {
	case errors.Is(err, sage.ErrPoolTimeout):
		resp.ErrorCode = models.OrderErrorBusy
		resp.ErrorMessage = "All Sage sessions are busy; try again shortly"
	case errors.Is(err, sage.ErrSessionCorrupted), errors.Is(err, sage.ErrPoolClosed):
		resp.ErrorCode = models.OrderErrorSession
		resp.ErrorMessage = err.Error()
	default:
		resp.ErrorCode = models.OrderErrorUnexpected
		resp.ErrorMessage = err.Error()
	}
	return resp
}

func setShipTo(set func(field string, value any), addr *models.Address) {
	if addr.Name != "" {
		set("ShipToName$", addr.Name)
	}
	if addr.Address1 != "" {
		set("ShipToAddress1$", addr.Address1)
	}
	if addr.Address2 != "" {
		set("ShipToAddress2$", addr.Address2)
	}
	if addr.City != "" {
		set("ShipToCity$", addr.City)
	}
	if addr.State != "" {
		set("ShipToState$", addr.State)
	}
	if addr.ZipCode != "" {
		set("ShipToZipCode$", addr.ZipCode)
	}
}
