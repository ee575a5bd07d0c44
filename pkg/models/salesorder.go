package models

// SalesOrderRequest creates one sales order in the external system
type SalesOrderRequest struct {
	CustomerNumber string           `json:"customer_number" validate:"required"`
	DivisionNo     string           `json:"division_no,omitempty"`
	PONumber       string           `json:"po_number" validate:"required"`
	OrderDate      string           `json:"order_date,omitempty"`
	ShipDate       string           `json:"ship_date,omitempty"`
	Comment        string           `json:"comment,omitempty"`
	ShipToAddress  *Address         `json:"ship_to_address,omitempty"`
	Lines          []SalesOrderLine `json:"lines" validate:"required,min=1,dive"`
}

// SalesOrderLine is one line item on an order
type SalesOrderLine struct {
	ItemCode      string   `json:"item_code" validate:"required"`
	Quantity      float64  `json:"quantity" validate:"required,gt=0"`
	UnitPrice     *float64 `json:"unit_price,omitempty"`
	Description   string   `json:"description,omitempty"`
	WarehouseCode string   `json:"warehouse_code,omitempty"`
}

// SalesOrderResponse is the result of an order creation attempt. Business
// failures are reported here with an error code rather than as transport
// errors, so batch callers can record partial progress.
type SalesOrderResponse struct {
	Success          bool     `json:"success"`
	SalesOrderNumber string   `json:"sales_order_number,omitempty"`
	Message          string   `json:"message,omitempty"`
	ErrorCode        string   `json:"error_code,omitempty"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	LineWarnings     []string `json:"line_warnings,omitempty"`
}

// Sales order error codes
const (
	OrderErrorWrite      = "ORDER_WRITE_ERROR"
	OrderErrorSession    = "SESSION_ERROR"
	OrderErrorBusy       = "SERVICE_BUSY"
	OrderErrorUnexpected = "UNEXPECTED_ERROR"
)
