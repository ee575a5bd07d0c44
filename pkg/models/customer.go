package models

// Customer is one AR customer record read from the external system
type Customer struct {
	// CustomerNumber is the combined "DD-CUSTNO" form
	CustomerNumber    string   `json:"customer_number"`
	DivisionNo        string   `json:"division_no"`
	CustomerNo        string   `json:"customer_no"`
	Name              string   `json:"name"`
	Status            string   `json:"status,omitempty"`
	Address1          string   `json:"address1,omitempty"`
	Address2          string   `json:"address2,omitempty"`
	City              string   `json:"city,omitempty"`
	State             string   `json:"state,omitempty"`
	ZipCode           string   `json:"zip_code,omitempty"`
	Country           string   `json:"country,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	PriceLevel        string   `json:"price_level,omitempty"`
	TaxSchedule       string   `json:"tax_schedule,omitempty"`
	TermsCode         string   `json:"terms_code,omitempty"`
	DefaultShipToCode string   `json:"default_ship_to_code,omitempty"`
	ShipToAddresses   []ShipTo `json:"ship_to_addresses,omitempty"`
}

// ShipTo is one ship-to address on a customer
type ShipTo struct {
	Code          string `json:"code"`
	Name          string `json:"name,omitempty"`
	Address1      string `json:"address1,omitempty"`
	Address2      string `json:"address2,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	ZipCode       string `json:"zip_code,omitempty"`
	Country       string `json:"country,omitempty"`
	WarehouseCode string `json:"warehouse_code,omitempty"`
	ShipVia       string `json:"ship_via,omitempty"`
	IsDefault     bool   `json:"is_default"`
}

// DefaultShipTo returns the ship-to flagged as default, or the first one
func (c *Customer) DefaultShipTo() *ShipTo {
	for i := range c.ShipToAddresses {
		if c.ShipToAddresses[i].IsDefault {
			return &c.ShipToAddresses[i]
		}
	}
	if len(c.ShipToAddresses) > 0 {
		return &c.ShipToAddresses[0]
	}
	return nil
}

// CustomerSearchRequest holds criteria for a bounded customer scan
type CustomerSearchRequest struct {
	Name    string `json:"name,omitempty" query:"name"`
	City    string `json:"city,omitempty" query:"city"`
	State   string `json:"state,omitempty" query:"state"`
	Phone   string `json:"phone,omitempty" query:"phone"`
	Address string `json:"address,omitempty" query:"address"`
	Limit   int    `json:"limit,omitempty" query:"limit"`
}

// CustomerSearchResponse is the result of a customer search
type CustomerSearchResponse struct {
	Customers      []Customer `json:"customers"`
	TotalCount     int        `json:"total_count"`
	SearchCriteria string     `json:"search_criteria,omitempty"`
}
