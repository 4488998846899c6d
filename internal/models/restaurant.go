package models

// Restaurant represents a tenant. Only the fields the ordering path reads are
// mapped here; the admin apps own the rest of the row.
type Restaurant struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	CurrencyCode    string `json:"currency_code"`
	AcceptingOrders bool   `json:"accepting_orders"`
}
