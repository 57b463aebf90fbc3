package models

import "time"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	// StatusFulfilled is reserved for the fulfillment flow, which this
	// service does not drive yet.
	StatusFulfilled Status = "fulfilled"
)

// Order is a persisted order header. TotalPrice reflects catalog prices at
// admission time and never changes afterwards.
type Order struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	Status              Status    `json:"status"`
	TotalPrice          int64     `json:"total_price"`
	DeliveryWindowStart time.Time `json:"delivery_window_start"`
	DeliveryWindowEnd   time.Time `json:"delivery_window_end"`
	CreatedAt           time.Time `json:"created_at"`
}

// OrderLine is a persisted order line. UnitPrice is the catalog price
// snapshot taken at admission time.
type OrderLine struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	MenuID    string `json:"menu_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// OrderLineDetail is an order line joined with its referenced catalog row.
// Menu is nil when the menu item has since been deleted.
type OrderLineDetail struct {
	OrderLine
	Menu *MenuItem `json:"menu,omitempty"`
}

// OrderDetail is the full view of a single order.
type OrderDetail struct {
	Order
	Items []OrderLineDetail `json:"order_items"`
}

// PlaceOrderRequest is an incoming order request. Delivery window values stay
// strings so malformed input can be reported per field instead of failing
// JSON decoding wholesale.
type PlaceOrderRequest struct {
	DeliveryWindowStart string             `json:"delivery_window_start"`
	DeliveryWindowEnd   string             `json:"delivery_window_end"`
	Items               []OrderLineRequest `json:"items"`
}

// OrderLineRequest is a single requested line, not persisted directly.
type OrderLineRequest struct {
	MenuID   string `json:"menu_id"`
	Quantity int    `json:"quantity"`
}
