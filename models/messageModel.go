package models

// Message is the envelope pushed to websocket clients.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

const (
	EventDrinks       = "drinks"
	EventCustomers    = "customers"
	EventOrders       = "orders"
	EventQueue        = "queue"
	EventHistory      = "history"
	EventUsers        = "users"
	EventError        = "error"
	EventSessionEnded = "session_ended"
)
