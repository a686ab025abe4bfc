package realtime

// Table names a table of the record store.
type Table string

const (
	TableDrinks Table = "drinks"
	TableOrders Table = "orders"
	TableUsers  Table = "users"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes one accepted write. CustomerName is set for order rows
// when known; an empty CustomerName means "any row", as for a bulk delete.
// Origin names the server instance that relayed the change through redis.
type Change struct {
	Table        Table  `json:"table"`
	Op           Op     `json:"op"`
	ID           string `json:"id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Origin       string `json:"origin,omitempty"`
}

// Scope selects the changes a view cares about: every change to Table, or,
// with CustomerName set, only changes to that customer's order rows.
type Scope struct {
	Table        Table
	CustomerName string
}

func (s Scope) Matches(c Change) bool {
	if s.Table != c.Table {
		return false
	}
	if s.CustomerName == "" || c.CustomerName == "" {
		return true
	}
	return s.CustomerName == c.CustomerName
}

func Tables(tables ...Table) []Scope {
	scopes := make([]Scope, 0, len(tables))
	for _, t := range tables {
		scopes = append(scopes, Scope{Table: t})
	}
	return scopes
}
