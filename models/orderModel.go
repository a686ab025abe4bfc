package models

import (
	"time"
)

// DeletedDrinkLabel is shown for orders whose drink has since been removed
// from the catalog.
const DeletedDrinkLabel = "deleted drink"

// MaxCustomerNameLength bounds customer names in runes, after trimming.
const MaxCustomerNameLength = 50

type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
)

func (s Size) Valid() bool {
	return s == SizeSmall || s == SizeMedium
}

type Order struct {
	ID           string     `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	CustomerName string     `json:"customer_name" bson:"customer_name" gorm:"size:50;index;not null"`
	DrinkID      string     `json:"drink_id" bson:"drink_id" gorm:"size:36;not null"`
	Size         Size       `json:"size" bson:"size" gorm:"size:16;not null"`
	Status       Status     `json:"status" bson:"status" gorm:"size:16;index;not null"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at" gorm:"index"`
	StartedAt    *time.Time `json:"started_at" bson:"started_at"`
	CompletedAt  *time.Time `json:"completed_at" bson:"completed_at"`
}

// OrderPatch is a partial update of an order. Nil fields are left untouched;
// the lifecycle never clears a timestamp so there is no way to express that.
type OrderPatch struct {
	Status      *Status
	StartedAt   *time.Time
	CompletedAt *time.Time
}

func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.StartedAt == nil && p.CompletedAt == nil
}

// Apply returns a copy of o with the patch applied.
func (p OrderPatch) Apply(o Order) Order {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.StartedAt != nil {
		t := *p.StartedAt
		o.StartedAt = &t
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		o.CompletedAt = &t
	}
	return o
}

// OrderDetail is an order joined with the name of its drink. DrinkName is nil
// when the drink no longer exists.
type OrderDetail struct {
	Order     `bson:",inline"`
	DrinkName *string `json:"drink_name" bson:"drink_name,omitempty"`
}

func (o OrderDetail) DrinkLabel() string {
	if o.DrinkName == nil {
		return DeletedDrinkLabel
	}
	return *o.DrinkName
}

// WithDrinkNames joins orders against a drink catalog in memory.
func WithDrinkNames(orders []Order, drinks []Drink) []OrderDetail {
	names := make(map[string]string, len(drinks))
	for _, d := range drinks {
		names[d.ID] = d.Name
	}
	details := make([]OrderDetail, 0, len(orders))
	for _, o := range orders {
		detail := OrderDetail{Order: o}
		if name, ok := names[o.DrinkID]; ok {
			n := name
			detail.DrinkName = &n
		}
		details = append(details, detail)
	}
	return details
}
