package models

import (
	"time"
)

// User is an approved customer: a name allowed to place orders.
type User struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" bson:"name" gorm:"size:50;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// UserNames returns the names of users in their given order.
func UserNames(users []User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	return names
}
