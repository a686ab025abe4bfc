package models

import "time"

type Drink struct {
	ID          string    `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	Name        string    `json:"name" bson:"name" gorm:"size:100;not null"`
	Description *string   `json:"description" bson:"description"`
	IsAvailable bool      `json:"is_available" bson:"is_available"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" gorm:"index"`
}

// DrinkPatch is a partial update of a drink. A Description pointing at the
// empty string clears the description.
type DrinkPatch struct {
	Name        *string
	Description *string
	IsAvailable *bool
}

func (p DrinkPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.IsAvailable == nil
}

// Apply returns a copy of d with the patch applied.
func (p DrinkPatch) Apply(d Drink) Drink {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Description != nil {
		if *p.Description == "" {
			d.Description = nil
		} else {
			desc := *p.Description
			d.Description = &desc
		}
	}
	if p.IsAvailable != nil {
		d.IsAvailable = *p.IsAvailable
	}
	return d
}
