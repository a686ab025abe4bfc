package policy

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go-drink-stand/models"
)

const maxDrinkNameLength = 100

// DrinkInput is the admin form for a new drink.
type DrinkInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	IsAvailable *bool  `json:"is_available"`
}

// NewDrink builds a drink from the admin form. Drinks are available unless
// the form says otherwise.
func NewDrink(in DrinkInput, now time.Time) (models.Drink, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Struct(in); err != nil {
		return models.Drink{}, drinkError(err)
	}

	drink := models.Drink{
		Name:        in.Name,
		IsAvailable: in.IsAvailable == nil || *in.IsAvailable,
		CreatedAt:   now,
	}
	if in.Description != "" {
		drink.Description = &in.Description
	}
	return drink, nil
}

// DrinkEdit is a partial admin edit. A blank description clears it.
type DrinkEdit struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsAvailable *bool   `json:"is_available"`
}

func EditDrink(in DrinkEdit) (models.DrinkPatch, error) {
	var patch models.DrinkPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return patch, invalid("name", "drink name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxDrinkNameLength {
			return patch, invalid("name", fmt.Sprintf("drink name must be at most %d characters", maxDrinkNameLength))
		}
		patch.Name = &name
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		patch.Description = &desc
	}
	patch.IsAvailable = in.IsAvailable
	if patch.IsEmpty() {
		return patch, invalid("", "nothing to update")
	}
	return patch, nil
}

// ToggleAvailability flips a drink's availability.
func ToggleAvailability(d models.Drink) models.DrinkPatch {
	flipped := !d.IsAvailable
	return models.DrinkPatch{IsAvailable: &flipped}
}

// NewUser approves a customer name. Names already approved under any casing
// are refused.
func NewUser(name string, approved []string, now time.Time) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, invalid("name", "please enter a name")
	}
	if utf8.RuneCountInString(name) > models.MaxCustomerNameLength {
		return models.User{}, invalid("name", fmt.Sprintf("name is too long, please keep it under %d characters", models.MaxCustomerNameLength))
	}
	if existing, err := Canonicalize(name, approved); err == nil {
		return models.User{}, invalid("name", fmt.Sprintf("%s is already approved", existing))
	}
	return models.User{Name: name, CreatedAt: now}, nil
}

// SearchUsers returns the users whose name contains the trimmed query,
// ignoring case, in their given order. An empty query matches everyone.
func SearchUsers(users []models.User, query string) []models.User {
	query = strings.TrimSpace(query)
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if query == "" || containsFold(u.Name, query) {
			out = append(out, u)
		}
	}
	return out
}

func drinkError(err error) error {
	ve, ok := fromValidator(err).(*ValidationError)
	if !ok {
		return err
	}
	switch ve.Field {
	case "name":
		if strings.Contains(ve.Message, "max") {
			return invalid("name", fmt.Sprintf("drink name must be at most %d characters", maxDrinkNameLength))
		}
		return invalid("name", "drink name cannot be empty")
	case "description":
		return invalid("description", "description is too long")
	}
	return ve
}
