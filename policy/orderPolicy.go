package policy

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go-drink-stand/models"

	"github.com/go-playground/validator/v10"
)

// OrderInput is what a customer submits from the order page.
type OrderInput struct {
	CustomerName string `json:"customer_name" validate:"required,max=50"`
	DrinkID      string `json:"drink_id" validate:"required"`
	Size         string `json:"size" validate:"required,oneof=small medium"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewOrder builds a pending order from a customer submission. The catalog is
// the drink list the submitter was shown; the drink must still be in it and
// available. The name is trimmed but not checked against the approved list,
// see Canonicalize for that.
func NewOrder(in OrderInput, catalog []models.Drink, now time.Time) (models.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.DrinkID = strings.TrimSpace(in.DrinkID)
	in.Size = strings.TrimSpace(in.Size)

	if err := validate.Struct(in); err != nil {
		return models.Order{}, fromValidator(err)
	}

	drink, ok := findDrink(catalog, in.DrinkID)
	if !ok || !drink.IsAvailable {
		return models.Order{}, invalid("drink_id", "sorry, this drink is no longer available, please select another drink")
	}

	return models.Order{
		CustomerName: in.CustomerName,
		DrinkID:      drink.ID,
		Size:         models.Size(in.Size),
		Status:       models.StatusPending,
		CreatedAt:    now,
	}, nil
}

// Transition computes the patch that moves order to target. Entering
// in_progress stamps StartedAt and entering complete stamps CompletedAt, each
// only if not already set. Terminal orders are not guarded: re-cancelling or
// completing a cancelled order is allowed.
func Transition(order models.Order, target models.Status, now time.Time) (models.OrderPatch, error) {
	patch := models.OrderPatch{Status: &target}

	switch target {
	case models.StatusInProgress:
		if order.StartedAt == nil {
			patch.StartedAt = &now
		}
	case models.StatusComplete:
		if order.CompletedAt == nil {
			patch.CompletedAt = &now
		}
	case models.StatusCancelled:
	case models.StatusPending:
		return models.OrderPatch{}, invalid("status", "orders cannot be moved back to pending")
	default:
		return models.OrderPatch{}, &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("unknown status %q", string(target)),
			Err:     models.ErrUnknownStatus,
		}
	}

	return patch, nil
}

// ParseTarget parses a requested status for Transition.
func ParseTarget(s string) (models.Status, error) {
	status, err := models.ParseStatus(strings.TrimSpace(s))
	if err != nil {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s), Err: err}
	}
	return status, nil
}

func findDrink(catalog []models.Drink, id string) (models.Drink, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return models.Drink{}, false
}

func fromValidator(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &ValidationError{Message: err.Error(), Err: err}
	}

	fe := errs[0]
	field := fe.Field()
	switch field {
	case "customer_name":
		if fe.Tag() == "max" {
			return invalid(field, fmt.Sprintf("name is too long, please keep it under %d characters", models.MaxCustomerNameLength))
		}
		return invalid(field, "please enter your name")
	case "drink_id":
		return invalid(field, "please select a drink")
	case "size":
		return invalid(field, "please choose a size: small or medium")
	default:
		return invalid(field, fmt.Sprintf("failed on %s", fe.Tag()))
	}
}
