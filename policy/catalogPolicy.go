package policy

import (
	"sort"
	"strings"

	"go-drink-stand/models"
)

// DefaultFlagship is the drink the order page puts first.
const DefaultFlagship = "classic matcha latte"

// SortRule orders drinks within one availability partition. Less must be a
// strict weak ordering; equal drinks keep their input order.
type SortRule interface {
	Less(a, b models.Drink) bool
}

// FeaturedFirst puts drinks whose name contains Phrase ahead of the rest and
// otherwise keeps the input order.
type FeaturedFirst struct {
	Phrase string
}

func (r FeaturedFirst) Less(a, b models.Drink) bool {
	if r.Phrase == "" {
		return false
	}
	return r.featured(a) && !r.featured(b)
}

func (r FeaturedFirst) featured(d models.Drink) bool {
	return containsFold(d.Name, r.Phrase)
}

// NamedPriority ranks drinks by the first keyword their name contains, in
// Keywords order. Drinks matching no keyword come after, and ties at any rank
// are broken alphabetically ignoring case.
type NamedPriority struct {
	Keywords []string
}

func (r NamedPriority) Less(a, b models.Drink) bool {
	ra, rb := r.rank(a), r.rank(b)
	if ra != rb {
		return ra < rb
	}
	return fold(a.Name) < fold(b.Name)
}

func (r NamedPriority) rank(d models.Drink) int {
	for i, kw := range r.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" && containsFold(d.Name, kw) {
			return i
		}
	}
	return len(r.Keywords)
}

// VisibleAndOrdered returns the drinks with available ones first and
// unavailable ones last, each group ordered by rule. Unavailable drinks are
// kept so pages can show them as sold out. The input is not modified.
func VisibleAndOrdered(drinks []models.Drink, rule SortRule) []models.Drink {
	out := make([]models.Drink, len(drinks))
	copy(out, drinks)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsAvailable != b.IsAvailable {
			return a.IsAvailable
		}
		if rule == nil {
			return false
		}
		return rule.Less(a, b)
	})
	return out
}

// SelectDrink returns the drink and true if it may be selected for an
// order. Unavailable drinks are refused with no other effect.
func SelectDrink(d models.Drink) (models.Drink, bool) {
	if !d.IsAvailable {
		return models.Drink{}, false
	}
	return d, true
}
