package controllers

import (
	"context"
	"testing"
	"time"

	"go-drink-stand/helpers"
	"go-drink-stand/liveview"
	"go-drink-stand/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drinkNames(drinks []models.Drink) []string {
	names := make([]string, 0, len(drinks))
	for _, d := range drinks {
		names = append(names, d.Name)
	}
	return names
}

func (h *harness) placeOrder(customer string, drink models.Drink) models.Order {
	h.t.Helper()
	o := models.Order{
		CustomerName: customer,
		DrinkID:      drink.ID,
		Size:         models.SizeSmall,
		Status:       models.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(h.t, h.store.InsertOrder(context.Background(), &o))
	return o
}

func TestOrderPage_FollowsCatalogAndCustomers(t *testing.T) {
	h := newHarness(t)
	h.addDrink("Iced Latte", true)
	h.addUsers("Miffy")

	s := newSink()
	pg := h.ctl.NewOrderPage(s.send)
	require.NoError(t, pg.Mount(context.Background()))
	defer pg.Unmount()

	assert.Equal(t, []string{"Iced Latte"}, drinkNames(s.next(t, models.EventDrinks).Payload.([]models.Drink)))
	assert.Equal(t, []string{"Miffy"}, s.next(t, models.EventCustomers).Payload)

	h.addDrink("Classic Matcha Latte", true)
	assert.Equal(t, []string{"Classic Matcha Latte", "Iced Latte"}, drinkNames(s.next(t, models.EventDrinks).Payload.([]models.Drink)))

	h.addUsers("Boris")
	assert.Equal(t, []string{"Boris", "Miffy"}, s.next(t, models.EventCustomers).Payload)
}

func TestOrderPage_UnmountReleasesSubscriptions(t *testing.T) {
	h := newHarness(t)
	s := newSink()
	pg := h.ctl.NewOrderPage(s.send)
	require.NoError(t, pg.Mount(context.Background()))
	s.next(t, models.EventDrinks)
	assert.Equal(t, 2, h.hub.Len())

	pg.Unmount()
	assert.Equal(t, 0, h.hub.Len())

	h.addDrink("Iced Latte", true)
	s.quiet(t, models.EventDrinks)
}

func TestOrderPage_ReportsLoadErrors(t *testing.T) {
	h := newHarness(t)
	h.ctl.store = failingStore{Store: h.store}

	s := newSink()
	pg := h.ctl.NewOrderPage(s.send)
	require.NoError(t, pg.Mount(context.Background()))
	defer pg.Unmount()

	msg := s.next(t, models.EventError)
	ve, ok := msg.Payload.(viewError)
	require.True(t, ok)
	assert.Equal(t, "order.drinks", ve.View)
	assert.Contains(t, ve.Error, "please try again")
}

func TestStatusPage_FollowsOneCustomer(t *testing.T) {
	h := newHarness(t)
	h.addUsers("Miffy", "Boris")
	matcha := h.addDrink("Classic Matcha Latte", true)

	s := newSink()
	pg := h.ctl.NewStatusPage("Miffy", s.send)
	require.NoError(t, pg.Mount(context.Background()))
	defer pg.Unmount()
	assert.Equal(t, "Miffy", pg.Customer())

	assert.Empty(t, s.next(t, models.EventOrders).Payload)

	h.placeOrder("Boris", matcha)
	s.quiet(t, models.EventOrders)

	h.placeOrder("Miffy", matcha)
	rows := s.next(t, models.EventOrders).Payload.([]OrderRow)
	require.Len(t, rows, 1)
	assert.Equal(t, "Classic Matcha Latte", rows[0].DrinkName)
	assert.Equal(t, "Pending", rows[0].StatusLabel)

	name := "Matcha Latte"
	require.NoError(t, h.store.UpdateDrink(context.Background(), matcha.ID, models.DrinkPatch{Name: &name}))
	rows = s.next(t, models.EventOrders).Payload.([]OrderRow)
	require.Len(t, rows, 1)
	assert.Equal(t, "Matcha Latte", rows[0].DrinkName)
}

func TestAdminPage_EndsOnSignOut(t *testing.T) {
	h := newHarness(t)
	session, token, err := h.auth.SignIn(adminPassword)
	require.NoError(t, err)

	ended := make(chan struct{})
	s := newSink()
	pg := h.ctl.NewAdminPage(session, s.send, func() { close(ended) })
	require.NoError(t, pg.Mount(context.Background()))
	assert.Equal(t, session.ID, pg.Session().ID)

	for _, event := range []string{models.EventQueue, models.EventHistory, models.EventDrinks, models.EventUsers} {
		s.next(t, event)
	}
	assert.ErrorIs(t, pg.Mount(context.Background()), liveview.ErrMounted)

	require.NoError(t, h.auth.SignOut(token))

	msg := s.next(t, models.EventSessionEnded)
	assert.Equal(t, sessionEnded{Reason: helpers.SessionSignedOut}, msg.Payload)
	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatal("onEnd was not called")
	}
	assert.True(t, pg.Ended())
	assert.Equal(t, 0, h.hub.Len())

	assert.ErrorIs(t, pg.Mount(context.Background()), helpers.ErrSessionEnded)
}

func TestAdminPage_IgnoresOtherSessions(t *testing.T) {
	h := newHarness(t)
	session, _, err := h.auth.SignIn(adminPassword)
	require.NoError(t, err)
	_, other, err := h.auth.SignIn(adminPassword)
	require.NoError(t, err)

	s := newSink()
	pg := h.ctl.NewAdminPage(session, s.send, nil)
	require.NoError(t, pg.Mount(context.Background()))
	defer pg.Unmount()

	require.NoError(t, h.auth.SignOut(other))
	s.quiet(t, models.EventSessionEnded)
	assert.False(t, pg.Ended())
}

func TestAdminPage_RefusesExpiredSession(t *testing.T) {
	h := newHarness(t)
	session := helpers.Session{ID: "stale", Role: helpers.AdminRole, IssuedAt: base.Add(-time.Hour), ExpiresAt: base}

	pg := h.ctl.NewAdminPage(session, newSink().send, nil)
	assert.ErrorIs(t, pg.Mount(context.Background()), helpers.ErrSessionEnded)
	assert.Equal(t, 0, h.hub.Len())
}
