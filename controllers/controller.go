// Package controllers holds the HTTP handlers and the live pages behind the
// order, status and admin screens.
package controllers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go-drink-stand/database"
	"go-drink-stand/helpers"
	"go-drink-stand/models"
	"go-drink-stand/monitoring"
	"go-drink-stand/policy"
	"go-drink-stand/realtime"
)

type Options struct {
	Store   database.Store
	Feed    realtime.Feed
	Auth    *helpers.AuthProvider
	Metrics *monitoring.Metrics
	Log     *slog.Logger

	// Flagship is the phrase FeaturedFirst puts at the top of the order
	// page; Priority is the admin drink list's NamedPriority keywords.
	Flagship string
	Priority []string

	StoreTimeout time.Duration
	Now          func() time.Time
}

type Controller struct {
	store    database.Store
	feed     realtime.Feed
	auth     *helpers.AuthProvider
	metrics  *monitoring.Metrics
	log      *slog.Logger
	featured policy.SortRule
	priority policy.SortRule
	timeout  time.Duration
	now      func() time.Time
}

func New(opts Options) *Controller {
	ctl := &Controller{
		store:    opts.Store,
		feed:     opts.Feed,
		auth:     opts.Auth,
		metrics:  opts.Metrics,
		log:      opts.Log,
		featured: policy.FeaturedFirst{Phrase: opts.Flagship},
		priority: policy.NamedPriority{Keywords: opts.Priority},
		timeout:  opts.StoreTimeout,
		now:      opts.Now,
	}
	if ctl.metrics == nil {
		ctl.metrics = monitoring.New()
	}
	if ctl.log == nil {
		ctl.log = slog.Default()
	}
	if ctl.timeout <= 0 {
		ctl.timeout = 10 * time.Second
	}
	if ctl.now == nil {
		ctl.now = func() time.Time { return time.Now().UTC() }
	}
	return ctl
}

func (ctl *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, ctl.timeout)
}

// OrderRow is an order as the pages show it.
type OrderRow struct {
	models.Order
	DrinkName   string `json:"drink_name"`
	StatusLabel string `json:"status_label"`
}

func orderRows(details []models.OrderDetail) []OrderRow {
	rows := make([]OrderRow, 0, len(details))
	for _, d := range details {
		rows = append(rows, OrderRow{
			Order:       d.Order,
			DrinkName:   d.DrinkLabel(),
			StatusLabel: d.Status.Label(),
		})
	}
	return rows
}

func (ctl *Controller) loadCatalog(ctx context.Context) ([]models.Drink, error) {
	ctx, cancel := ctl.withTimeout(ctx)
	defer cancel()
	drinks, err := ctl.store.ListDrinks(ctx, database.DrinkQuery{OrderBy: database.DrinksByCreated})
	if err != nil {
		return nil, err
	}
	return policy.VisibleAndOrdered(drinks, ctl.featured), nil
}

func (ctl *Controller) loadAdminDrinks(ctx context.Context) ([]models.Drink, error) {
	ctx, cancel := ctl.withTimeout(ctx)
	defer cancel()
	drinks, err := ctl.store.ListDrinks(ctx, database.DrinkQuery{OrderBy: database.DrinksByName})
	if err != nil {
		return nil, err
	}
	return policy.VisibleAndOrdered(drinks, ctl.priority), nil
}

func (ctl *Controller) loadApproved(ctx context.Context) ([]string, error) {
	users, err := ctl.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	return models.UserNames(users), nil
}

func (ctl *Controller) loadUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := ctl.withTimeout(ctx)
	defer cancel()
	return ctl.store.ListUsers(ctx)
}

func (ctl *Controller) loadOrders(q database.OrderQuery) func(context.Context) ([]OrderRow, error) {
	return func(ctx context.Context) ([]OrderRow, error) {
		ctx, cancel := ctl.withTimeout(ctx)
		defer cancel()
		details, err := ctl.store.ListOrders(ctx, q)
		if err != nil {
			return nil, err
		}
		return orderRows(details), nil
	}
}

var (
	queueQuery = database.OrderQuery{
		Statuses: []models.Status{models.StatusPending, models.StatusInProgress},
	}
	historyQuery = database.OrderQuery{NewestFirst: true}
)

func customerQuery(name string) database.OrderQuery {
	return database.OrderQuery{CustomerName: name, NewestFirst: true}
}

// resolveCustomer returns the approved spelling of name when there is one,
// and the trimmed name otherwise.
func (ctl *Controller) resolveCustomer(ctx context.Context, name string) (string, error) {
	approved, err := ctl.loadApproved(ctx)
	if err != nil {
		return "", err
	}
	if canonical, err := policy.Canonicalize(name, approved); err == nil {
		return canonical, nil
	}
	return strings.TrimSpace(name), nil
}
