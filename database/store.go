// Package database is the record store: drinks, orders and approved users.
// Two backends implement Store, MongoDB and a gorm-backed SQL store
// (postgres, or sqlite for local runs and tests).
package database

import (
	"context"
	"errors"
	"fmt"

	"go-drink-stand/models"
	"go-drink-stand/realtime"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// StoreError is returned for every failed store call.
type StoreError struct {
	Op    string
	Table realtime.Table
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func wrap(op string, table realtime.Table, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Table: table, Err: err}
}

type DrinkOrder int

const (
	DrinksByCreated DrinkOrder = iota
	DrinksByName
)

type DrinkQuery struct {
	OrderBy DrinkOrder
}

// OrderQuery filters the order list. Zero values mean no filter and oldest
// first.
type OrderQuery struct {
	Statuses     []models.Status
	CustomerName string
	NewestFirst  bool
}

type Store interface {
	ListDrinks(ctx context.Context, q DrinkQuery) ([]models.Drink, error)
	GetDrink(ctx context.Context, id string) (models.Drink, error)
	InsertDrink(ctx context.Context, drink *models.Drink) error
	UpdateDrink(ctx context.Context, id string, patch models.DrinkPatch) error
	DeleteDrink(ctx context.Context, id string) error

	ListOrders(ctx context.Context, q OrderQuery) ([]models.OrderDetail, error)
	GetOrder(ctx context.Context, id string) (models.Order, error)
	InsertOrder(ctx context.Context, order *models.Order) error
	UpdateOrder(ctx context.Context, id string, patch models.OrderPatch) error
	DeleteAllOrders(ctx context.Context) (int64, error)

	ListUsers(ctx context.Context) ([]models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error

	Close(ctx context.Context) error
}

// Open connects to the backend selected by driver.
func Open(ctx context.Context, driver, dsn, mongoDatabase string) (Store, error) {
	switch driver {
	case DriverMongo:
		return OpenMongo(ctx, dsn, mongoDatabase)
	case DriverPostgres, DriverSQLite:
		return OpenSQL(driver, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
