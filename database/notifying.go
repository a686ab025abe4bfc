package database

import (
	"context"
	"log/slog"

	"go-drink-stand/models"
	"go-drink-stand/realtime"
)

// NotifyingStore publishes a realtime.Change after every accepted write.
// A failed publish is logged; the write itself has already happened.
type NotifyingStore struct {
	Store
	pub realtime.Publisher
	log *slog.Logger
}

func WithNotifications(store Store, pub realtime.Publisher, log *slog.Logger) *NotifyingStore {
	return &NotifyingStore{Store: store, pub: pub, log: log}
}

func (s *NotifyingStore) notify(ctx context.Context, change realtime.Change) {
	if err := s.pub.Publish(ctx, change); err != nil {
		s.log.Warn("publish store change", "table", change.Table, "op", change.Op, "id", change.ID, "error", err)
	}
}

func (s *NotifyingStore) InsertDrink(ctx context.Context, drink *models.Drink) error {
	if err := s.Store.InsertDrink(ctx, drink); err != nil {
		return err
	}
	s.notify(ctx, realtime.Change{Table: realtime.TableDrinks, Op: realtime.OpInsert, ID: drink.ID})
	return nil
}

func (s *NotifyingStore) UpdateDrink(ctx context.Context, id string, patch models.DrinkPatch) error {
	if err := s.Store.UpdateDrink(ctx, id, patch); err != nil {
		return err
	}
	s.notify(ctx, realtime.Change{Table: realtime.TableDrinks, Op: realtime.OpUpdate, ID: id})
	return nil
}

func (s *NotifyingStore) DeleteDrink(ctx context.Context, id string) error {
	if err := s.Store.DeleteDrink(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, realtime.Change{Table: realtime.TableDrinks, Op: realtime.OpDelete, ID: id})
	return nil
}

func (s *NotifyingStore) InsertOrder(ctx context.Context, order *models.Order) error {
	if err := s.Store.InsertOrder(ctx, order); err != nil {
		return err
	}
	s.notify(ctx, realtime.Change{
		Table:        realtime.TableOrders,
		Op:           realtime.OpInsert,
		ID:           order.ID,
		CustomerName: order.CustomerName,
	})
	return nil
}

func (s *NotifyingStore) UpdateOrder(ctx context.Context, id string, patch models.OrderPatch) error {
	if err := s.Store.UpdateOrder(ctx, id, patch); err != nil {
		return err
	}
	change := realtime.Change{Table: realtime.TableOrders, Op: realtime.OpUpdate, ID: id}
	// without the customer the change reaches every order view
	if order, err := s.Store.GetOrder(ctx, id); err == nil {
		change.CustomerName = order.CustomerName
	}
	s.notify(ctx, change)
	return nil
}

func (s *NotifyingStore) DeleteAllOrders(ctx context.Context) (int64, error) {
	n, err := s.Store.DeleteAllOrders(ctx)
	if err != nil {
		return n, err
	}
	s.notify(ctx, realtime.Change{Table: realtime.TableOrders, Op: realtime.OpDelete})
	return n, nil
}

func (s *NotifyingStore) InsertUser(ctx context.Context, user *models.User) error {
	if err := s.Store.InsertUser(ctx, user); err != nil {
		return err
	}
	s.notify(ctx, realtime.Change{Table: realtime.TableUsers, Op: realtime.OpInsert, ID: user.ID})
	return nil
}

func (s *NotifyingStore) DeleteUser(ctx context.Context, id string) error {
	if err := s.Store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, realtime.Change{Table: realtime.TableUsers, Op: realtime.OpDelete, ID: id})
	return nil
}
