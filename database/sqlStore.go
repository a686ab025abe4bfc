package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-drink-stand/models"
	"go-drink-stand/realtime"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLStore keeps records in postgres or sqlite through gorm.
type SQLStore struct {
	db *gorm.DB
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

func OpenSQL(driver, dsn string) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// single writer avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
		for _, pragma := range sqlitePragmas {
			if err := db.Exec(pragma).Error; err != nil {
				return nil, fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}

	if err := db.AutoMigrate(&models.Drink{}, &models.Order{}, &models.User{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func sqlNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *SQLStore) ListDrinks(ctx context.Context, q DrinkQuery) ([]models.Drink, error) {
	order := "created_at asc, id asc"
	if q.OrderBy == DrinksByName {
		order = "name asc, id asc"
	}
	drinks := []models.Drink{}
	err := s.db.WithContext(ctx).Order(order).Find(&drinks).Error
	if err != nil {
		return nil, wrap("list", realtime.TableDrinks, err)
	}
	return drinks, nil
}

func (s *SQLStore) GetDrink(ctx context.Context, id string) (models.Drink, error) {
	var drink models.Drink
	err := s.db.WithContext(ctx).First(&drink, "id = ?", id).Error
	if err != nil {
		return models.Drink{}, wrap("get", realtime.TableDrinks, sqlNotFound(err))
	}
	return drink, nil
}

func (s *SQLStore) InsertDrink(ctx context.Context, drink *models.Drink) error {
	if drink.ID == "" {
		drink.ID = uuid.NewString()
	}
	// Select("*") so a false IsAvailable is written rather than skipped.
	err := s.db.WithContext(ctx).Select("*").Create(drink).Error
	return wrap("insert", realtime.TableDrinks, err)
}

func (s *SQLStore) UpdateDrink(ctx context.Context, id string, patch models.DrinkPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		if *patch.Description == "" {
			updates["description"] = nil
		} else {
			updates["description"] = *patch.Description
		}
	}
	if patch.IsAvailable != nil {
		updates["is_available"] = *patch.IsAvailable
	}
	res := s.db.WithContext(ctx).Model(&models.Drink{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return wrap("update", realtime.TableDrinks, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("update", realtime.TableDrinks, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) DeleteDrink(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Drink{})
	if res.Error != nil {
		return wrap("delete", realtime.TableDrinks, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("delete", realtime.TableDrinks, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) ListOrders(ctx context.Context, q OrderQuery) ([]models.OrderDetail, error) {
	tx := s.db.WithContext(ctx).Model(&models.Order{})
	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, st := range q.Statuses {
			statuses = append(statuses, string(st))
		}
		tx = tx.Where("status IN ?", statuses)
	}
	if q.CustomerName != "" {
		tx = tx.Where("customer_name = ?", q.CustomerName)
	}
	if q.NewestFirst {
		tx = tx.Order("created_at desc, id desc")
	} else {
		tx = tx.Order("created_at asc, id asc")
	}

	var orders []models.Order
	if err := tx.Find(&orders).Error; err != nil {
		return nil, wrap("list", realtime.TableOrders, err)
	}

	ids := make([]string, 0, len(orders))
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		if !seen[o.DrinkID] {
			seen[o.DrinkID] = true
			ids = append(ids, o.DrinkID)
		}
	}
	var drinks []models.Drink
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&drinks).Error; err != nil {
			return nil, wrap("list", realtime.TableDrinks, err)
		}
	}
	return models.WithDrinkNames(orders, drinks), nil
}

func (s *SQLStore) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		return models.Order{}, wrap("get", realtime.TableOrders, sqlNotFound(err))
	}
	return order, nil
}

func (s *SQLStore) InsertOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).Create(order).Error
	return wrap("insert", realtime.TableOrders, err)
}

func (s *SQLStore) UpdateOrder(ctx context.Context, id string, patch models.OrderPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}
	if patch.StartedAt != nil {
		updates["started_at"] = *patch.StartedAt
	}
	if patch.CompletedAt != nil {
		updates["completed_at"] = *patch.CompletedAt
	}
	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return wrap("update", realtime.TableOrders, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("update", realtime.TableOrders, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) DeleteAllOrders(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.Order{})
	if res.Error != nil {
		return 0, wrap("delete", realtime.TableOrders, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("name asc").Find(&users).Error; err != nil {
		return nil, wrap("list", realtime.TableUsers, err)
	}
	return users, nil
}

func (s *SQLStore) InsertUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = fmt.Errorf("%w: %q", ErrDuplicate, user.Name)
	}
	return wrap("insert", realtime.TableUsers, err)
}

func (s *SQLStore) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return wrap("delete", realtime.TableUsers, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("delete", realtime.TableUsers, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
