package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-drink-stand/models"
	"go-drink-stand/realtime"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	client *mongo.Client
	drinks *mongo.Collection
	orders *mongo.Collection
	users  *mongo.Collection
}

func OpenMongo(ctx context.Context, uri, databaseName string) (*MongoStore, error) {
	client, err := DBinstance(ctx, uri)
	if err != nil {
		return nil, err
	}
	s := &MongoStore{
		client: client,
		drinks: OpenCollection(client, databaseName, string(realtime.TableDrinks)),
		orders: OpenCollection(client, databaseName, string(realtime.TableOrders)),
		users:  OpenCollection(client, databaseName, string(realtime.TableUsers)),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return wrap("create index", realtime.TableUsers, err)
	}
	_, err = s.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "customer_name", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return wrap("create index", realtime.TableOrders, err)
}

func newObjectID() string {
	return primitive.NewObjectID().Hex()
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) ListDrinks(ctx context.Context, q DrinkQuery) ([]models.Drink, error) {
	opts := options.Find().SetSort(drinkSort(q))
	cursor, err := s.drinks.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrap("list", realtime.TableDrinks, err)
	}
	drinks := []models.Drink{}
	if err := cursor.All(ctx, &drinks); err != nil {
		return nil, wrap("list", realtime.TableDrinks, err)
	}
	return drinks, nil
}

func drinkSort(q DrinkQuery) bson.D {
	if q.OrderBy == DrinksByName {
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	}
	return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
}

func (s *MongoStore) GetDrink(ctx context.Context, id string) (models.Drink, error) {
	var drink models.Drink
	err := s.drinks.FindOne(ctx, bson.M{"_id": id}).Decode(&drink)
	if err != nil {
		return models.Drink{}, wrap("get", realtime.TableDrinks, notFound(err))
	}
	return drink, nil
}

func (s *MongoStore) InsertDrink(ctx context.Context, drink *models.Drink) error {
	if drink.ID == "" {
		drink.ID = newObjectID()
	}
	if drink.CreatedAt.IsZero() {
		drink.CreatedAt = time.Now().UTC()
	}
	_, err := s.drinks.InsertOne(ctx, drink)
	return wrap("insert", realtime.TableDrinks, err)
}

func (s *MongoStore) UpdateDrink(ctx context.Context, id string, patch models.DrinkPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	res, err := s.drinks.UpdateOne(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: drinkUpdate(patch)}})
	if err != nil {
		return wrap("update", realtime.TableDrinks, err)
	}
	if res.MatchedCount == 0 {
		return wrap("update", realtime.TableDrinks, ErrNotFound)
	}
	return nil
}

func drinkUpdate(patch models.DrinkPatch) bson.D {
	var set bson.D
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Description != nil {
		if *patch.Description == "" {
			set = append(set, bson.E{Key: "description", Value: nil})
		} else {
			set = append(set, bson.E{Key: "description", Value: *patch.Description})
		}
	}
	if patch.IsAvailable != nil {
		set = append(set, bson.E{Key: "is_available", Value: *patch.IsAvailable})
	}
	return set
}

func (s *MongoStore) DeleteDrink(ctx context.Context, id string) error {
	res, err := s.drinks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("delete", realtime.TableDrinks, err)
	}
	if res.DeletedCount == 0 {
		return wrap("delete", realtime.TableDrinks, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) ListOrders(ctx context.Context, q OrderQuery) ([]models.OrderDetail, error) {
	cursor, err := s.orders.Aggregate(ctx, orderPipeline(q))
	if err != nil {
		return nil, wrap("list", realtime.TableOrders, err)
	}
	orders := []models.OrderDetail{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, wrap("list", realtime.TableOrders, err)
	}
	return orders, nil
}

func orderFilter(q OrderQuery) bson.M {
	filter := bson.M{}
	if len(q.Statuses) > 0 {
		statuses := make(bson.A, 0, len(q.Statuses))
		for _, st := range q.Statuses {
			statuses = append(statuses, string(st))
		}
		filter["status"] = bson.M{"$in": statuses}
	}
	if q.CustomerName != "" {
		filter["customer_name"] = q.CustomerName
	}
	return filter
}

// orderPipeline matches and sorts orders, then joins each with its drink's
// name. Orders whose drink is gone come back without drink_name.
func orderPipeline(q OrderQuery) mongo.Pipeline {
	direction := 1
	if q.NewestFirst {
		direction = -1
	}
	matchStage := bson.D{{Key: "$match", Value: orderFilter(q)}}
	sortStage := bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: direction}, {Key: "_id", Value: direction}}}}
	lookupStage := bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: string(realtime.TableDrinks)},
		{Key: "localField", Value: "drink_id"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "drink"},
	}}}
	addFieldsStage := bson.D{{Key: "$addFields", Value: bson.D{
		{Key: "drink_name", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$drink.name", 0}}}},
	}}}
	projectStage := bson.D{{Key: "$project", Value: bson.D{{Key: "drink", Value: 0}}}}

	return mongo.Pipeline{matchStage, sortStage, lookupStage, addFieldsStage, projectStage}
}

func (s *MongoStore) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		return models.Order{}, wrap("get", realtime.TableOrders, notFound(err))
	}
	return order, nil
}

func (s *MongoStore) InsertOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = newObjectID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	_, err := s.orders.InsertOne(ctx, order)
	return wrap("insert", realtime.TableOrders, err)
}

func (s *MongoStore) UpdateOrder(ctx context.Context, id string, patch models.OrderPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	res, err := s.orders.UpdateOne(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: orderUpdate(patch)}})
	if err != nil {
		return wrap("update", realtime.TableOrders, err)
	}
	if res.MatchedCount == 0 {
		return wrap("update", realtime.TableOrders, ErrNotFound)
	}
	return nil
}

func orderUpdate(patch models.OrderPatch) bson.D {
	var set bson.D
	if patch.Status != nil {
		set = append(set, bson.E{Key: "status", Value: string(*patch.Status)})
	}
	if patch.StartedAt != nil {
		set = append(set, bson.E{Key: "started_at", Value: *patch.StartedAt})
	}
	if patch.CompletedAt != nil {
		set = append(set, bson.E{Key: "completed_at", Value: *patch.CompletedAt})
	}
	return set
}

func (s *MongoStore) DeleteAllOrders(ctx context.Context) (int64, error) {
	res, err := s.orders.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, wrap("delete", realtime.TableOrders, err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrap("list", realtime.TableUsers, err)
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, wrap("list", realtime.TableUsers, err)
	}
	return users, nil
}

func (s *MongoStore) InsertUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		err = fmt.Errorf("%w: %q", ErrDuplicate, user.Name)
	}
	return wrap("insert", realtime.TableUsers, err)
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("delete", realtime.TableUsers, err)
	}
	if res.DeletedCount == 0 {
		return wrap("delete", realtime.TableUsers, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
