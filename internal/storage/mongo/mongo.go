// Package mongo stores users, records and budgets as MongoDB documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"spendly/internal/core"
	"spendly/internal/storage"
)

// Collection names kept from the documents the service has always written.
const (
	usersCollection   = "myusers"
	recordsCollection = "expense-datas"
	budgetsCollection = "mybudgets"
)

type Store struct {
	client  *mongo.Client
	users   *mongo.Collection
	records *mongo.Collection
	budgets *mongo.Collection
}

// Open connects to uri, selects database and ensures the unique email indexes.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:  client,
		users:   db.Collection(usersCollection),
		records: db.Collection(recordsCollection),
		budgets: db.Collection(budgetsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.users.Indexes().CreateOne(ctx, unique); err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	if _, err := s.budgets.Indexes().CreateOne(ctx, unique); err != nil {
		return fmt.Errorf("create budgets index: %w", err)
	}
	byEmail := mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}}
	if _, err := s.records.Indexes().CreateOne(ctx, byEmail); err != nil {
		return fmt.Errorf("create records index: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	_, err := s.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("user %q: %w", u.Email, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, storage.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, naturalOrder())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]core.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func naturalOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}})
}

func tuple(r core.Record) bson.M {
	return bson.M{
		"email":    r.Email,
		"date":     r.Date,
		"category": r.Category,
		"amount":   r.Amount,
		"notes":    r.Notes,
	}
}

func (s *Store) ListRecords(ctx context.Context, email string) ([]core.Record, error) {
	cur, err := s.records.Find(ctx, bson.M{"email": email}, naturalOrder())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	records := make([]core.Record, 0)
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

func (s *Store) InsertRecord(ctx context.Context, r core.Record) error {
	if _, err := s.records.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *Store) DeleteMatchingRecord(ctx context.Context, r core.Record) (bool, error) {
	res, err := s.records.DeleteOne(ctx, tuple(r))
	if err != nil {
		return false, fmt.Errorf("delete matching record: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) DeleteRecord(ctx context.Context, email, id string) (core.Record, error) {
	var r core.Record
	err := s.records.FindOneAndDelete(ctx, bson.M{"_id": id, "email": email}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("delete record: %w", err)
	}
	return r, nil
}

func (s *Store) ReplaceRecord(ctx context.Context, r core.Record) error {
	res, err := s.records.ReplaceOne(ctx, bson.M{"_id": r.ID, "email": r.Email}, r)
	if err != nil {
		return fmt.Errorf("replace record: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, email string) (core.Budget, error) {
	var b core.Budget
	err := s.budgets.FindOne(ctx, bson.M{"email": email}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Budget{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := s.budgets.InsertOne(ctx, b)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("budget %q: %w", b.Email, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (s *Store) UpdateBudget(ctx context.Context, email string, value float64) (core.Budget, error) {
	var b core.Budget
	err := s.budgets.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"budget": value}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Budget{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return b, nil
}

var _ storage.Store = (*Store)(nil)
