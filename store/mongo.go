package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/globizora/api-service/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const usersCollection = "users"

// publicProjection strips the password hash from every authorization read.
var publicProjection = bson.M{"password_hash": 0}

// MongoStore handles user documents in MongoDB.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, col: db.Collection(usersCollection)}
}

// EnsureSchema creates the unique indexes the store relies on for conflict detection.
func (s *MongoStore) EnsureSchema(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique")},
		{Keys: bson.D{{Key: "api_key", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetName("api_key_unique")},
	})
	if err != nil {
		return fmt.Errorf("mongo create indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        models.NormalizeEmail(email),
		PasswordHash: passwordHash,
		Subscription: models.TierFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("mongo insert: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email": models.NormalizeEmail(email)}, options.FindOne())
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(publicProjection))
}

func (s *MongoStore) FindByAPIKey(ctx context.Context, apiKey string) (models.User, error) {
	if apiKey == "" {
		return models.User{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"api_key": apiKey}, options.FindOne().SetProjection(publicProjection))
}

func (s *MongoStore) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetProjection(publicProjection).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return users, nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo count: %w", err)
	}
	return n, nil
}

// Update applies every field of the update in one FindOneAndUpdate so the
// document changes atomically.
func (s *MongoStore) Update(ctx context.Context, id string, update models.UserUpdate) (models.User, error) {
	if err := update.Validate(); err != nil {
		return models.User{}, err
	}

	doc := updateDocument(update, time.Now().UTC())

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(publicProjection)

	var user models.User
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, doc, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("mongo update: %w", err)
	}
	return user, nil
}

func updateDocument(update models.UserUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if update.Subscription != nil {
		set["subscription"] = *update.Subscription
	}
	if update.APIKey != nil {
		set["api_key"] = *update.APIKey
	}

	doc := bson.M{"$set": set}
	if update.UsageDelta != 0 {
		doc["$inc"] = bson.M{"usage": update.UsageDelta}
	}
	return doc
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (models.User, error) {
	var user models.User
	if err := s.col.FindOne(ctx, filter, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("mongo find one: %w", err)
	}
	return user, nil
}
