package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usernameIndex = "username_unique"
	emailIndex    = "email_unique"
)

// MongoRepository stores accounts in a MongoDB collection. Every call is
// bounded by the configured timeout.
type MongoRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

type dbAccount struct {
	ID           ID        `bson:"_id"`
	Username     string    `bson:"username"`
	Fullname     string    `bson:"fullname"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func NewMongoRepository(c *mongo.Collection, timeout time.Duration) *MongoRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MongoRepository{collection: c, timeout: timeout}
}

// EnsureIndexes creates the unique indexes that back username and email
// uniqueness at write time.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName(usernameIndex).SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(emailIndex).SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("creating account indexes: %w", err)
	}
	return nil
}

// Ping reports whether the deployment behind the collection is reachable.
func (m *MongoRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.collection.Database().Client().Ping(ctx, readpref.Primary())
}

func (m *MongoRepository) FindByName(ctx context.Context, username string) (*Account, error) {
	return m.findAccountBy(ctx, "username", username)
}

func (m *MongoRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return m.findAccountBy(ctx, "email", email)
}

func (m *MongoRepository) FindByID(ctx context.Context, id ID) (*Account, error) {
	return m.findAccountBy(ctx, "_id", string(id))
}

func (m *MongoRepository) findAccountBy(ctx context.Context, key string, val string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var a dbAccount
	err := m.collection.FindOne(ctx, bson.M{key: val}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding account by %s: %w", key, err)
	}
	return accountFromDB(a), nil
}

func (m *MongoRepository) Create(ctx context.Context, p Profile, passwordHash string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	a := dbAccount{
		ID:           NewID(),
		Username:     p.Username,
		Fullname:     p.Fullname,
		Email:        p.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := m.collection.InsertOne(ctx, &a); err != nil {
		return nil, translateWriteError(err)
	}
	return accountFromDB(a), nil
}

func (m *MongoRepository) UpdateByID(ctx context.Context, id ID, c ProfileChanges) (*Account, error) {
	if c.IsEmpty() {
		return m.FindByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}
	if c.Username != nil {
		set["username"] = *c.Username
	}
	if c.Fullname != nil {
		set["fullname"] = *c.Fullname
	}
	if c.Email != nil {
		set["email"] = *c.Email
	}

	var a dbAccount
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": string(id)}, bson.M{"$set": set}, opts).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translateWriteError(err)
	}
	return accountFromDB(a), nil
}

func (m *MongoRepository) DeleteByID(ctx context.Context, id ID) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var a dbAccount
	err := m.collection.FindOneAndDelete(ctx, bson.M{"_id": string(id)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deleting account: %w", err)
	}
	return accountFromDB(a), nil
}

// translateWriteError turns a unique index violation into a *DuplicateKeyError
// naming the offending field.
func translateWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("writing account: %w", err)
	}
	if strings.Contains(err.Error(), emailIndex) {
		return &DuplicateKeyError{Field: fieldEmail}
	}
	return &DuplicateKeyError{Field: fieldUsername}
}

func accountFromDB(a dbAccount) *Account {
	return &Account{
		ID:           a.ID,
		Username:     a.Username,
		Fullname:     a.Fullname,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
