package store

import (
	"context"

	"github.com/AnshRaj112/kavyalok-backend/internal/logger"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	// ErrConflict means the document changed underneath a conditional update.
	ErrConflict = errors.New("conflict")
)

// DB groups the repositories over one MongoDB database.
type DB struct {
	Database *mongo.Database
}

func New(database *mongo.Database) *DB {
	return &DB{Database: database}
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Poems() *mongo.Collection {
	return db.Database.Collection("poems")
}

func (db *DB) Languages() *mongo.Collection {
	return db.Database.Collection("languages")
}

func (db *DB) Products() *mongo.Collection {
	return db.Database.Collection("products")
}

func (db *DB) Carts() *mongo.Collection {
	return db.Database.Collection("carts")
}

func (db *DB) Orders() *mongo.Collection {
	return db.Database.Collection("orders")
}

// EnsureIndexes creates the indexes the queries rely on. Safe to call on every boot.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	specs := map[*mongo.Collection][]mongo.IndexModel{
		db.Users(): {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "uniqueId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		db.Poems(): {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "writerId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}},
		},
		db.Languages(): {
			{Keys: bson.D{{Key: "mainCategory", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		db.Carts(): {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		db.Orders(): {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, idx := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return errors.Wrapf(err, "create indexes on %s", coll.Name())
		}
	}
	logger.Log.Info("✅ MongoDB indexes ensured")
	return nil
}

// wrap maps driver errors onto the package sentinels.
func wrap(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(ErrDuplicate, msg)
	}
	return errors.Wrap(err, msg)
}

// Page is a resolved page/limit pair.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Skip() int64 {
	if p.Page < 1 {
		return 0
	}
	return int64((p.Page - 1) * p.Limit)
}

func (p Page) findOptions() *options.FindOptions {
	return options.Find().SetSkip(p.Skip()).SetLimit(int64(p.Limit))
}
