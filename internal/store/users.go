package store

import (
	"context"
	"regexp"
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Bookmarks == nil {
		user.Bookmarks = []primitive.ObjectID{}
	}
	res, err := db.Users().InsertOne(ctx, user)
	if err != nil {
		return wrap(err, "insert user")
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (db *DB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := db.Users().FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, wrap(err, "find user")
	}
	return &u, nil
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return db.findUser(ctx, bson.M{"_id": id})
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.findUser(ctx, bson.M{"email": email})
}

func (db *DB) UserByUniqueID(ctx context.Context, uniqueID string) (*models.User, error) {
	return db.findUser(ctx, bson.M{"uniqueId": uniqueID})
}

func (db *DB) UniqueIDExists(ctx context.Context, uniqueID string) (bool, error) {
	n, err := db.Users().CountDocuments(ctx, bson.M{"uniqueId": uniqueID}, options.Count().SetLimit(1))
	return n > 0, wrap(err, "count uniqueId")
}

// UpdateUser applies set to the user and returns the updated document.
func (db *DB) UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	set["updatedAt"] = time.Now()
	var u models.User
	err := db.Users().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		return nil, wrap(err, "update user")
	}
	return &u, nil
}

// UserSearchFilter matches the search term case-insensitively against name, email and uniqueId.
func UserSearchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"fullName": rx},
		bson.M{"penName": rx},
		bson.M{"email": rx},
		bson.M{"uniqueId": rx},
	}}
}

func (db *DB) ListUsers(ctx context.Context, search string, page Page) ([]models.User, int64, error) {
	filter := UserSearchFilter(search)
	total, err := db.Users().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrap(err, "count users")
	}

	opts := page.findOptions().SetSort(bson.M{"createdAt": -1}).SetProjection(bson.M{"password": 0})
	cursor, err := db.Users().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrap(err, "list users")
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, wrap(err, "decode users")
	}
	return users, total, nil
}

func (db *DB) CountUsers(ctx context.Context) (int64, error) {
	n, err := db.Users().CountDocuments(ctx, bson.M{})
	return n, wrap(err, "count users")
}

func (db *DB) AddUserBookmark(ctx context.Context, userID, poemID primitive.ObjectID) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"bookmarks": poemID}})
	return wrap(err, "add user bookmark")
}

func (db *DB) RemoveUserBookmark(ctx context.Context, userID, poemID primitive.ObjectID) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"bookmarks": poemID}})
	return wrap(err, "remove user bookmark")
}

// PullBookmarkFromAllUsers drops a deleted poem from every user's bookmark list.
func (db *DB) PullBookmarkFromAllUsers(ctx context.Context, poemID primitive.ObjectID) error {
	_, err := db.Users().UpdateMany(ctx, bson.M{"bookmarks": poemID},
		bson.M{"$pull": bson.M{"bookmarks": poemID}})
	return wrap(err, "pull bookmark from users")
}
