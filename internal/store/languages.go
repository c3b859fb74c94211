package store

import (
	"context"
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) CreateLanguage(ctx context.Context, l *models.Language) error {
	now := time.Now()
	l.CreatedAt, l.UpdatedAt = now, now
	assignSubIDs(l.SubLanguages)
	res, err := db.Languages().InsertOne(ctx, l)
	if err != nil {
		return wrap(err, "insert language")
	}
	l.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (db *DB) ListLanguages(ctx context.Context) ([]models.Language, error) {
	cursor, err := db.Languages().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"mainCategory": 1}))
	if err != nil {
		return nil, wrap(err, "list languages")
	}
	defer cursor.Close(ctx)

	languages := []models.Language{}
	if err := cursor.All(ctx, &languages); err != nil {
		return nil, wrap(err, "decode languages")
	}
	return languages, nil
}

func (db *DB) LanguageByID(ctx context.Context, id primitive.ObjectID) (*models.Language, error) {
	var l models.Language
	if err := db.Languages().FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, wrap(err, "find language")
	}
	return &l, nil
}

// UpdateLanguage replaces the main category name and sub-language list.
func (db *DB) UpdateLanguage(ctx context.Context, id primitive.ObjectID, mainCategory string, subs []models.SubLanguage) (*models.Language, error) {
	set := bson.M{"updatedAt": time.Now()}
	if mainCategory != "" {
		set["mainCategory"] = mainCategory
	}
	if subs != nil {
		assignSubIDs(subs)
		set["subLanguages"] = subs
	}
	var l models.Language
	err := db.Languages().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&l)
	if err != nil {
		return nil, wrap(err, "update language")
	}
	return &l, nil
}

func (db *DB) DeleteLanguage(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Languages().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap(err, "delete language")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteSubLanguage(ctx context.Context, id, subID primitive.ObjectID) (*models.Language, error) {
	var l models.Language
	err := db.Languages().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "subLanguages._id": subID},
		bson.M{"$pull": bson.M{"subLanguages": bson.M{"_id": subID}}, "$set": bson.M{"updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&l)
	if err != nil {
		return nil, wrap(err, "delete sub-language")
	}
	return &l, nil
}

func (db *DB) CountLanguages(ctx context.Context) (int64, error) {
	n, err := db.Languages().CountDocuments(ctx, bson.M{})
	return n, wrap(err, "count languages")
}

func assignSubIDs(subs []models.SubLanguage) {
	for i := range subs {
		if subs[i].ID.IsZero() {
			subs[i].ID = primitive.NewObjectID()
		}
	}
}
