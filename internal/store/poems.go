package store

import (
	"context"
	"regexp"
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SectionMostLiked      = "most-liked"
	SectionMostBookmarked = "most-bookmarked"
	SectionTrending       = "trending"
	SectionLatest         = "latest"

	trendingWindow = 30 * 24 * time.Hour
	toggleAttempts = 3
)

// listProjection keeps listing payloads small; engagement arrays are only
// returned by the detail endpoints.
var listProjection = bson.M{"likes": 0, "bookmarks": 0, "comments": 0}

// PoemQuery filters poem listings. Zero values mean "any".
type PoemQuery struct {
	Status      models.PoemStatus
	Category    models.Category
	Subcategory string
	Language    string
	WriterID    primitive.ObjectID
	// Terms are OR-ed regex searches over title, content and subcategory.
	Terms []string
}

// Filter builds the MongoDB filter for q.
func (q PoemQuery) Filter() bson.M {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Subcategory != "" {
		filter["subcategory"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q.Subcategory) + "$", Options: "i"}
	}
	if q.Language != "" {
		filter["languages.mainLanguage"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q.Language) + "$", Options: "i"}
	}
	if !q.WriterID.IsZero() {
		filter["writerId"] = q.WriterID
	}
	var or bson.A
	for _, term := range q.Terms {
		if term == "" {
			continue
		}
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		or = append(or, bson.M{"title": rx}, bson.M{"content": rx}, bson.M{"subcategory": rx})
	}
	if len(or) > 0 {
		filter["$or"] = or
	}
	return filter
}

func (db *DB) InsertPoem(ctx context.Context, p *models.Poem) error {
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Date.IsZero() {
		p.Date = now
	}
	if p.Likes == nil {
		p.Likes = []models.Engagement{}
	}
	if p.Bookmarks == nil {
		p.Bookmarks = []models.Engagement{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	p.RecomputeCounts()

	res, err := db.Poems().InsertOne(ctx, p)
	if err != nil {
		return wrap(err, "insert poem")
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (db *DB) findPoem(ctx context.Context, filter bson.M) (*models.Poem, error) {
	var p models.Poem
	if err := db.Poems().FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, wrap(err, "find poem")
	}
	return &p, nil
}

func (db *DB) PoemByID(ctx context.Context, id primitive.ObjectID) (*models.Poem, error) {
	return db.findPoem(ctx, bson.M{"_id": id})
}

func (db *DB) PoemBySlug(ctx context.Context, slug string) (*models.Poem, error) {
	return db.findPoem(ctx, bson.M{"slug": slug})
}

func (db *DB) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := db.Poems().CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	return n > 0, wrap(err, "count slug")
}

func (db *DB) ListPoems(ctx context.Context, q PoemQuery, page Page) ([]models.Poem, int64, error) {
	filter := q.Filter()
	total, err := db.Poems().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrap(err, "count poems")
	}

	opts := page.findOptions().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(listProjection)
	cursor, err := db.Poems().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrap(err, "list poems")
	}
	defer cursor.Close(ctx)

	poems := []models.Poem{}
	if err := cursor.All(ctx, &poems); err != nil {
		return nil, 0, wrap(err, "decode poems")
	}
	return poems, total, nil
}

// SectionPipeline builds the aggregation behind a home page section.
func SectionPipeline(section string, limit int, now time.Time) (mongo.Pipeline, error) {
	match := bson.D{{Key: "status", Value: models.StatusApproved}}
	var sort bson.D
	var stages mongo.Pipeline

	switch section {
	case SectionMostLiked:
		sort = bson.D{{Key: "likeCount", Value: -1}, {Key: "createdAt", Value: -1}}
	case SectionMostBookmarked:
		sort = bson.D{{Key: "bookmarkCount", Value: -1}, {Key: "createdAt", Value: -1}}
	case SectionLatest:
		sort = bson.D{{Key: "createdAt", Value: -1}}
	case SectionTrending:
		match = append(match, bson.E{Key: "createdAt", Value: bson.M{"$gte": now.Add(-trendingWindow)}})
		stages = append(stages, bson.D{{Key: "$addFields", Value: bson.M{
			"score": bson.M{"$add": bson.A{
				bson.M{"$ifNull": bson.A{"$likeCount", 0}},
				bson.M{"$ifNull": bson.A{"$bookmarkCount", 0}},
				bson.M{"$ifNull": bson.A{"$commentCount", 0}},
				bson.M{"$ifNull": bson.A{"$shareCount", 0}},
			}},
		}}})
		sort = bson.D{{Key: "score", Value: -1}, {Key: "createdAt", Value: -1}}
	default:
		return nil, errors.Errorf("unknown section %q", section)
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, stages...)
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: sort}},
		bson.D{{Key: "$limit", Value: int64(limit)}},
		bson.D{{Key: "$project", Value: bson.M{"likes": 0, "bookmarks": 0, "comments": 0, "score": 0}}},
	)
	return pipeline, nil
}

func (db *DB) SectionPoems(ctx context.Context, section string, limit int) ([]models.Poem, error) {
	pipeline, err := SectionPipeline(section, limit, time.Now())
	if err != nil {
		return nil, err
	}
	cursor, err := db.Poems().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrap(err, "aggregate section")
	}
	defer cursor.Close(ctx)

	poems := []models.Poem{}
	if err := cursor.All(ctx, &poems); err != nil {
		return nil, wrap(err, "decode section")
	}
	return poems, nil
}

// UpdatePoemStatus moves a poem from one status to another. It returns
// ErrConflict when the stored status is no longer from.
func (db *DB) UpdatePoemStatus(ctx context.Context, id primitive.ObjectID, from, to models.PoemStatus) (*models.Poem, error) {
	return db.UpdatePoem(ctx, id, from, bson.M{"status": to})
}

// UpdatePoem applies set to the poem. When expect is non-empty the update
// only applies while the stored status still equals it.
func (db *DB) UpdatePoem(ctx context.Context, id primitive.ObjectID, expect models.PoemStatus, set bson.M) (*models.Poem, error) {
	filter := bson.M{"_id": id}
	if expect != "" {
		filter["status"] = expect
	}
	set["updatedAt"] = time.Now()

	var p models.Poem
	err := db.Poems().FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) && expect != "" {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, wrap(err, "update poem")
	}
	return &p, nil
}

func (db *DB) ToggleLike(ctx context.Context, poemID, userID primitive.ObjectID) (bool, int, error) {
	return db.toggleEngagement(ctx, poemID, userID, "likes", "likeCount")
}

// ToggleBookmark flips the poem side and mirrors it onto User.bookmarks.
func (db *DB) ToggleBookmark(ctx context.Context, poemID, userID primitive.ObjectID) (bool, int, error) {
	added, count, err := db.toggleEngagement(ctx, poemID, userID, "bookmarks", "bookmarkCount")
	if err != nil {
		return false, 0, err
	}
	if added {
		err = db.AddUserBookmark(ctx, userID, poemID)
	} else {
		err = db.RemoveUserBookmark(ctx, userID, poemID)
	}
	return added, count, err
}

// AddBookmark bookmarks the poem unless it already is. Returns whether anything changed.
func (db *DB) AddBookmark(ctx context.Context, poemID, userID primitive.ObjectID) (bool, error) {
	_, changed, err := db.pushEngagement(ctx, poemID, userID, "bookmarks", "bookmarkCount")
	if err != nil {
		return false, err
	}
	if !changed {
		if _, err := db.PoemByID(ctx, poemID); err != nil {
			return false, err
		}
	}
	return changed, db.AddUserBookmark(ctx, userID, poemID)
}

func (db *DB) RemoveBookmark(ctx context.Context, poemID, userID primitive.ObjectID) (bool, error) {
	_, changed, err := db.pullEngagement(ctx, poemID, userID, "bookmarks", "bookmarkCount")
	if err != nil {
		return false, err
	}
	return changed, db.RemoveUserBookmark(ctx, userID, poemID)
}

// toggleEngagement adds the user to field when absent, otherwise removes
// them. Each branch is one guarded update, so two concurrent toggles by the
// same user can never both push or both pull.
func (db *DB) toggleEngagement(ctx context.Context, poemID, userID primitive.ObjectID, field, countField string) (bool, int, error) {
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		p, ok, err := db.pushEngagement(ctx, poemID, userID, field, countField)
		if err != nil {
			return false, 0, err
		}
		if ok {
			return true, engagementCount(p, countField), nil
		}

		p, ok, err = db.pullEngagement(ctx, poemID, userID, field, countField)
		if err != nil {
			return false, 0, err
		}
		if ok {
			return false, engagementCount(p, countField), nil
		}

		// Neither guard matched: the poem is gone or another toggle raced us.
		if _, err := db.PoemByID(ctx, poemID); err != nil {
			return false, 0, err
		}
	}
	return false, 0, ErrConflict
}

func (db *DB) pushEngagement(ctx context.Context, poemID, userID primitive.ObjectID, field, countField string) (*models.Poem, bool, error) {
	filter, update := PushEngagementUpdate(poemID, userID, field, countField, time.Now())
	return db.guardedUpdate(ctx, filter, update, countField)
}

func (db *DB) pullEngagement(ctx context.Context, poemID, userID primitive.ObjectID, field, countField string) (*models.Poem, bool, error) {
	filter, update := PullEngagementUpdate(poemID, userID, field, countField, time.Now())
	return db.guardedUpdate(ctx, filter, update, countField)
}

// PushEngagementUpdate matches the poem only while userID is absent from
// field, so the push and the count increment land together or not at all.
func PushEngagementUpdate(poemID, userID primitive.ObjectID, field, countField string, now time.Time) (filter, update bson.M) {
	filter = bson.M{"_id": poemID, field + ".userId": bson.M{"$ne": userID}}
	update = bson.M{
		"$push": bson.M{field: models.Engagement{UserID: userID, Date: now}},
		"$inc":  bson.M{countField: 1},
		"$set":  bson.M{"updatedAt": now},
	}
	return filter, update
}

// PullEngagementUpdate is the inverse of PushEngagementUpdate.
func PullEngagementUpdate(poemID, userID primitive.ObjectID, field, countField string, now time.Time) (filter, update bson.M) {
	filter = bson.M{"_id": poemID, field + ".userId": userID}
	update = bson.M{
		"$pull": bson.M{field: bson.M{"userId": userID}},
		"$inc":  bson.M{countField: -1},
		"$set":  bson.M{"updatedAt": now},
	}
	return filter, update
}

func (db *DB) guardedUpdate(ctx context.Context, filter, update bson.M, countField string) (*models.Poem, bool, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{countField: 1})
	var p models.Poem
	err := db.Poems().FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap(err, "update engagement")
	}
	return &p, true, nil
}

func engagementCount(p *models.Poem, countField string) int {
	if countField == "likeCount" {
		return p.LikeCount
	}
	return p.BookmarkCount
}

func (db *DB) AddComment(ctx context.Context, poemID primitive.ObjectID, c models.Comment) (*models.Poem, error) {
	var p models.Poem
	err := db.Poems().FindOneAndUpdate(ctx, bson.M{"_id": poemID},
		bson.M{
			"$push": bson.M{"comments": c},
			"$inc":  bson.M{"commentCount": 1},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		return nil, wrap(err, "add comment")
	}
	return &p, nil
}

func (db *DB) RemoveComment(ctx context.Context, poemID, commentID primitive.ObjectID) error {
	res, err := db.Poems().UpdateOne(ctx,
		bson.M{"_id": poemID, "comments._id": commentID},
		bson.M{
			"$pull": bson.M{"comments": bson.M{"_id": commentID}},
			"$inc":  bson.M{"commentCount": -1},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return wrap(err, "remove comment")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) IncrementShare(ctx context.Context, poemID primitive.ObjectID) (int, error) {
	var p models.Poem
	err := db.Poems().FindOneAndUpdate(ctx, bson.M{"_id": poemID},
		bson.M{"$inc": bson.M{"shareCount": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"shareCount": 1})).Decode(&p)
	if err != nil {
		return 0, wrap(err, "increment share")
	}
	return p.ShareCount, nil
}

func (db *DB) DeletePoem(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Poems().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap(err, "delete poem")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PoemsByIDs returns list views of the given poems, newest first.
func (db *DB) PoemsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Poem, error) {
	poems := []models.Poem{}
	if len(ids) == 0 {
		return poems, nil
	}
	cursor, err := db.Poems().Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.M{"createdAt": -1}).SetProjection(listProjection))
	if err != nil {
		return nil, wrap(err, "poems by ids")
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, &poems); err != nil {
		return nil, wrap(err, "decode poems")
	}
	return poems, nil
}

type countRow struct {
	ID    primitive.ObjectID `bson:"_id"`
	Count int64              `bson:"count"`
}

func (db *DB) countBy(ctx context.Context, pipeline mongo.Pipeline) (map[primitive.ObjectID]int64, error) {
	cursor, err := db.Poems().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrap(err, "aggregate counts")
	}
	defer cursor.Close(ctx)

	var rows []countRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrap(err, "decode counts")
	}
	out := make(map[primitive.ObjectID]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Count
	}
	return out, nil
}

// PoemCountsByWriters counts poems per writer.
func (db *DB) PoemCountsByWriters(ctx context.Context, writerIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	return db.countBy(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"writerId": bson.M{"$in": writerIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$writerId", "count": bson.M{"$sum": 1}}}},
	})
}

// BookmarkCountsByUsers counts, per user, the poems they have bookmarked.
// Poem.bookmarks holds {userId, date} entries keyed by the user's ObjectID.
func (db *DB) BookmarkCountsByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	return db.countBy(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"bookmarks.userId": bson.M{"$in": userIDs}}}},
		{{Key: "$unwind", Value: "$bookmarks"}},
		{{Key: "$match", Value: bson.M{"bookmarks.userId": bson.M{"$in": userIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$bookmarks.userId", "count": bson.M{"$sum": 1}}}},
	})
}

type bucket struct {
	ID    string `bson:"_id"`
	Count int64  `bson:"count"`
}

// PoemStats fills the poem side of the dashboard in one $facet round trip.
func (db *DB) PoemStats(ctx context.Context, stats *models.PoemStats) error {
	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"total":      bson.A{bson.M{"$count": "count"}},
			"byCategory": bson.A{bson.M{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
			"byStatus":   bson.A{bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
		}}},
	}
	cursor, err := db.Poems().Aggregate(ctx, pipeline)
	if err != nil {
		return wrap(err, "aggregate stats")
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total      []struct{ Count int64 } `bson:"total"`
		ByCategory []bucket                `bson:"byCategory"`
		ByStatus   []bucket                `bson:"byStatus"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return wrap(err, "decode stats")
	}
	if len(rows) == 0 {
		return nil
	}
	if len(rows[0].Total) > 0 {
		stats.TotalPoems = rows[0].Total[0].Count
	}
	for _, b := range rows[0].ByCategory {
		if b.ID != "" {
			stats.ByCategory[b.ID] = b.Count
		}
	}
	for _, b := range rows[0].ByStatus {
		if b.ID == "" {
			b.ID = string(models.StatusPending)
		}
		stats.ByStatus[b.ID] += b.Count
	}
	return nil
}
