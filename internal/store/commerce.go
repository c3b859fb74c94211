package store

import (
	"context"
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) CreateProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Status == "" {
		p.Status = models.ProductDraft
	}
	if p.Images == nil {
		p.Images = []models.Media{}
	}
	res, err := db.Products().InsertOne(ctx, p)
	if err != nil {
		return wrap(err, "insert product")
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (db *DB) ListProducts(ctx context.Context, status models.ProductStatus, page Page) ([]models.Product, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	total, err := db.Products().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrap(err, "count products")
	}
	cursor, err := db.Products().Find(ctx, filter, page.findOptions().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, 0, wrap(err, "list products")
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, wrap(err, "decode products")
	}
	return products, total, nil
}

func (db *DB) ProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := db.Products().FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, wrap(err, "find product")
	}
	return &p, nil
}

func (db *DB) UpdateProductStatus(ctx context.Context, id primitive.ObjectID, from, to models.ProductStatus) (*models.Product, error) {
	var p models.Product
	err := db.Products().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, wrap(err, "update product status")
	}
	return &p, nil
}

// CartByUser returns the user's cart, or an empty one when none is stored yet.
func (db *DB) CartByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var c models.Cart
	err := db.Carts().FindOne(ctx, bson.M{"userId": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, wrap(err, "find cart")
	}
	return &c, nil
}

func (db *DB) SaveCart(ctx context.Context, c *models.Cart) error {
	c.Recalculate()
	c.UpdatedAt = time.Now()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := db.Carts().ReplaceOne(ctx, bson.M{"userId": c.UserID}, c, options.Replace().SetUpsert(true))
	return wrap(err, "save cart")
}

// PlaceOrder turns the user's cart into an order and empties the cart.
func (db *DB) PlaceOrder(ctx context.Context, userID primitive.ObjectID) (*models.Order, error) {
	cart, err := db.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrNotFound
	}

	now := time.Now()
	order := &models.Order{
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    userID,
		Items:     cart.Items,
		Total:     cart.Total,
		Status:    models.OrderPlaced,
	}
	res, err := db.Orders().InsertOne(ctx, order)
	if err != nil {
		return nil, wrap(err, "insert order")
	}
	order.ID = res.InsertedID.(primitive.ObjectID)

	cart.Items = []models.CartItem{}
	if err := db.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return order, nil
}

func (db *DB) OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	cursor, err := db.Orders().Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, wrap(err, "list orders")
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, wrap(err, "decode orders")
	}
	return orders, nil
}

func (db *DB) OrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := db.Orders().FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, wrap(err, "find order")
	}
	return &o, nil
}

func (db *DB) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error) {
	var o models.Order
	err := db.Orders().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, wrap(err, "update order status")
	}
	return &o, nil
}
