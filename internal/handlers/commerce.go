package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/kavyalok-backend/internal/middleware"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/store"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommerceStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	ListProducts(ctx context.Context, status models.ProductStatus, page store.Page) ([]models.Product, int64, error)
	ProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	UpdateProductStatus(ctx context.Context, id primitive.ObjectID, from, to models.ProductStatus) (*models.Product, error)
	CartByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	SaveCart(ctx context.Context, c *models.Cart) error
	PlaceOrder(ctx context.Context, userID primitive.ObjectID) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	OrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error)
}

// CommerceHandler serves the small product, cart and order surface.
type CommerceHandler struct {
	Store CommerceStore
}

type ProductRequest struct {
	Name          string         `json:"name" validate:"notblank,max=200"`
	Description   string         `json:"description" validate:"max=5000"`
	Vendor        string         `json:"vendor" validate:"max=200"`
	Price         float64        `json:"price" validate:"gt=0"`
	DiscountPrice float64        `json:"discountPrice" validate:"gte=0"`
	Stock         int            `json:"stock" validate:"gte=0"`
	Images        []models.Media `json:"images"`
	Status        string         `json:"status"`
}

type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// ListProducts shows published products. Admins may pass ?status=draft.
func (h *CommerceHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	status := models.ProductPublished
	if s := r.URL.Query().Get("status"); s != "" {
		if user, ok := middleware.UserFromContext(r.Context()); ok && user.IsAdmin() {
			parsed, err := models.ParseProductStatus(s)
			if err != nil {
				writeFailure(w, r, err, "")
				return
			}
			status = parsed
		}
	}
	page := parsePage(r)

	ctx, cancel := requestContext(r)
	defer cancel()

	products, total, err := h.Store.ListProducts(ctx, status, page)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "", H{"products": products, "pagination": pagination(page, total)})
}

func (h *CommerceHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := h.Store.ProductByID(ctx, id)
	if err != nil {
		writeFailure(w, r, err, "Product not found")
		return
	}
	viewer, _ := middleware.UserFromContext(r.Context())
	if product.Status != models.ProductPublished && (viewer == nil || !viewer.IsAdmin()) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	respond(w, http.StatusOK, "", H{"product": product})
}

func (h *CommerceHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	status := models.ProductDraft
	if req.Status != "" {
		parsed, err := models.ParseProductStatus(req.Status)
		if err != nil {
			writeFailure(w, r, err, "")
			return
		}
		status = parsed
	}
	product := &models.Product{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Vendor:        strings.TrimSpace(req.Vendor),
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		Images:        req.Images,
		Status:        status,
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := h.Store.CreateProduct(ctx, product); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusCreated, "Product created successfully", H{"product": product})
}

func (h *CommerceHandler) UpdateProductStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	to, err := models.ParseProductStatus(req.Status)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := h.Store.ProductByID(ctx, id)
	if err != nil {
		writeFailure(w, r, err, "Product not found")
		return
	}
	if err := product.Status.CheckTransition(to); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	updated, err := h.Store.UpdateProductStatus(ctx, id, product.Status, to)
	if err != nil {
		writeFailure(w, r, err, "Product not found")
		return
	}
	respond(w, http.StatusOK, "Product status updated to "+string(to), H{"product": updated})
}

func (h *CommerceHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := h.Store.CartByUser(ctx, user.ID)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "", H{"cart": cart})
}

// SetCartItem adds a product or changes its quantity. Quantity 0 removes it.
func (h *CommerceHandler) SetCartItem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	var req CartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid productId")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := h.Store.ProductByID(ctx, productID)
	if err != nil || product.Status != models.ProductPublished {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			writeFailure(w, r, err, "")
			return
		}
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if req.Quantity > product.Stock {
		writeError(w, http.StatusBadRequest, "Not enough stock")
		return
	}

	cart, err := h.Store.CartByUser(ctx, user.ID)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	cart.SetItem(models.CartItem{ProductID: productID, Quantity: req.Quantity, Price: product.EffectivePrice()})
	if err := h.Store.SaveCart(ctx, cart); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "Cart updated", H{"cart": cart})
}

func (h *CommerceHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	productID, ok := objectIDParam(w, r, "productId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := h.Store.CartByUser(ctx, user.ID)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	if !cart.RemoveItem(productID) {
		writeError(w, http.StatusNotFound, "Item not in cart")
		return
	}
	if err := h.Store.SaveCart(ctx, cart); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "Item removed", H{"cart": cart})
}

func (h *CommerceHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := h.Store.PlaceOrder(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusCreated, "Order placed", H{"order": order})
}

func (h *CommerceHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	ctx, cancel := requestContext(r)
	defer cancel()

	orders, err := h.Store.OrdersByUser(ctx, user.ID)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "", H{"orders": orders, "count": len(orders)})
}

func (h *CommerceHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	to, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := h.Store.OrderByID(ctx, id)
	if err != nil {
		writeFailure(w, r, err, "Order not found")
		return
	}
	if err := order.Status.CheckTransition(to); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	updated, err := h.Store.UpdateOrderStatus(ctx, id, order.Status, to)
	if err != nil {
		writeFailure(w, r, err, "Order not found")
		return
	}
	respond(w, http.StatusOK, "Order status updated to "+string(to), H{"order": updated})
}
