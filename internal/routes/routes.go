package routes

import (
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/handlers"
	"github.com/AnshRaj112/kavyalok-backend/internal/middleware"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Authenticator *middleware.Authenticator
	Redis         *redis.Client

	Auth      *handlers.AuthHandler
	Poems     *handlers.PoemHandler
	Languages *handlers.LanguageHandler
	Admin     *handlers.AdminHandler
	Bookmarks *handlers.BookmarkHandler
	Users     *handlers.UserHandler
	Commerce  *handlers.CommerceHandler
	Feed      *handlers.FeedHandler
}

func SetupRoutes(r chi.Router, h Handlers) {
	protect := h.Authenticator.Protect
	optional := h.Authenticator.Optional
	adminOnly := middleware.AuthorizeRoles(models.RoleAdmin)

	commentLimit := middleware.RedisRateLimit(h.Redis, "comments", 10, time.Minute)
	createLimit := middleware.RedisRateLimit(h.Redis, "poem-create", 20, time.Hour)

	// Auth routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.With(optional).Post("/logout", h.Auth.Logout)
		r.With(protect).Get("/me", h.Auth.Me)
	})

	// Profile routes
	r.Route("/api/users", func(r chi.Router) {
		r.With(protect).Get("/profile", h.Users.GetProfile)
		r.With(protect).Put("/profile", h.Users.UpdateProfile)
		r.Get("/{uniqueId}", h.Users.GetPublicProfile)
	})

	// Poem routes
	r.Route("/api/poems", func(r chi.Router) {
		r.Get("/", h.Poems.GetAllPoems)
		r.Get("/search", h.Poems.SearchPoems)
		r.Get("/category/{category}", h.Poems.GetPoemsByCategory)
		r.Get("/sections/{section}", h.Poems.GetSection)
		r.Get("/writer/{uniqueId}", h.Poems.GetWriterPoems)
		r.With(optional).Get("/slug/{slug}", h.Poems.GetPoemBySlug)
		r.Post("/{poemId}/share", h.Poems.SharePoem)
		r.With(optional).Get("/{poemId}/comments", h.Poems.GetComments)

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.With(createLimit).Post("/create", h.Poems.CreatePoem)
			r.Get("/my-poems", h.Poems.GetMyPoems)
			r.Post("/{poemId}/like", h.Poems.ToggleLike)
			r.Post("/{poemId}/bookmark", h.Poems.ToggleBookmark)
			r.With(commentLimit).Post("/{poemId}/comment", h.Poems.AddComment)
			r.Delete("/{poemId}/comments/{commentId}", h.Poems.DeleteComment)
			r.Delete("/{id}", h.Poems.DeletePoem)
		})

		// Admin moderation routes
		r.Group(func(r chi.Router) {
			r.Use(protect, adminOnly)
			r.Put("/{id}/status", h.Poems.UpdatePoemStatus)
			r.Get("/admin/poems/{status}", h.Poems.GetPoemsByStatus)
			r.Put("/admin/update/{id}", h.Poems.AdminUpdatePoem)
		})

		r.With(optional).Get("/{id}", h.Poems.GetPoemByID)
	})

	// Language routes
	r.Route("/api/languages", func(r chi.Router) {
		r.Get("/", h.Languages.ListLanguages)
		r.Get("/{id}", h.Languages.GetLanguage)
		r.Group(func(r chi.Router) {
			r.Use(protect, adminOnly)
			r.Post("/", h.Languages.CreateLanguage)
			r.Put("/{id}", h.Languages.UpdateLanguage)
			r.Delete("/{id}", h.Languages.DeleteLanguage)
			r.Delete("/{id}/sub/{subId}", h.Languages.DeleteSubLanguage)
		})
	})

	// Admin routes
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(protect, adminOnly)
		r.Get("/users", h.Admin.ListUsers)
		r.Get("/stats", h.Admin.DashboardStats)
		r.Get("/moderation-log", h.Admin.ModerationLog)
	})

	// Bookmark routes
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Use(protect)
		r.Post("/add", h.Bookmarks.AddBookmark)
		r.Post("/remove", h.Bookmarks.RemoveBookmark)
		r.Get("/my-bookmarks", h.Bookmarks.MyBookmarks)
	})

	// Commerce routes
	r.Route("/api/products", func(r chi.Router) {
		r.With(optional).Get("/", h.Commerce.ListProducts)
		r.With(optional).Get("/{id}", h.Commerce.GetProduct)
		r.With(protect, adminOnly).Post("/", h.Commerce.CreateProduct)
		r.With(protect, adminOnly).Put("/{id}/status", h.Commerce.UpdateProductStatus)
	})
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(protect)
		r.Get("/", h.Commerce.GetCart)
		r.Post("/items", h.Commerce.SetCartItem)
		r.Delete("/items/{productId}", h.Commerce.RemoveCartItem)
	})
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(protect)
		r.Post("/", h.Commerce.PlaceOrder)
		r.Get("/my-orders", h.Commerce.MyOrders)
		r.With(adminOnly).Put("/{id}/status", h.Commerce.UpdateOrderStatus)
	})

	// WebSocket endpoint for the admin moderation feed
	r.With(protect, adminOnly).Get("/ws/moderation", h.Feed.ModerationSocket)
}
