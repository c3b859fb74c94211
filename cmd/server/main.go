package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/kavyalok-backend/internal/config"
	"github.com/AnshRaj112/kavyalok-backend/internal/database"
	"github.com/AnshRaj112/kavyalok-backend/internal/handlers"
	"github.com/AnshRaj112/kavyalok-backend/internal/logger"
	"github.com/AnshRaj112/kavyalok-backend/internal/middleware"
	"github.com/AnshRaj112/kavyalok-backend/internal/routes"
	"github.com/AnshRaj112/kavyalok-backend/internal/services"
	"github.com/AnshRaj112/kavyalok-backend/internal/store"
	"github.com/AnshRaj112/kavyalok-backend/pkg/clientip"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		logger.Log.Info("No .env file found")
	}
	// Load configuration
	cfg := config.Load()
	logger.InitLogger(cfg.Environment)
	log := logger.Log

	if cfg.IsProduction() && cfg.JWTSecret == "your-secret-key-change-in-production" {
		log.Fatal("JWT_SECRET must be set in production")
	}

	// Connect to MongoDB
	log.WithField("uri", database.MaskURI(cfg.MongoURI)).Info("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI, cfg.MongoDBName); err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer database.Disconnect()

	db := store.New(database.DB)
	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx); err != nil {
		log.WithError(err).Warn("⚠️  failed to ensure MongoDB indexes")
	}
	cancelIndexes()

	// Connect to Redis (cache, token denylist, moderation pub/sub)
	if cfg.RedisURI != "" {
		log.Info("Connecting to Redis...")
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer database.DisconnectRedis()
	} else {
		log.Warn("⚠️  REDIS_URI not set: caching, logout revocation and cross-instance events are disabled")
	}

	// Connect to PostgreSQL (moderation audit trail)
	var audit *services.ModerationLog
	if cfg.PostgresURI != "" {
		log.Info("Connecting to PostgreSQL...")
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			log.WithError(err).Fatal("Failed to connect to PostgreSQL")
		}
		defer database.DisconnectPostgres()
		if err := database.InitPostgresTables(); err != nil {
			log.WithError(err).Fatal("Failed to initialize PostgreSQL tables")
		}
		audit = services.NewModerationLog(database.PostgresDB)
	} else {
		log.Warn("⚠️  POSTGRES_URI not set: moderation events will not be recorded")
		audit = services.NewModerationLog(nil)
	}

	// Initialize Cloudinary service
	var media handlers.MediaStore
	if cfg.CloudinaryConfigured() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Cloudinary, file uploads will not be available")
		} else {
			media = cld
			log.Info("✅ Cloudinary service initialized")
		}
	} else {
		log.Warn("Cloudinary credentials not found. File uploads will not be available")
	}

	clientip.TrustProxyHeaders = cfg.TrustProxy

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := services.NewCacheService(database.RedisClient)
	denylist := services.NewTokenDenylist(database.RedisClient)
	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	feed := services.NewModerationFeed(database.RedisClient)
	feed.Start(ctx)
	moderator := &services.Moderator{Poems: db, Audit: audit, Feed: feed, Cache: cache}

	authenticator := &middleware.Authenticator{Tokens: tokens, Users: db, Denylist: denylist}
	metrics := middleware.NewMetrics()

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Info("✅ Production security enabled (security headers, host check, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.SecurityHeaders)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	// Setup routes
	routes.SetupRoutes(r, routes.Handlers{
		Authenticator: authenticator,
		Redis:         database.RedisClient,
		Auth: &handlers.AuthHandler{
			Users:      db,
			Tokens:     tokens,
			Denylist:   denylist,
			Production: cfg.IsProduction(),
		},
		Poems: &handlers.PoemHandler{
			Poems:          db,
			Users:          db,
			Media:          media,
			Moderator:      moderator,
			Cache:          cache,
			Screener:       services.NewCommentScreener(cfg.BlockedWords),
			MaxUploadBytes: cfg.MaxUploadBytes,
			SectionTTL:     cfg.SectionCacheTTL,
		},
		Languages: &handlers.LanguageHandler{Languages: db},
		Admin:     &handlers.AdminHandler{Store: db, Audit: audit},
		Bookmarks: &handlers.BookmarkHandler{Poems: db},
		Users:     &handlers.UserHandler{Store: db, Media: media, MaxUploadBytes: cfg.MaxUploadBytes},
		Commerce:  &handlers.CommerceHandler{Store: db},
		Feed:      &handlers.FeedHandler{Feed: feed, AllowedOrigins: cfg.AllowedOrigins},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("🚀 Kavyalok backend running on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
