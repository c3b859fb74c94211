package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/logger"
	"github.com/AnshRaj112/kavyalok-backend/internal/middleware"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/services"
	"github.com/AnshRaj112/kavyalok-backend/internal/store"
	"github.com/AnshRaj112/kavyalok-backend/pkg/utils"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const uniqueIDAttempts = 10

type AccountStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UniqueIDExists(ctx context.Context, uniqueID string) (bool, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// AuthHandler serves registration, login and session endpoints.
type AuthHandler struct {
	Users      AccountStore
	Tokens     *services.TokenIssuer
	Denylist   TokenRevoker
	Production bool
}

// Register request
type RegisterRequest struct {
	FullName        string `json:"fullName" validate:"notblank,max=100"`
	PenName         string `json:"penName" validate:"max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// Login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a reader/writer account and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	if err := utils.ValidatePassword(req.Password, req.ConfirmPassword); err != nil {
		writeFailure(w, r, err, "")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	email := utils.NormalizeEmail(req.Email)
	if _, err := h.Users.UserByEmail(ctx, email); err == nil {
		writeError(w, http.StatusConflict, "User already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeFailure(w, r, err, "")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		writeFailure(w, r, errors.Wrap(err, "hash password"), "")
		return
	}
	uniqueID, err := h.newUniqueID(ctx)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	user := &models.User{
		FullName: req.FullName,
		PenName:  req.PenName,
		Email:    email,
		Password: hashed,
		Role:     models.RoleUser,
		UniqueID: uniqueID,
	}
	if err := h.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		writeFailure(w, r, err, "")
		return
	}

	token, _, err := h.Tokens.Issue(user)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	http.SetCookie(w, h.cookie(middleware.UserTokenCookie, token))

	logger.FromContext(ctx).WithField("user_id", user.ID.Hex()).Info("✅ User registered")
	respond(w, http.StatusCreated, "User registered successfully", H{
		"user":  user,
		"token": token,
	})
}

// newUniqueID draws 8-digit ids until one is free.
func (h *AuthHandler) newUniqueID(ctx context.Context) (string, error) {
	for i := 0; i < uniqueIDAttempts; i++ {
		id, err := utils.NewUniqueID()
		if err != nil {
			return "", err
		}
		taken, err := h.Users.UniqueIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", errors.New("could not allocate a unique id")
}

// Login verifies credentials and sets the role-specific cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := h.Users.UserByEmail(ctx, utils.NormalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	ok, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if utils.IsLegacyHash(user.Password) {
		h.upgradeHash(ctx, user, req.Password)
	}

	token, _, err := h.Tokens.Issue(user)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	name := middleware.UserTokenCookie
	if user.IsAdmin() {
		name = middleware.AdminTokenCookie
	}
	http.SetCookie(w, h.cookie(name, token))

	respond(w, http.StatusOK, "Login successful", H{
		"user":  user,
		"token": token,
	})
}

// upgradeHash replaces a bcrypt hash carried over from the old deployment.
func (h *AuthHandler) upgradeHash(ctx context.Context, user *models.User, password string) {
	log := logger.FromContext(ctx).WithField("user_id", user.ID.Hex())
	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.WithError(err).Warn("failed to rehash legacy password")
		return
	}
	if _, err := h.Users.UpdateUser(ctx, user.ID, bson.M{"password": hashed}); err != nil {
		log.WithError(err).Warn("failed to store upgraded password hash")
		return
	}
	log.Info("upgraded legacy password hash")
}

// Logout clears the auth cookies and revokes the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok && h.Denylist != nil && claims.ExpiresAt != nil {
		ctx, cancel := requestContext(r)
		defer cancel()
		if err := h.Denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("failed to revoke token on logout")
		}
	}

	for _, name := range []string{middleware.AdminTokenCookie, middleware.UserTokenCookie, middleware.LegacyTokenCookie} {
		c := h.cookie(name, "")
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
	respond(w, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	respond(w, http.StatusOK, "", H{"user": user})
}

func (h *AuthHandler) cookie(name, value string) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(h.Tokens.TTL().Seconds()),
		SameSite: http.SameSiteLaxMode,
	}
	if h.Production {
		c.SameSite = http.SameSiteNoneMode
		c.Secure = true
	}
	return c
}
