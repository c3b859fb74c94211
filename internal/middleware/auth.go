package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/AnshRaj112/kavyalok-backend/internal/logger"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/services"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AdminTokenCookie  = "adminToken"
	UserTokenCookie   = "userToken"
	LegacyTokenCookie = "token"
)

type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

var (
	errNoToken     = errors.New("no token")
	errRevoked     = errors.New("token revoked")
	errUnknownUser = errors.New("user not found")
)

type TokenParser interface {
	Parse(token string) (*services.Claims, error)
}

type UserLoader interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Authenticator resolves the caller from a bearer token or auth cookie.
type Authenticator struct {
	Tokens   TokenParser
	Users    UserLoader
	Denylist RevocationChecker
}

// TokenFromRequest returns the bearer token, or the first auth cookie present
// in the order adminToken, userToken, token.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); token != "" {
			return token
		}
	}
	for _, name := range []string{AdminTokenCookie, UserTokenCookie, LegacyTokenCookie} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func (a *Authenticator) authenticate(r *http.Request) (*models.User, *services.Claims, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, nil, errNoToken
	}
	claims, err := a.Tokens.Parse(token)
	if err != nil {
		return nil, nil, err
	}
	if a.Denylist != nil {
		revoked, err := a.Denylist.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			// Redis trouble should not lock everyone out.
			logger.FromContext(r.Context()).WithError(err).Warn("denylist lookup failed")
		}
		if revoked {
			return nil, nil, errRevoked
		}
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, nil, errUnknownUser
	}
	user, err := a.Users.UserByID(r.Context(), id)
	if err != nil || user == nil {
		return nil, nil, errUnknownUser
	}
	return user, claims, nil
}

// Protect rejects requests without a valid session with 401.
func (a *Authenticator) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, claims, err := a.authenticate(r)
		if err != nil {
			msg := "Not authorized, token failed"
			if errors.Is(err, errNoToken) {
				msg = "Not authorized, no token"
			}
			writeError(w, http.StatusUnauthorized, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, claims)))
	})
}

// Optional attaches the user when a valid session is present and otherwise
// continues anonymously.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, claims, err := a.authenticate(r); err == nil {
			r = r.WithContext(withUser(r.Context(), user, claims))
		}
		next.ServeHTTP(w, r)
	})
}

// AuthorizeRoles allows only the listed roles through. Use after Protect.
func AuthorizeRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Role "+string(user.Role)+" is not authorized to access this resource")
		})
	}
}

func withUser(ctx context.Context, user *models.User, claims *services.Claims) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	ctx = context.WithValue(ctx, claimsKey, claims)
	entry := logger.FromContext(ctx).WithField("user_id", user.ID.Hex())
	return logger.WithEntry(ctx, entry)
}

// WithUser is exported for handler tests that bypass the token layer.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return withUser(ctx, user, &services.Claims{UserID: user.ID.Hex(), Role: user.Role})
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

func ClaimsFromContext(ctx context.Context) (*services.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*services.Claims)
	return claims, ok && claims != nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
