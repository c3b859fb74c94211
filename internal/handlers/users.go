package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/kavyalok-backend/internal/middleware"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/services"
	"github.com/AnshRaj112/kavyalok-backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProfileStore interface {
	UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	UserByUniqueID(ctx context.Context, uniqueID string) (*models.User, error)
	ListPoems(ctx context.Context, q store.PoemQuery, page store.Page) ([]models.Poem, int64, error)
}

type UserHandler struct {
	Store          ProfileStore
	Media          MediaStore
	MaxUploadBytes int64
}

// ProfileForm carries the editable profile fields. Absent fields are left unchanged.
type ProfileForm struct {
	FullName  string `schema:"fullName" validate:"max=100"`
	PenName   string `schema:"penName" validate:"max=100"`
	Bio       string `schema:"bio" validate:"max=1000"`
	Facebook  string `schema:"facebook" validate:"omitempty,url"`
	Instagram string `schema:"instagram" validate:"omitempty,url"`
	Twitter   string `schema:"twitter" validate:"omitempty,url"`
	Youtube   string `schema:"youtube" validate:"omitempty,url"`
	Website   string `schema:"website" validate:"omitempty,url"`
}

var profileFields = map[string]string{
	"fullName":  "fullName",
	"penName":   "penName",
	"bio":       "bio",
	"facebook":  "socialLinks.facebook",
	"instagram": "socialLinks.instagram",
	"twitter":   "socialLinks.twitter",
	"youtube":   "socialLinks.youtube",
	"website":   "socialLinks.website",
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	respond(w, http.StatusOK, "", H{"user": user})
}

// UpdateProfile edits the caller's profile. A new avatar replaces the old
// one, which is destroyed once the profile is saved.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) || r.ParseForm() != nil {
			writeError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
	}
	var form ProfileForm
	if err := decodeForm(r, &form); err != nil {
		writeFailure(w, r, err, "")
		return
	}

	values := map[string]string{
		"fullName":  form.FullName,
		"penName":   form.PenName,
		"bio":       form.Bio,
		"facebook":  form.Facebook,
		"instagram": form.Instagram,
		"twitter":   form.Twitter,
		"youtube":   form.Youtube,
		"website":   form.Website,
	}
	set := bson.M{}
	for field, path := range profileFields {
		if _, present := r.PostForm[field]; present {
			set[path] = strings.TrimSpace(values[field])
		}
	}
	if name, ok := set["fullName"]; ok && name == "" {
		writeError(w, http.StatusBadRequest, "fullName cannot be empty")
		return
	}

	files, err := collectFiles(r, map[string]services.MediaKind{"avatar": services.MediaImage}, h.MaxUploadBytes)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	uploaded, err := uploadAll(ctx, h.Media, files)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	if avatar, ok := uploaded["avatar"]; ok {
		set["avatar"] = avatar
	}
	if len(set) == 0 {
		respond(w, http.StatusOK, "Nothing to update", H{"user": user})
		return
	}

	updated, err := h.Store.UpdateUser(ctx, user.ID, set)
	if err != nil {
		compensate(ctx, h.Media, uploaded)
		writeFailure(w, r, err, "User not found")
		return
	}
	if _, replaced := uploaded["avatar"]; replaced && !user.Avatar.Empty() {
		destroyLater(ctx, h.Media, []models.Media{*user.Avatar})
	}
	respond(w, http.StatusOK, "Profile updated successfully", H{"user": updated})
}

// GetPublicProfile shows a writer by unique id together with their approved poems.
func (h *UserHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	ctx, cancel := requestContext(r)
	defer cancel()

	writer, err := h.Store.UserByUniqueID(ctx, chi.URLParam(r, "uniqueId"))
	if err != nil {
		writeFailure(w, r, err, "User not found")
		return
	}
	poems, total, err := h.Store.ListPoems(ctx, store.PoemQuery{Status: models.StatusApproved, WriterID: writer.ID}, page)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "", H{
		"user":       writer.Public(),
		"poems":      poems,
		"pagination": pagination(page, total),
	})
}
