package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/kavyalok-backend/internal/middleware"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookmarkStore interface {
	AddBookmark(ctx context.Context, poemID, userID primitive.ObjectID) (bool, error)
	RemoveBookmark(ctx context.Context, poemID, userID primitive.ObjectID) (bool, error)
	PoemsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Poem, error)
}

type BookmarkHandler struct {
	Poems BookmarkStore
}

type BookmarkRequest struct {
	PoemID string `json:"poemId" validate:"required"`
}

func (h *BookmarkHandler) poemID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	var req BookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(req.PoemID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid poemId")
		return primitive.NilObjectID, false
	}
	return id, true
}

// AddBookmark is idempotent: bookmarking twice leaves one entry.
func (h *BookmarkHandler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, ok := h.poemID(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	added, err := h.Poems.AddBookmark(ctx, id, user.ID)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	message := "Poem already bookmarked"
	if added {
		message = "Poem bookmarked"
	}
	respond(w, http.StatusOK, message, H{"bookmarked": true})
}

func (h *BookmarkHandler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, ok := h.poemID(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if _, err := h.Poems.RemoveBookmark(ctx, id, user.ID); err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	respond(w, http.StatusOK, "Bookmark removed", H{"bookmarked": false})
}

// MyBookmarks lists the caller's bookmarked poems. Deleted poems drop out.
func (h *BookmarkHandler) MyBookmarks(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	ctx, cancel := requestContext(r)
	defer cancel()

	poems, err := h.Poems.PoemsByIDs(ctx, user.Bookmarks)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "", H{"bookmarks": poems, "count": len(poems)})
}
