package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/services"
	"github.com/AnshRaj112/kavyalok-backend/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type AdminStore interface {
	ListUsers(ctx context.Context, search string, page store.Page) ([]models.User, int64, error)
	CountUsers(ctx context.Context) (int64, error)
	CountLanguages(ctx context.Context) (int64, error)
	PoemCountsByWriters(ctx context.Context, writerIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error)
	BookmarkCountsByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error)
	PoemStats(ctx context.Context, stats *models.PoemStats) error
}

type ModerationLister interface {
	List(ctx context.Context, f services.ModerationFilter) ([]models.ModerationEvent, error)
}

type AdminHandler struct {
	Store AdminStore
	Audit ModerationLister
}

// ListUsers returns users with the number of poems they wrote and bookmarked.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	ctx, cancel := requestContext(r)
	defer cancel()

	users, total, err := h.Store.ListUsers(ctx, search, page)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	ids := make([]primitive.ObjectID, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}

	var poemCounts, bookmarkCounts map[primitive.ObjectID]int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		poemCounts, err = h.Store.PoemCountsByWriters(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		bookmarkCounts, err = h.Store.BookmarkCountsByUsers(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		writeFailure(w, r, err, "")
		return
	}

	rows := make([]models.UserSummary, len(users))
	for i, u := range users {
		rows[i] = models.UserSummary{
			User:          u,
			PoemCount:     poemCounts[u.ID],
			BookmarkCount: bookmarkCounts[u.ID],
		}
	}
	respond(w, http.StatusOK, "", H{
		"users":      rows,
		"pagination": pagination(page, total),
	})
}

// DashboardStats returns platform totals and the poem category and status splits.
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	stats := models.NewPoemStats()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalUsers, err = h.Store.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalLanguages, err = h.Store.CountLanguages(gctx)
		return err
	})
	g.Go(func() error {
		return h.Store.PoemStats(gctx, stats)
	})
	if err := g.Wait(); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "", H{"stats": stats})
}

type moderationQuery struct {
	PoemID  string `schema:"poemId"`
	AdminID string `schema:"adminId"`
}

// ModerationLog lists recorded status changes, newest first.
func (h *AdminHandler) ModerationLog(w http.ResponseWriter, r *http.Request) {
	var q moderationQuery
	if err := formDecoder.Decode(&q, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query")
		return
	}
	page := parsePage(r)

	ctx, cancel := requestContext(r)
	defer cancel()

	events, err := h.Audit.List(ctx, services.ModerationFilter{
		PoemID:  q.PoemID,
		AdminID: q.AdminID,
		Limit:   uint64(page.Limit),
		Offset:  uint64(page.Skip()),
	})
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "", H{
		"events": events,
		"page":   page.Page,
		"limit":  page.Limit,
	})
}
