package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/services"
	"github.com/AnshRaj112/kavyalok-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeAdminStore struct {
	users     []models.User
	poems     map[primitive.ObjectID]int64
	bookmarks map[primitive.ObjectID]int64
	statsErr  error
}

func (f *fakeAdminStore) ListUsers(_ context.Context, _ string, _ store.Page) ([]models.User, int64, error) {
	return f.users, int64(len(f.users)), nil
}

func (f *fakeAdminStore) CountUsers(context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeAdminStore) CountLanguages(context.Context) (int64, error) {
	return 4, nil
}

func (f *fakeAdminStore) PoemCountsByWriters(_ context.Context, _ []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	return f.poems, nil
}

func (f *fakeAdminStore) BookmarkCountsByUsers(_ context.Context, _ []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	return f.bookmarks, nil
}

func (f *fakeAdminStore) PoemStats(_ context.Context, stats *models.PoemStats) error {
	if f.statsErr != nil {
		return f.statsErr
	}
	stats.TotalPoems = 7
	stats.ByCategory[string(models.CategoryKavya)] = 7
	stats.ByStatus[string(models.StatusApproved)] = 5
	stats.ByStatus[string(models.StatusPending)] = 2
	return nil
}

type fakeModerationLister struct {
	got services.ModerationFilter
}

func (f *fakeModerationLister) List(_ context.Context, filter services.ModerationFilter) ([]models.ModerationEvent, error) {
	f.got = filter
	return []models.ModerationEvent{{PoemID: filter.PoemID, ToStatus: models.StatusApproved}}, nil
}

func TestListUsersWithCounts(t *testing.T) {
	a := models.User{ID: primitive.NewObjectID(), FullName: "A"}
	b := models.User{ID: primitive.NewObjectID(), FullName: "B"}
	h := &AdminHandler{Store: &fakeAdminStore{
		users:     []models.User{a, b},
		poems:     map[primitive.ObjectID]int64{a.ID: 3},
		bookmarks: map[primitive.ObjectID]int64{b.ID: 2},
	}}

	rec := httptest.NewRecorder()
	h.ListUsers(rec, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	decode(t, rec).field(t, "users", &rows)
	require.Len(t, rows, 2)
	assert.EqualValues(t, 3, rows[0]["poemCount"])
	assert.EqualValues(t, 0, rows[0]["bookmarkCount"])
	assert.EqualValues(t, 0, rows[1]["poemCount"])
	assert.EqualValues(t, 2, rows[1]["bookmarkCount"])
}

func TestDashboardStats(t *testing.T) {
	st := &fakeAdminStore{users: make([]models.User, 3)}
	h := &AdminHandler{Store: st}

	rec := httptest.NewRecorder()
	h.DashboardStats(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.PoemStats
	decode(t, rec).field(t, "stats", &stats)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(4), stats.TotalLanguages)
	assert.Equal(t, int64(7), stats.TotalPoems)
	assert.Equal(t, map[string]int64{"Gadhya": 0, "Kavya": 7}, stats.ByCategory)
	assert.Equal(t, int64(0), stats.ByStatus["rejected"])

	st.statsErr = assert.AnError
	rec = httptest.NewRecorder()
	h.DashboardStats(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestModerationLogFilters(t *testing.T) {
	audit := &fakeModerationLister{}
	h := &AdminHandler{Audit: audit}

	rec := httptest.NewRecorder()
	h.ModerationLog(rec, httptest.NewRequest(http.MethodGet, "/api/admin/moderation-log?poemId=p1&page=3&limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.ModerationFilter{PoemID: "p1", Limit: 5, Offset: 10}, audit.got)
	var events []models.ModerationEvent
	decode(t, rec).field(t, "events", &events)
	require.Len(t, events, 1)
}
