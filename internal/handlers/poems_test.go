package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type poemFixture struct {
	h     *PoemHandler
	store *memStore
	media *fakeMedia
	feed  *recordingFeed

	writer *models.User
	reader *models.User
	admin  *models.User
}

func newPoemFixture() *poemFixture {
	st := newMemStore()
	media := &fakeMedia{}
	feed := &recordingFeed{}
	f := &poemFixture{
		store:  st,
		media:  media,
		feed:   feed,
		writer: st.addUser(&models.User{FullName: "Meera Sharma", PenName: "Meera", UniqueID: "12345678"}),
		reader: st.addUser(&models.User{FullName: "Arjun Rao", UniqueID: "87654321"}),
		admin:  st.addUser(&models.User{FullName: "Admin", Role: models.RoleAdmin, UniqueID: "11111111"}),
	}
	f.h = &PoemHandler{
		Poems:          st,
		Users:          st,
		Media:          media,
		Moderator:      &services.Moderator{Poems: st, Feed: feed},
		Screener:       services.NewCommentScreener(nil),
		MaxUploadBytes: 1 << 20,
	}
	return f
}

func validPoemFields() map[string]string {
	return map[string]string{
		"title":       "Prem Kavita",
		"content":     "मन की बात",
		"category":    "kavya",
		"subcategory": "Ghazal",
		"languages":   `[{"mainLanguage":"Hindi","subLanguageName":"Awadhi"}]`,
	}
}

func TestCreatePoem(t *testing.T) {
	t.Run("writer submission is pending", func(t *testing.T) {
		f := newPoemFixture()
		req := multipartRequest(t, http.MethodPost, "/api/poems/create", validPoemFields(),
			formFile{field: "image", name: "cover.png", data: pngBytes})
		rec := httptest.NewRecorder()
		f.h.CreatePoem(rec, asUser(req, f.writer))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		env := decode(t, rec)
		assert.Equal(t, "Poem submitted for review", env.Message)

		var poem models.Poem
		env.field(t, "poem", &poem)
		assert.Equal(t, models.StatusPending, poem.Status)
		assert.Equal(t, models.CategoryKavya, poem.Category)
		assert.Equal(t, f.writer.ID, poem.WriterID)
		assert.NotEmpty(t, poem.Slug)
		assert.False(t, poem.IsAdminPost)
		require.Len(t, poem.Languages, 1)
		assert.Equal(t, "hindi", poem.Languages[0].MainLanguage)
		require.NotNil(t, poem.Image)
		assert.Len(t, f.media.uploaded, 1)

		require.Len(t, f.feed.events, 1)
		assert.Equal(t, services.EventPoemCreated, f.feed.events[0].Type)
	})

	t.Run("admin posts on behalf of a writer", func(t *testing.T) {
		f := newPoemFixture()
		fields := validPoemFields()
		fields["userUniqueId"] = f.writer.UniqueID
		rec := httptest.NewRecorder()
		f.h.CreatePoem(rec, asUser(multipartRequest(t, http.MethodPost, "/", fields), f.admin))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		env := decode(t, rec)
		assert.Equal(t, "Poem created and approved", env.Message)
		var poem models.Poem
		env.field(t, "poem", &poem)
		assert.Equal(t, models.StatusApproved, poem.Status)
		assert.True(t, poem.IsAdminPost)
		assert.Equal(t, f.writer.ID, poem.WriterID)
	})

	t.Run("unknown writer unique id", func(t *testing.T) {
		f := newPoemFixture()
		fields := validPoemFields()
		fields["userUniqueId"] = "00000000"
		rec := httptest.NewRecorder()
		f.h.CreatePoem(rec, asUser(multipartRequest(t, http.MethodPost, "/", fields), f.admin))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User with this unique ID not found", decode(t, rec).Message)
	})

	t.Run("non-admin cannot post for someone else", func(t *testing.T) {
		f := newPoemFixture()
		fields := validPoemFields()
		fields["userUniqueId"] = f.reader.UniqueID
		rec := httptest.NewRecorder()
		f.h.CreatePoem(rec, asUser(multipartRequest(t, http.MethodPost, "/", fields), f.writer))

		require.Equal(t, http.StatusCreated, rec.Code)
		var poem models.Poem
		decode(t, rec).field(t, "poem", &poem)
		assert.Equal(t, f.writer.ID, poem.WriterID)
		assert.Equal(t, models.StatusPending, poem.Status)
	})

	invalid := []struct {
		name    string
		mutate  func(map[string]string)
		message string
	}{
		{"bad category", func(m map[string]string) { m["category"] = "prose" }, "Category must be Gadhya or Kavya"},
		{"missing title", func(m map[string]string) { delete(m, "title") }, ""},
		{"blank title", func(m map[string]string) { m["title"] = "   " }, "title is required"},
		{"blank content", func(m map[string]string) { m["content"] = " \n\t " }, "content is required"},
		{"blank subcategory", func(m map[string]string) { m["subcategory"] = "  " }, "subcategory is required"},
		{"malformed languages", func(m map[string]string) { m["languages"] = "hindi" }, "Invalid languages format"},
		{"empty languages", func(m map[string]string) { m["languages"] = "[]" }, "At least one language is required"},
		{"bad video link", func(m map[string]string) { m["videoLink"] = "ftp://example.com/v" }, "videoLink must be a valid http(s) URL"},
		{"bad date", func(m map[string]string) { m["date"] = "yesterday" }, "Invalid date"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			f := newPoemFixture()
			fields := validPoemFields()
			tc.mutate(fields)
			rec := httptest.NewRecorder()
			f.h.CreatePoem(rec, asUser(multipartRequest(t, http.MethodPost, "/", fields), f.writer))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			if tc.message != "" {
				assert.Equal(t, tc.message, env.Message)
			}
			assert.Empty(t, f.store.poems)
		})
	}

	t.Run("wrong media type in image field", func(t *testing.T) {
		f := newPoemFixture()
		req := multipartRequest(t, http.MethodPost, "/", validPoemFields(),
			formFile{field: "image", name: "notes.txt", data: []byte("just some text")})
		rec := httptest.NewRecorder()
		f.h.CreatePoem(rec, asUser(req, f.writer))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid image format. Allowed: jpg, jpeg, png, webp", decode(t, rec).Message)
		assert.Empty(t, f.media.uploaded)
	})

	t.Run("uploads are removed when the insert fails", func(t *testing.T) {
		f := newPoemFixture()
		f.store.insertErr = assert.AnError
		req := multipartRequest(t, http.MethodPost, "/", validPoemFields(),
			formFile{field: "image", name: "cover.png", data: pngBytes})
		rec := httptest.NewRecorder()
		f.h.CreatePoem(rec, asUser(req, f.writer))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Len(t, f.media.uploaded, 1)
		assert.Equal(t, f.media.uploaded, f.media.destroyed)
	})

	t.Run("media disabled", func(t *testing.T) {
		f := newPoemFixture()
		f.h.Media = nil
		req := multipartRequest(t, http.MethodPost, "/", validPoemFields(),
			formFile{field: "image", name: "cover.png", data: pngBytes})
		rec := httptest.NewRecorder()
		f.h.CreatePoem(rec, asUser(req, f.writer))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Media uploads are not configured", decode(t, rec).Message)
	})
}

func TestUpdatePoemStatus(t *testing.T) {
	cases := []struct {
		name   string
		from   models.PoemStatus
		to     string
		status int
		msg    string
	}{
		{"approve pending", models.StatusPending, "approved", http.StatusOK, "Poem status updated to approved"},
		{"reject approved", models.StatusApproved, "REJECTED", http.StatusOK, "Poem status updated to rejected"},
		{"same status", models.StatusApproved, "approved", http.StatusConflict, "Poem is already approved"},
		{"illegal transition", models.StatusApproved, "pending", http.StatusConflict, ""},
		{"unknown status", models.StatusPending, "published", http.StatusBadRequest, "Invalid status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPoemFixture()
			poem := f.store.addPoem(&models.Poem{Title: "Barish", WriterID: f.writer.ID, Status: tc.from})

			req := jsonRequest(http.MethodPut, "/", map[string]string{"status": tc.to, "note": "checked"})
			req = withParams(asUser(req, f.admin), "id", poem.ID.Hex())
			rec := httptest.NewRecorder()
			f.h.UpdatePoemStatus(rec, req)

			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			if tc.msg != "" {
				assert.Equal(t, tc.msg, decode(t, rec).Message)
			}
			if tc.status == http.StatusOK {
				require.Len(t, f.feed.events, 1)
				ev := f.feed.events[0]
				assert.Equal(t, services.EventPoemStatus, ev.Type)
				assert.Equal(t, string(tc.from), ev.FromStatus)
				assert.Equal(t, f.admin.ID.Hex(), ev.ActorID)
			} else {
				assert.Equal(t, tc.from, f.store.poems[poem.ID].Status)
				assert.Empty(t, f.feed.events)
			}
		})
	}

	t.Run("invalid id", func(t *testing.T) {
		f := newPoemFixture()
		req := withParams(asUser(jsonRequest(http.MethodPut, "/", map[string]string{"status": "approved"}), f.admin), "id", "nope")
		rec := httptest.NewRecorder()
		f.h.UpdatePoemStatus(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestToggleLike(t *testing.T) {
	f := newPoemFixture()
	poem := f.store.addPoem(&models.Poem{Title: "Chand", WriterID: f.writer.ID, Status: models.StatusApproved})

	like := func() envelope {
		req := withParams(asUser(httptest.NewRequest(http.MethodPost, "/", nil), f.reader), "poemId", poem.ID.Hex())
		rec := httptest.NewRecorder()
		f.h.ToggleLike(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return decode(t, rec)
	}

	env := like()
	assert.Equal(t, "Poem liked", env.Message)
	var count int
	env.field(t, "likeCount", &count)
	assert.Equal(t, 1, count)

	env = like()
	assert.Equal(t, "Poem unliked", env.Message)
	env.field(t, "likeCount", &count)
	assert.Equal(t, 0, count)
}

func TestToggleBookmarkTwiceRestoresState(t *testing.T) {
	f := newPoemFixture()
	poem := f.store.addPoem(&models.Poem{Title: "Chand", WriterID: f.writer.ID, Status: models.StatusApproved})
	f.store.poems[poem.ID].Bookmarks = []models.Engagement{{UserID: f.admin.ID}}
	f.store.poems[poem.ID].RecomputeCounts()

	toggle := func() (bool, int) {
		req := withParams(asUser(httptest.NewRequest(http.MethodPost, "/", nil), f.reader), "poemId", poem.ID.Hex())
		rec := httptest.NewRecorder()
		f.h.ToggleBookmark(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		env := decode(t, rec)
		var bookmarked bool
		var count int
		env.field(t, "bookmarked", &bookmarked)
		env.field(t, "bookmarkCount", &count)
		return bookmarked, count
	}

	bookmarked, count := toggle()
	assert.True(t, bookmarked)
	assert.Equal(t, 2, count)
	assert.Len(t, f.store.poems[poem.ID].Bookmarks, count)
	assert.Equal(t, []primitive.ObjectID{poem.ID}, f.store.users[f.reader.ID].Bookmarks)

	bookmarked, count = toggle()
	assert.False(t, bookmarked)
	assert.Equal(t, 1, count)
	stored := f.store.poems[poem.ID]
	assert.Len(t, stored.Bookmarks, stored.BookmarkCount)
	assert.Equal(t, []models.Engagement{{UserID: f.admin.ID}}, stored.Bookmarks)
	assert.Empty(t, f.store.users[f.reader.ID].Bookmarks)
}

func TestToggleBookmarkMissingPoem(t *testing.T) {
	f := newPoemFixture()
	req := withParams(asUser(httptest.NewRequest(http.MethodPost, "/", nil), f.reader), "poemId", primitive.NewObjectID().Hex())
	rec := httptest.NewRecorder()
	f.h.ToggleBookmark(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Poem not found", decode(t, rec).Message)
}

func TestAddComment(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		status int
		msg    string
	}{
		{"ok", "  sundar rachna  ", http.StatusCreated, "Comment added"},
		{"blank", "   ", http.StatusBadRequest, "Comment text is required"},
		{"too long", strings.Repeat("क", maxCommentLength+1), http.StatusBadRequest, "Comment must be at most 1000 characters"},
		{"exactly the limit", strings.Repeat("क", maxCommentLength), http.StatusCreated, "Comment added"},
		{"spam", "Cl1ck h3re for FREE money", http.StatusBadRequest, "Comment contains inappropriate language"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPoemFixture()
			poem := f.store.addPoem(&models.Poem{Title: "Chand", WriterID: f.writer.ID, Status: models.StatusApproved})

			req := jsonRequest(http.MethodPost, "/", map[string]string{"commentText": tc.text})
			req = withParams(asUser(req, f.writer), "poemId", poem.ID.Hex())
			rec := httptest.NewRecorder()
			f.h.AddComment(rec, req)

			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			env := decode(t, rec)
			assert.Equal(t, tc.msg, env.Message)
			if tc.status != http.StatusCreated {
				assert.Empty(t, f.store.poems[poem.ID].Comments)
				return
			}
			var comment map[string]interface{}
			env.field(t, "comment", &comment)
			assert.Equal(t, "Meera", comment["username"])
			assert.Equal(t, strings.TrimSpace(tc.text), comment["commentText"])
			assert.Equal(t, "now", comment["timeAgo"])
			var count int
			env.field(t, "commentCount", &count)
			assert.Equal(t, 1, count)
		})
	}
}

func TestDeleteComment(t *testing.T) {
	f := newPoemFixture()
	commentID := primitive.NewObjectID()
	poem := f.store.addPoem(&models.Poem{
		Title:    "Chand",
		WriterID: f.writer.ID,
		Status:   models.StatusApproved,
		Comments: []models.Comment{{ID: commentID, UserID: f.reader.ID, Username: "Arjun Rao", CommentText: "wah"}},
	})

	del := func(u *models.User, id string) *httptest.ResponseRecorder {
		req := withParams(asUser(httptest.NewRequest(http.MethodDelete, "/", nil), u),
			"poemId", poem.ID.Hex(), "commentId", id)
		rec := httptest.NewRecorder()
		f.h.DeleteComment(rec, req)
		return rec
	}

	rec := del(f.writer, commentID.Hex())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, f.store.poems[poem.ID].Comments, 1)

	rec = del(f.reader, primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Comment not found", decode(t, rec).Message)

	rec = del(f.reader, commentID.Hex())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.store.poems[poem.ID].Comments)
}

func TestGetCommentsNewestFirst(t *testing.T) {
	f := newPoemFixture()
	older := models.Comment{ID: primitive.NewObjectID(), CommentText: "first"}
	newer := models.Comment{ID: primitive.NewObjectID(), CommentText: "second"}
	older.Date = newer.Date.AddDate(0, 0, -1)
	poem := f.store.addPoem(&models.Poem{Title: "Chand", Status: models.StatusApproved, Comments: []models.Comment{older, newer}})

	rec := httptest.NewRecorder()
	f.h.GetComments(rec, withParams(httptest.NewRequest(http.MethodGet, "/", nil), "poemId", poem.ID.Hex()))

	require.Equal(t, http.StatusOK, rec.Code)
	var comments []map[string]interface{}
	decode(t, rec).field(t, "comments", &comments)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0]["commentText"])
}

func TestDeletePoem(t *testing.T) {
	f := newPoemFixture()
	image := models.Media{URL: "https://res.cloudinary.com/demo/a.png", PublicID: "kavyalok/images/a"}
	poem := f.store.addPoem(&models.Poem{Title: "Chand", WriterID: f.writer.ID, Status: models.StatusApproved, Image: &image})
	f.reader.Bookmarks = []primitive.ObjectID{poem.ID}

	del := func(u *models.User) *httptest.ResponseRecorder {
		req := withParams(asUser(httptest.NewRequest(http.MethodDelete, "/", nil), u), "id", poem.ID.Hex())
		rec := httptest.NewRecorder()
		f.h.DeletePoem(rec, req)
		return rec
	}

	rec := del(f.reader)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, f.store.poems, poem.ID)

	rec = del(f.writer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Poem deleted successfully", decode(t, rec).Message)
	assert.NotContains(t, f.store.poems, poem.ID)
	assert.Empty(t, f.reader.Bookmarks)
	assert.Equal(t, []models.Media{image}, f.media.destroyed)

	rec = del(f.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPoemVisibility(t *testing.T) {
	f := newPoemFixture()
	poem := f.store.addPoem(&models.Poem{
		Title:    "Adhoori",
		Slug:     "adhoori",
		WriterID: f.writer.ID,
		Status:   models.StatusPending,
		Likes:    []models.Engagement{{UserID: f.writer.ID}},
	})

	get := func(u *models.User) *httptest.ResponseRecorder {
		req := withParams(asUser(httptest.NewRequest(http.MethodGet, "/", nil), u), "slug", poem.Slug)
		rec := httptest.NewRecorder()
		f.h.GetPoemBySlug(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNotFound, get(nil).Code)
	assert.Equal(t, http.StatusNotFound, get(f.reader).Code)
	assert.Equal(t, http.StatusOK, get(f.admin).Code)

	rec := get(f.writer)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var liked, bookmarked bool
	env.field(t, "isLiked", &liked)
	env.field(t, "isBookmarked", &bookmarked)
	assert.True(t, liked)
	assert.False(t, bookmarked)
	var writer map[string]interface{}
	env.field(t, "writer", &writer)
	assert.Equal(t, "Meera", writer["penName"])
	assert.NotContains(t, writer, "email")
}

func TestSearchPoemsAddsDevanagari(t *testing.T) {
	f := newPoemFixture()

	rec := httptest.NewRecorder()
	f.h.SearchPoems(rec, httptest.NewRequest(http.MethodGet, "/api/poems/search?q=prem", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"prem", "प्रेम"}, f.store.lastQuery.Terms)
	assert.Equal(t, models.StatusApproved, f.store.lastQuery.Status)

	rec = httptest.NewRecorder()
	f.h.SearchPoems(rec, httptest.NewRequest(http.MethodGet, "/api/poems/search?q=%E0%A4%AA%E0%A5%8D%E0%A4%B0%E0%A5%87%E0%A4%AE", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"प्रेम"}, f.store.lastQuery.Terms)

	rec = httptest.NewRecorder()
	f.h.SearchPoems(rec, httptest.NewRequest(http.MethodGet, "/api/poems/search?q=+", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSectionWithoutCache(t *testing.T) {
	f := newPoemFixture()
	for i := 0; i < 3; i++ {
		f.store.addPoem(&models.Poem{Title: "p", Status: models.StatusApproved})
	}
	f.store.addPoem(&models.Poem{Title: "hidden", Status: models.StatusPending})

	rec := httptest.NewRecorder()
	req := withParams(httptest.NewRequest(http.MethodGet, "/?limit=2", nil), "section", "most-liked")
	f.h.GetSection(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var poems []models.Poem
	var cached bool
	env.field(t, "poems", &poems)
	env.field(t, "cached", &cached)
	assert.Len(t, poems, 2)
	assert.False(t, cached)

	rec = httptest.NewRecorder()
	f.h.GetSection(rec, withParams(httptest.NewRequest(http.MethodGet, "/", nil), "section", "random"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPoemsByCategory(t *testing.T) {
	f := newPoemFixture()
	f.store.addPoem(&models.Poem{Title: "a", Category: models.CategoryGadhya, Status: models.StatusApproved})
	f.store.addPoem(&models.Poem{Title: "b", Category: models.CategoryKavya, Status: models.StatusApproved})

	rec := httptest.NewRecorder()
	f.h.GetPoemsByCategory(rec, withParams(httptest.NewRequest(http.MethodGet, "/", nil), "category", "GADHYA"))
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	var poems []models.Poem
	env.field(t, "poems", &poems)
	require.Len(t, poems, 1)
	assert.Equal(t, "a", poems[0].Title)
	var page map[string]int
	env.field(t, "pagination", &page)
	assert.Equal(t, map[string]int{"page": 1, "limit": 10, "total": 1, "pages": 1}, page)

	rec = httptest.NewRecorder()
	f.h.GetPoemsByCategory(rec, withParams(httptest.NewRequest(http.MethodGet, "/", nil), "category", "novel"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSharePoem(t *testing.T) {
	f := newPoemFixture()
	poem := f.store.addPoem(&models.Poem{Title: "a", Status: models.StatusApproved, ShareCount: 4})

	rec := httptest.NewRecorder()
	f.h.SharePoem(rec, withParams(httptest.NewRequest(http.MethodPost, "/", nil), "poemId", poem.ID.Hex()))

	require.Equal(t, http.StatusOK, rec.Code)
	var count int
	decode(t, rec).field(t, "shareCount", &count)
	assert.Equal(t, 5, count)
}

func TestAdminUpdatePoem(t *testing.T) {
	f := newPoemFixture()
	old := models.Media{URL: "https://res.cloudinary.com/demo/old.png", PublicID: "kavyalok/images/old"}
	poem := f.store.addPoem(&models.Poem{Title: "Purana", Slug: "purana", WriterID: f.writer.ID, Status: models.StatusPending, Image: &old})

	req := multipartRequest(t, http.MethodPut, "/", map[string]string{"title": "Naya Geet", "status": "approved"},
		formFile{field: "image", name: "new.png", data: pngBytes})
	req = withParams(asUser(req, f.admin), "id", poem.ID.Hex())
	rec := httptest.NewRecorder()
	f.h.AdminUpdatePoem(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Poem
	decode(t, rec).field(t, "poem", &updated)
	assert.Equal(t, "Naya Geet", updated.Title)
	assert.NotEqual(t, "purana", updated.Slug)
	assert.Equal(t, models.StatusApproved, updated.Status)
	require.NotNil(t, updated.Image)
	assert.Equal(t, f.media.uploaded[0], *updated.Image)
	assert.Equal(t, []models.Media{old}, f.media.destroyed)
}

func TestAdminUpdatePoemRejectsIllegalTransition(t *testing.T) {
	f := newPoemFixture()
	poem := f.store.addPoem(&models.Poem{Title: "Purana", WriterID: f.writer.ID, Status: models.StatusApproved})

	req := multipartRequest(t, http.MethodPut, "/", map[string]string{"title": "Naya", "status": "pending"})
	req = withParams(asUser(req, f.admin), "id", poem.ID.Hex())
	rec := httptest.NewRecorder()
	f.h.AdminUpdatePoem(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Purana", f.store.poems[poem.ID].Title)
}

func TestAdminUpdatePoemKeepsCurrentStatus(t *testing.T) {
	f := newPoemFixture()
	poem := f.store.addPoem(&models.Poem{Title: "Purana", WriterID: f.writer.ID, Status: models.StatusApproved})

	req := multipartRequest(t, http.MethodPut, "/", map[string]string{"title": "Naya", "status": "approved"})
	req = withParams(asUser(req, f.admin), "id", poem.ID.Hex())
	rec := httptest.NewRecorder()
	f.h.AdminUpdatePoem(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Naya", f.store.poems[poem.ID].Title)
	assert.Equal(t, models.StatusApproved, f.store.poems[poem.ID].Status)
	assert.Empty(t, f.feed.events)
}

func TestParseLanguages(t *testing.T) {
	tags, err := parseLanguages(`[{"mainLanguage":" Hindi ","subLanguageName":" Braj "},{"mainLanguage":"urdu"}]`)
	require.NoError(t, err)
	assert.Equal(t, []models.LanguageTag{
		{MainLanguage: "hindi", SubLanguageName: "Braj"},
		{MainLanguage: "urdu"},
	}, tags)

	for _, raw := range []string{"", "{}", "[]", `[{"subLanguageName":"x"}]`} {
		_, err := parseLanguages(raw)
		assert.Error(t, err, raw)
	}
}

func TestCheckVideoLink(t *testing.T) {
	assert.NoError(t, checkVideoLink(""))
	assert.NoError(t, checkVideoLink("https://youtu.be/abc"))
	assert.Error(t, checkVideoLink("youtu.be/abc"))
	assert.Error(t, checkVideoLink("javascript:alert(1)"))
}
