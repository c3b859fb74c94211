package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/middleware"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/services"
	"github.com/AnshRaj112/kavyalok-backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for store.DB.
type memStore struct {
	mu        sync.Mutex
	users     map[primitive.ObjectID]*models.User
	poems     map[primitive.ObjectID]*models.Poem
	languages map[primitive.ObjectID]*models.Language

	insertErr error
	lastQuery store.PoemQuery
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[primitive.ObjectID]*models.User{},
		poems:     map[primitive.ObjectID]*models.Poem{},
		languages: map[primitive.ObjectID]*models.Language{},
	}
}

func (m *memStore) addUser(u *models.User) *models.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addPoem(p *models.Poem) *models.Poem {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Slug == "" {
		p.Slug = p.ID.Hex()
	}
	m.poems[p.ID] = p
	return p
}

// Users

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return errors.Wrap(store.ErrDuplicate, "insert user")
		}
	}
	m.addUser(u)
	return nil
}

func (m *memStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UserByUniqueID(_ context.Context, uniqueID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UniqueID == uniqueID {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UniqueIDExists(ctx context.Context, uniqueID string) (bool, error) {
	_, err := m.UserByUniqueID(ctx, uniqueID)
	return err == nil, nil
}

func (m *memStore) UpdateUser(_ context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if pw, ok := set["password"].(string); ok {
		u.Password = pw
	}
	if name, ok := set["fullName"].(string); ok {
		u.FullName = name
	}
	if pen, ok := set["penName"].(string); ok {
		u.PenName = pen
	}
	if avatar, ok := set["avatar"].(models.Media); ok {
		u.Avatar = &avatar
	}
	return u, nil
}

func (m *memStore) PullBookmarkFromAllUsers(_ context.Context, poemID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		kept := u.Bookmarks[:0]
		for _, id := range u.Bookmarks {
			if id != poemID {
				kept = append(kept, id)
			}
		}
		u.Bookmarks = kept
	}
	return nil
}

// Poems

func (m *memStore) InsertPoem(_ context.Context, p *models.Poem) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt = time.Now()
	p.RecomputeCounts()
	m.addPoem(p)
	return nil
}

func (m *memStore) PoemByID(_ context.Context, id primitive.ObjectID) (*models.Poem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.poems[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) PoemBySlug(_ context.Context, slug string) (*models.Poem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.poems {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := m.PoemBySlug(ctx, slug)
	return err == nil, nil
}

func (m *memStore) ListPoems(_ context.Context, q store.PoemQuery, page store.Page) ([]models.Poem, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	out := []models.Poem{}
	for _, p := range m.poems {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if !q.WriterID.IsZero() && p.WriterID != q.WriterID {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (m *memStore) SectionPoems(_ context.Context, section string, limit int) ([]models.Poem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Poem{}
	for _, p := range m.poems {
		if p.Status == models.StatusApproved && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) UpdatePoem(_ context.Context, id primitive.ObjectID, expect models.PoemStatus, set bson.M) (*models.Poem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.poems[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if expect != "" && p.Status != expect {
		return nil, store.ErrConflict
	}
	for k, v := range set {
		switch k {
		case "status":
			p.Status = v.(models.PoemStatus)
		case "title":
			p.Title = v.(string)
		case "slug":
			p.Slug = v.(string)
		case "content":
			p.Content = v.(string)
		case "image":
			img := v.(models.Media)
			p.Image = &img
		}
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdatePoemStatus(ctx context.Context, id primitive.ObjectID, from, to models.PoemStatus) (*models.Poem, error) {
	return m.UpdatePoem(ctx, id, from, bson.M{"status": to})
}

func (m *memStore) toggle(list *[]models.Engagement, userID primitive.ObjectID) bool {
	for i, e := range *list {
		if e.UserID == userID {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return false
		}
	}
	*list = append(*list, models.Engagement{UserID: userID, Date: time.Now()})
	return true
}

func (m *memStore) ToggleLike(_ context.Context, poemID, userID primitive.ObjectID) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.poems[poemID]
	if !ok {
		return false, 0, store.ErrNotFound
	}
	liked := m.toggle(&p.Likes, userID)
	p.RecomputeCounts()
	return liked, p.LikeCount, nil
}

func (m *memStore) ToggleBookmark(_ context.Context, poemID, userID primitive.ObjectID) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.poems[poemID]
	if !ok {
		return false, 0, store.ErrNotFound
	}
	added := m.toggle(&p.Bookmarks, userID)
	p.RecomputeCounts()
	if u, ok := m.users[userID]; ok {
		kept := u.Bookmarks[:0]
		for _, id := range u.Bookmarks {
			if id != poemID {
				kept = append(kept, id)
			}
		}
		if added {
			kept = append(kept, poemID)
		}
		u.Bookmarks = kept
	}
	return added, p.BookmarkCount, nil
}

func (m *memStore) AddComment(_ context.Context, poemID primitive.ObjectID, c models.Comment) (*models.Poem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.poems[poemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Comments = append(p.Comments, c)
	p.RecomputeCounts()
	cp := *p
	return &cp, nil
}

func (m *memStore) RemoveComment(_ context.Context, poemID, commentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.poems[poemID]
	if !ok {
		return store.ErrNotFound
	}
	for i, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			p.RecomputeCounts()
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) IncrementShare(_ context.Context, poemID primitive.ObjectID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.poems[poemID]
	if !ok {
		return 0, store.ErrNotFound
	}
	p.ShareCount++
	return p.ShareCount, nil
}

func (m *memStore) DeletePoem(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.poems[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.poems, id)
	return nil
}

// Languages

func (m *memStore) CreateLanguage(_ context.Context, l *models.Language) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.languages {
		if existing.MainCategory == l.MainCategory {
			return errors.Wrap(store.ErrDuplicate, "insert language")
		}
	}
	l.ID = primitive.NewObjectID()
	for i := range l.SubLanguages {
		l.SubLanguages[i].ID = primitive.NewObjectID()
	}
	m.languages[l.ID] = l
	return nil
}

func (m *memStore) ListLanguages(context.Context) ([]models.Language, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Language{}
	for _, l := range m.languages {
		out = append(out, *l)
	}
	return out, nil
}

func (m *memStore) LanguageByID(_ context.Context, id primitive.ObjectID) (*models.Language, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.languages[id]; ok {
		return l, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UpdateLanguage(_ context.Context, id primitive.ObjectID, mainCategory string, subs []models.SubLanguage) (*models.Language, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.languages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if mainCategory != "" {
		l.MainCategory = mainCategory
	}
	if subs != nil {
		l.SubLanguages = subs
	}
	return l, nil
}

func (m *memStore) DeleteLanguage(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.languages[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.languages, id)
	return nil
}

func (m *memStore) DeleteSubLanguage(_ context.Context, id, subID primitive.ObjectID) (*models.Language, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.languages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	for i, s := range l.SubLanguages {
		if s.ID == subID {
			l.SubLanguages = append(l.SubLanguages[:i], l.SubLanguages[i+1:]...)
			return l, nil
		}
	}
	return nil, store.ErrNotFound
}

// fakeMedia records uploads and destroys.
type fakeMedia struct {
	mu        sync.Mutex
	uploaded  []models.Media
	destroyed []models.Media
	failOn    int    // fail the n-th upload (1-based); 0 never fails
	onFail    func() // runs before the failing upload returns
}

func (f *fakeMedia) Upload(_ context.Context, kind services.MediaKind, _ []byte) (models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn > 0 && len(f.uploaded)+1 == f.failOn {
		if f.onFail != nil {
			f.onFail()
		}
		return models.Media{}, errors.New("cloudinary down")
	}
	id := "kavyalok/" + kind.Folder() + "/" + primitive.NewObjectID().Hex()
	m := models.Media{URL: "https://res.cloudinary.com/demo/" + id, PublicID: id}
	f.uploaded = append(f.uploaded, m)
	return m, nil
}

func (f *fakeMedia) Destroy(ctx context.Context, asset models.Media) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, asset)
	return nil
}

func (f *fakeMedia) DestroyAll(ctx context.Context, assets []models.Media) error {
	var err error
	for _, a := range assets {
		if e := f.Destroy(ctx, a); e != nil {
			err = e
		}
	}
	return err
}

// recordingFeed captures published moderation events.
type recordingFeed struct {
	mu     sync.Mutex
	events []services.FeedEvent
}

func (f *recordingFeed) Publish(_ context.Context, ev services.FeedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

// Helpers

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90wS\xde")

type envelope struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Raw     map[string]json.RawMessage `json:"-"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env.Raw))
	return env
}

func (e envelope) field(t *testing.T, name string, dst interface{}) {
	t.Helper()
	raw, ok := e.Raw[name]
	require.True(t, ok, "missing field %q", name)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func asUser(r *http.Request, u *models.User) *http.Request {
	if u == nil {
		return r
	}
	return r.WithContext(middleware.WithUser(r.Context(), u))
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, target, strings.NewReader(buf.String()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// Bookmarks

func (m *memStore) AddBookmark(_ context.Context, poemID, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.poems[poemID]
	if !ok {
		return false, store.ErrNotFound
	}
	if p.HasBookmarked(userID) {
		return false, nil
	}
	p.Bookmarks = append(p.Bookmarks, models.Engagement{UserID: userID, Date: time.Now()})
	p.RecomputeCounts()
	if u, ok := m.users[userID]; ok {
		u.Bookmarks = append(u.Bookmarks, poemID)
	}
	return true, nil
}

func (m *memStore) RemoveBookmark(_ context.Context, poemID, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.poems[poemID]
	if !ok {
		return false, store.ErrNotFound
	}
	if !p.HasBookmarked(userID) {
		return false, nil
	}
	m.toggle(&p.Bookmarks, userID)
	p.RecomputeCounts()
	if u, ok := m.users[userID]; ok {
		kept := u.Bookmarks[:0]
		for _, id := range u.Bookmarks {
			if id != poemID {
				kept = append(kept, id)
			}
		}
		u.Bookmarks = kept
	}
	return true, nil
}

func (m *memStore) PoemsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Poem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Poem{}
	for _, id := range ids {
		if p, ok := m.poems[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}
