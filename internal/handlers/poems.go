package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AnshRaj112/kavyalok-backend/internal/logger"
	"github.com/AnshRaj112/kavyalok-backend/internal/middleware"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/services"
	"github.com/AnshRaj112/kavyalok-backend/internal/store"
	"github.com/AnshRaj112/kavyalok-backend/pkg/translit"
	"github.com/AnshRaj112/kavyalok-backend/pkg/utils"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxCommentLength   = 1000
	defaultSectionSize = 10
)

var poemMediaFields = map[string]services.MediaKind{
	"image": services.MediaImage,
	"audio": services.MediaAudio,
	"video": services.MediaVideo,
}

type PoemStore interface {
	InsertPoem(ctx context.Context, p *models.Poem) error
	PoemByID(ctx context.Context, id primitive.ObjectID) (*models.Poem, error)
	PoemBySlug(ctx context.Context, slug string) (*models.Poem, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListPoems(ctx context.Context, q store.PoemQuery, page store.Page) ([]models.Poem, int64, error)
	SectionPoems(ctx context.Context, section string, limit int) ([]models.Poem, error)
	UpdatePoem(ctx context.Context, id primitive.ObjectID, expect models.PoemStatus, set bson.M) (*models.Poem, error)
	ToggleLike(ctx context.Context, poemID, userID primitive.ObjectID) (bool, int, error)
	ToggleBookmark(ctx context.Context, poemID, userID primitive.ObjectID) (bool, int, error)
	AddComment(ctx context.Context, poemID primitive.ObjectID, c models.Comment) (*models.Poem, error)
	RemoveComment(ctx context.Context, poemID, commentID primitive.ObjectID) error
	IncrementShare(ctx context.Context, poemID primitive.ObjectID) (int, error)
	DeletePoem(ctx context.Context, id primitive.ObjectID) error
}

type WriterStore interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByUniqueID(ctx context.Context, uniqueID string) (*models.User, error)
	PullBookmarkFromAllUsers(ctx context.Context, poemID primitive.ObjectID) error
}

// StatusChanger applies moderation decisions and announces new poems.
type StatusChanger interface {
	ChangeStatus(ctx context.Context, poem *models.Poem, to models.PoemStatus, adminID, note string) (*models.Poem, error)
	Announce(ctx context.Context, poem *models.Poem)
	InvalidateSections(ctx context.Context)
}

// PoemHandler serves the poem lifecycle, listings and engagement endpoints.
type PoemHandler struct {
	Poems          PoemStore
	Users          WriterStore
	Media          MediaStore
	Moderator      StatusChanger
	Cache          *services.CacheService
	Screener       *services.CommentScreener
	MaxUploadBytes int64
	SectionTTL     time.Duration
}

// PoemForm is the multipart body of create and admin update. Admin updates
// treat every field as optional.
type PoemForm struct {
	Title        string `schema:"title" validate:"notblank,max=200"`
	Content      string `schema:"content" validate:"notblank"`
	Category     string `schema:"category" validate:"required"`
	Subcategory  string `schema:"subcategory" validate:"notblank"`
	VideoLink    string `schema:"videoLink" validate:"omitempty,url"`
	Languages    string `schema:"languages"`
	UserUniqueID string `schema:"userUniqueId"`
	Date         string `schema:"date"`
	Status       string `schema:"status"`
	Note         string `schema:"note"`
}

func (h *PoemHandler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = 50 << 20
	}
	// Three files plus text fields.
	r.Body = http.MaxBytesReader(w, r.Body, 3*limit+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return false
	}
	return true
}

// parseLanguages decodes the languages form field, a JSON array of
// {mainLanguage, subLanguageName}.
func parseLanguages(raw string) ([]models.LanguageTag, error) {
	var tags []models.LanguageTag
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, utils.NewValidationError("languages", "Invalid languages format")
	}
	if len(tags) == 0 {
		return nil, utils.NewValidationError("languages", "At least one language is required")
	}
	for i := range tags {
		tags[i].MainLanguage = strings.ToLower(strings.TrimSpace(tags[i].MainLanguage))
		tags[i].SubLanguageName = strings.TrimSpace(tags[i].SubLanguageName)
		if tags[i].MainLanguage == "" {
			return nil, utils.NewValidationError("languages", "Each language needs a mainLanguage")
		}
	}
	return tags, nil
}

func checkVideoLink(link string) error {
	if link == "" {
		return nil
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return utils.NewValidationError("videoLink", "videoLink must be a valid http(s) URL")
	}
	return nil
}

func parseDisplayDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, utils.NewValidationError("date", "Invalid date")
}

// CreatePoem handles poem submission. Admins may post on behalf of a writer
// through userUniqueId; their posts are approved immediately.
func (h *PoemHandler) CreatePoem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	if !h.parseMultipart(w, r) {
		return
	}

	var form PoemForm
	if err := decodeForm(r, &form); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	category, ok := models.ParseCategory(form.Category)
	if !ok {
		writeError(w, http.StatusBadRequest, "Category must be Gadhya or Kavya")
		return
	}
	if err := checkVideoLink(form.VideoLink); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	languages, err := parseLanguages(form.Languages)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	date, err := parseDisplayDate(form.Date)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	files, err := collectFiles(r, poemMediaFields, h.MaxUploadBytes)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	// Resolve the writer
	writer := user
	if user.IsAdmin() && strings.TrimSpace(form.UserUniqueID) != "" {
		writer, err = h.Users.UserByUniqueID(ctx, strings.TrimSpace(form.UserUniqueID))
		if err != nil {
			writeFailure(w, r, err, "User with this unique ID not found")
			return
		}
	}

	slug, err := services.UniqueSlug(ctx, h.Poems.SlugExists, form.Title)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	uploaded, err := uploadAll(ctx, h.Media, files)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	poem := &models.Poem{
		Title:       strings.TrimSpace(form.Title),
		Slug:        slug,
		WriterID:    writer.ID,
		Category:    category,
		Subcategory: strings.TrimSpace(form.Subcategory),
		Content:     form.Content,
		Image:       mediaPtr(uploaded, "image"),
		Audio:       mediaPtr(uploaded, "audio"),
		Video:       mediaPtr(uploaded, "video"),
		VideoLink:   form.VideoLink,
		Languages:   languages,
		Status:      models.StatusPending,
		Date:        date,
	}
	if user.IsAdmin() {
		poem.Status = models.StatusApproved
		poem.IsAdminPost = true
	}

	if err := h.Poems.InsertPoem(ctx, poem); err != nil {
		compensate(ctx, h.Media, uploaded)
		writeFailure(w, r, err, "")
		return
	}
	h.Moderator.Announce(ctx, poem)

	message := "Poem submitted for review"
	if poem.Status == models.StatusApproved {
		message = "Poem created and approved"
	}
	logger.FromContext(ctx).WithField("poem_id", poem.ID.Hex()).Info("📝 " + message)
	respond(w, http.StatusCreated, message, H{"poem": poem})
}

func (h *PoemHandler) list(w http.ResponseWriter, r *http.Request, q store.PoemQuery) {
	page := parsePage(r)
	ctx, cancel := requestContext(r)
	defer cancel()

	poems, total, err := h.Poems.ListPoems(ctx, q, page)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "", H{
		"poems":      poems,
		"pagination": pagination(page, total),
	})
}

// GetAllPoems lists approved poems with optional filters.
func (h *PoemHandler) GetAllPoems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := store.PoemQuery{
		Status:      models.StatusApproved,
		Subcategory: strings.TrimSpace(query.Get("subcategory")),
		Language:    strings.TrimSpace(query.Get("language")),
	}
	if c := query.Get("category"); c != "" {
		category, ok := models.ParseCategory(c)
		if !ok {
			writeError(w, http.StatusBadRequest, "Category must be Gadhya or Kavya")
			return
		}
		q.Category = category
	}
	if writer := query.Get("writer"); writer != "" {
		id, err := primitive.ObjectIDFromHex(writer)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid writer")
			return
		}
		q.WriterID = id
	}
	h.list(w, r, q)
}

func (h *PoemHandler) GetPoemsByCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := models.ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Category must be Gadhya or Kavya")
		return
	}
	h.list(w, r, store.PoemQuery{Status: models.StatusApproved, Category: category})
}

// GetPoemsByStatus is the admin review queue.
func (h *PoemHandler) GetPoemsByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := models.ParsePoemStatus(chi.URLParam(r, "status"))
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	h.list(w, r, store.PoemQuery{Status: status})
}

// SearchPoems matches q against title, content and subcategory. Latin
// input also matches its Devanagari spelling.
func (h *PoemHandler) SearchPoems(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}
	terms := []string{q}
	if translit.HasLatin(q) {
		if deva := translit.ToDevanagari(q); deva != "" && deva != q {
			terms = append(terms, deva)
		}
	}
	h.list(w, r, store.PoemQuery{Status: models.StatusApproved, Terms: terms})
}

func (h *PoemHandler) GetMyPoems(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	h.list(w, r, store.PoemQuery{WriterID: user.ID})
}

// GetWriterPoems lists a writer's approved poems by their unique id.
func (h *PoemHandler) GetWriterPoems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	writer, err := h.Users.UserByUniqueID(ctx, chi.URLParam(r, "uniqueId"))
	cancel()
	if err != nil {
		writeFailure(w, r, err, "Writer not found")
		return
	}
	h.list(w, r, store.PoemQuery{Status: models.StatusApproved, WriterID: writer.ID})
}

// visible reports whether the caller may read the poem. Unapproved poems
// are only shown to their writer and to admins.
func visible(p *models.Poem, viewer *models.User) bool {
	if p.Status == models.StatusApproved {
		return true
	}
	return viewer != nil && (viewer.IsAdmin() || viewer.ID == p.WriterID)
}

func (h *PoemHandler) writeDetail(ctx context.Context, w http.ResponseWriter, r *http.Request, poem *models.Poem) {
	viewer, _ := middleware.UserFromContext(r.Context())
	if !visible(poem, viewer) {
		writeError(w, http.StatusNotFound, "Poem not found")
		return
	}

	payload := H{"poem": poem}
	if writer, err := h.Users.UserByID(ctx, poem.WriterID); err == nil {
		payload["writer"] = writer.Public()
	} else if !errors.Is(err, store.ErrNotFound) {
		logger.FromContext(ctx).WithError(err).Warn("failed to load poem writer")
	}
	if viewer != nil {
		payload["isLiked"] = poem.HasLiked(viewer.ID)
		payload["isBookmarked"] = poem.HasBookmarked(viewer.ID)
	}
	respond(w, http.StatusOK, "", payload)
}

func (h *PoemHandler) GetPoemBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	poem, err := h.Poems.PoemBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	h.writeDetail(ctx, w, r, poem)
}

func (h *PoemHandler) GetPoemByID(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	poem, err := h.Poems.PoemByID(ctx, id)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	h.writeDetail(ctx, w, r, poem)
}

var sections = map[string]bool{
	store.SectionMostLiked:      true,
	store.SectionMostBookmarked: true,
	store.SectionTrending:       true,
	store.SectionLatest:         true,
}

// GetSection serves one home page section from cache when possible.
func (h *PoemHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	if !sections[section] {
		writeError(w, http.StatusNotFound, "Unknown section")
		return
	}
	limit := defaultSectionSize
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	key := services.CacheKey(services.SectionsCacheResource, section+":"+strconv.Itoa(limit))
	var poems []models.Poem
	if hit, err := h.Cache.Get(ctx, key, &poems); err == nil && hit {
		respond(w, http.StatusOK, "", H{"section": section, "poems": poems, "cached": true})
		return
	}

	poems, err := h.Poems.SectionPoems(ctx, section, limit)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	if err := h.Cache.Set(ctx, key, poems, h.SectionTTL); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to cache section")
	}
	respond(w, http.StatusOK, "", H{"section": section, "poems": poems, "cached": false})
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

// UpdatePoemStatus moves a poem through moderation.
func (h *PoemHandler) UpdatePoemStatus(w http.ResponseWriter, r *http.Request) {
	admin, _ := middleware.UserFromContext(r.Context())
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	to, err := models.ParsePoemStatus(req.Status)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	poem, err := h.Poems.PoemByID(ctx, id)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	if poem.Status == to {
		writeError(w, http.StatusConflict, "Poem is already "+string(to))
		return
	}
	updated, err := h.Moderator.ChangeStatus(ctx, poem, to, admin.ID.Hex(), req.Note)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	respond(w, http.StatusOK, "Poem status updated to "+string(to), H{"poem": updated})
}

func (h *PoemHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, ok := objectIDParam(w, r, "poemId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	liked, count, err := h.Poems.ToggleLike(ctx, id, user.ID)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	message := "Poem unliked"
	if liked {
		message = "Poem liked"
	}
	respond(w, http.StatusOK, message, H{"liked": liked, "likeCount": count})
}

func (h *PoemHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, ok := objectIDParam(w, r, "poemId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	bookmarked, count, err := h.Poems.ToggleBookmark(ctx, id, user.ID)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	message := "Bookmark removed"
	if bookmarked {
		message = "Poem bookmarked"
	}
	respond(w, http.StatusOK, message, H{"bookmarked": bookmarked, "bookmarkCount": count})
}

type CommentRequest struct {
	CommentText string `json:"commentText"`
}

// AddComment appends a screened comment under the caller's display name.
func (h *PoemHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, ok := objectIDParam(w, r, "poemId")
	if !ok {
		return
	}
	var req CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	text := strings.TrimSpace(req.CommentText)
	if text == "" {
		writeError(w, http.StatusBadRequest, "Comment text is required")
		return
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		writeError(w, http.StatusBadRequest, "Comment must be at most 1000 characters")
		return
	}
	if ok, matched := h.Screener.Screen(text); !ok {
		logger.FromContext(r.Context()).WithField("matched", matched).Info("comment rejected by screener")
		writeError(w, http.StatusBadRequest, "Comment contains inappropriate language")
		return
	}

	comment := models.Comment{
		ID:          primitive.NewObjectID(),
		UserID:      user.ID,
		Username:    user.DisplayName(),
		CommentText: text,
		Date:        time.Now(),
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	poem, err := h.Poems.AddComment(ctx, id, comment)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	respond(w, http.StatusCreated, "Comment added", H{
		"comment":      commentView(comment),
		"commentCount": poem.CommentCount,
	})
}

func commentView(c models.Comment) H {
	return H{
		"_id":         c.ID,
		"userId":      c.UserID,
		"username":    c.Username,
		"commentText": c.CommentText,
		"date":        c.Date,
		"timeAgo":     humanize.Time(c.Date),
	}
}

// GetComments returns a poem's comments, newest first.
func (h *PoemHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "poemId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	poem, err := h.Poems.PoemByID(ctx, id)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	viewer, _ := middleware.UserFromContext(r.Context())
	if !visible(poem, viewer) {
		writeError(w, http.StatusNotFound, "Poem not found")
		return
	}

	comments := append([]models.Comment(nil), poem.Comments...)
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].Date.After(comments[j].Date) })
	views := make([]H, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView(c))
	}
	respond(w, http.StatusOK, "", H{"comments": views, "commentCount": len(views)})
}

// DeleteComment lets the comment author or an admin remove a comment.
func (h *PoemHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	poemID, ok := objectIDParam(w, r, "poemId")
	if !ok {
		return
	}
	commentID, ok := objectIDParam(w, r, "commentId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	poem, err := h.Poems.PoemByID(ctx, poemID)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	comment, found := poem.FindComment(commentID)
	if !found {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.UserID != user.ID && !user.IsAdmin() {
		writeError(w, http.StatusForbidden, "Not authorized to delete this comment")
		return
	}
	if err := h.Poems.RemoveComment(ctx, poemID, commentID); err != nil {
		writeFailure(w, r, err, "Comment not found")
		return
	}
	respond(w, http.StatusOK, "Comment deleted", nil)
}

func (h *PoemHandler) SharePoem(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "poemId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	count, err := h.Poems.IncrementShare(ctx, id)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	respond(w, http.StatusOK, "Share recorded", H{"shareCount": count})
}

// AdminUpdatePoem applies a partial update. New media replaces the old
// asset, which is destroyed only after the poem is saved.
func (h *PoemHandler) AdminUpdatePoem(w http.ResponseWriter, r *http.Request) {
	admin, _ := middleware.UserFromContext(r.Context())
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	if !h.parseMultipart(w, r) {
		return
	}

	var form PoemForm
	if err := formDecoder.Decode(&form, r.PostForm); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	set := bson.M{}
	if t := strings.TrimSpace(form.Title); t != "" {
		set["title"] = t
	}
	if form.Content != "" {
		set["content"] = form.Content
	}
	if form.Category != "" {
		category, ok := models.ParseCategory(form.Category)
		if !ok {
			writeError(w, http.StatusBadRequest, "Category must be Gadhya or Kavya")
			return
		}
		set["category"] = category
	}
	if s := strings.TrimSpace(form.Subcategory); s != "" {
		set["subcategory"] = s
	}
	if _, present := r.PostForm["videoLink"]; present {
		if err := checkVideoLink(form.VideoLink); err != nil {
			writeFailure(w, r, err, "")
			return
		}
		set["videoLink"] = form.VideoLink
	}
	if form.Languages != "" {
		languages, err := parseLanguages(form.Languages)
		if err != nil {
			writeFailure(w, r, err, "")
			return
		}
		set["languages"] = languages
	}
	if form.Date != "" {
		date, err := parseDisplayDate(form.Date)
		if err != nil {
			writeFailure(w, r, err, "")
			return
		}
		set["date"] = date
	}
	var target models.PoemStatus
	if form.Status != "" {
		st, err := models.ParsePoemStatus(form.Status)
		if err != nil {
			writeFailure(w, r, err, "")
			return
		}
		target = st
	}
	files, err := collectFiles(r, poemMediaFields, h.MaxUploadBytes)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	poem, err := h.Poems.PoemByID(ctx, id)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	if target != "" && target != poem.Status {
		if err := poem.Status.CheckTransition(target); err != nil {
			writeFailure(w, r, err, "")
			return
		}
	}
	if title, ok := set["title"].(string); ok && (title != poem.Title || poem.Slug == "") {
		slug, err := services.UniqueSlug(ctx, h.Poems.SlugExists, title)
		if err != nil {
			writeFailure(w, r, err, "")
			return
		}
		set["slug"] = slug
	}

	uploaded, err := uploadAll(ctx, h.Media, files)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	var replaced []models.Media
	for field, asset := range uploaded {
		set[field] = asset
		if old := poemMedia(poem, field); !old.Empty() {
			replaced = append(replaced, *old)
		}
	}

	updated := poem
	if len(set) > 0 {
		updated, err = h.Poems.UpdatePoem(ctx, id, "", set)
		if err != nil {
			compensate(ctx, h.Media, uploaded)
			writeFailure(w, r, err, "Poem not found")
			return
		}
	}
	destroyLater(ctx, h.Media, replaced)

	if target != "" && target != updated.Status {
		updated, err = h.Moderator.ChangeStatus(ctx, updated, target, admin.ID.Hex(), form.Note)
		if err != nil {
			writeFailure(w, r, err, "Poem not found")
			return
		}
	} else if updated.Status == models.StatusApproved {
		h.Moderator.InvalidateSections(ctx)
	}
	respond(w, http.StatusOK, "Poem updated successfully", H{"poem": updated})
}

func poemMedia(p *models.Poem, field string) *models.Media {
	switch field {
	case "image":
		return p.Image
	case "audio":
		return p.Audio
	case "video":
		return p.Video
	}
	return nil
}

// DeletePoem removes a poem. Only its writer or an admin may do so.
func (h *PoemHandler) DeletePoem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	poem, err := h.Poems.PoemByID(ctx, id)
	if err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}
	if poem.WriterID != user.ID && !user.IsAdmin() {
		writeError(w, http.StatusForbidden, "Not authorized to delete this poem")
		return
	}
	if err := h.Poems.DeletePoem(ctx, id); err != nil {
		writeFailure(w, r, err, "Poem not found")
		return
	}

	if err := h.Users.PullBookmarkFromAllUsers(ctx, id); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to remove deleted poem from bookmarks")
	}
	destroyLater(ctx, h.Media, poem.MediaAssets())
	if poem.Status == models.StatusApproved {
		h.Moderator.InvalidateSections(ctx)
	}
	respond(w, http.StatusOK, "Poem deleted successfully", nil)
}
