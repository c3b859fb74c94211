package models

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategoryGadhya Category = "Gadhya"
	CategoryKavya  Category = "Kavya"
)

func (c Category) Valid() bool {
	return c == CategoryGadhya || c == CategoryKavya
}

// ParseCategory accepts the category case-insensitively and returns its canonical form.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gadhya":
		return CategoryGadhya, true
	case "kavya":
		return CategoryKavya, true
	}
	return "", false
}

type PoemStatus string

const (
	StatusPending  PoemStatus = "pending"
	StatusApproved PoemStatus = "approved"
	StatusRejected PoemStatus = "rejected"
)

var (
	ErrUnknownStatus     = errors.New("unknown status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

var poemTransitions = map[PoemStatus][]PoemStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusRejected},
	StatusRejected: {StatusApproved, StatusPending},
}

func ParsePoemStatus(s string) (PoemStatus, error) {
	st := PoemStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := poemTransitions[st]; !ok {
		return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether moderation may move a poem from s to next.
// Re-applying the current status is not a transition.
func (s PoemStatus) CanTransitionTo(next PoemStatus) bool {
	for _, allowed := range poemTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrIllegalTransition wrapped with both ends when the move is not allowed.
func (s PoemStatus) CheckTransition(next PoemStatus) error {
	if !s.CanTransitionTo(next) {
		return errors.Wrapf(ErrIllegalTransition, "%s -> %s", s, next)
	}
	return nil
}

type LanguageTag struct {
	MainLanguage    string `bson:"mainLanguage" json:"mainLanguage"`
	SubLanguageName string `bson:"subLanguageName,omitempty" json:"subLanguageName,omitempty"`
}

// Engagement records a like or bookmark by a user.
type Engagement struct {
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	Date   time.Time          `bson:"date" json:"date"`
}

type Comment struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Username    string             `bson:"username" json:"username"`
	CommentText string             `bson:"commentText" json:"commentText"`
	Date        time.Time          `bson:"date" json:"date"`
}

type Poem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Title       string             `bson:"title" json:"title"`
	Slug        string             `bson:"slug" json:"slug"`
	WriterID    primitive.ObjectID `bson:"writerId" json:"writerId"`
	Category    Category           `bson:"category" json:"category"`
	Subcategory string             `bson:"subcategory" json:"subcategory"`
	Content     string             `bson:"content" json:"content"`

	Image     *Media        `bson:"image,omitempty" json:"image,omitempty"`
	Audio     *Media        `bson:"audio,omitempty" json:"audio,omitempty"`
	Video     *Media        `bson:"video,omitempty" json:"video,omitempty"`
	VideoLink string        `bson:"videoLink,omitempty" json:"videoLink,omitempty"`
	Languages []LanguageTag `bson:"languages" json:"languages"`

	Bookmarks     []Engagement `bson:"bookmarks" json:"bookmarks,omitempty"`
	BookmarkCount int          `bson:"bookmarkCount" json:"bookmarkCount"`
	Comments      []Comment    `bson:"comments" json:"comments,omitempty"`
	CommentCount  int          `bson:"commentCount" json:"commentCount"`
	Likes         []Engagement `bson:"likes" json:"likes,omitempty"`
	LikeCount     int          `bson:"likeCount" json:"likeCount"`
	ShareCount    int          `bson:"shareCount" json:"shareCount"`

	Status      PoemStatus `bson:"status" json:"status"`
	IsAdminPost bool       `bson:"isAdminPost" json:"isAdminPost"`
	Date        time.Time  `bson:"date" json:"date"`
}

// RecomputeCounts brings the derived counters back in line with their arrays.
// Every full-document save goes through it.
func (p *Poem) RecomputeCounts() {
	p.BookmarkCount = len(p.Bookmarks)
	p.LikeCount = len(p.Likes)
	p.CommentCount = len(p.Comments)
}

func (p *Poem) HasLiked(userID primitive.ObjectID) bool {
	return containsUser(p.Likes, userID)
}

func (p *Poem) HasBookmarked(userID primitive.ObjectID) bool {
	return containsUser(p.Bookmarks, userID)
}

func (p *Poem) FindComment(id primitive.ObjectID) (*Comment, bool) {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i], true
		}
	}
	return nil, false
}

// MediaAssets lists the uploaded assets attached to the poem.
func (p *Poem) MediaAssets() []Media {
	var out []Media
	for _, m := range []*Media{p.Image, p.Audio, p.Video} {
		if !m.Empty() {
			out = append(out, *m)
		}
	}
	return out
}

func containsUser(list []Engagement, userID primitive.ObjectID) bool {
	for _, e := range list {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// PoemStats is the dashboard aggregate.
type PoemStats struct {
	TotalUsers     int64            `json:"totalUsers"`
	TotalPoems     int64            `json:"totalPoems"`
	TotalLanguages int64            `json:"totalLanguages"`
	ByCategory     map[string]int64 `json:"byCategory"`
	ByStatus       map[string]int64 `json:"byStatus"`
}

// NewPoemStats returns stats with every known bucket present and zeroed.
func NewPoemStats() *PoemStats {
	return &PoemStats{
		ByCategory: map[string]int64{
			string(CategoryGadhya): 0,
			string(CategoryKavya):  0,
		},
		ByStatus: map[string]int64{
			string(StatusPending):  0,
			string(StatusApproved): 0,
			string(StatusRejected): 0,
		},
	}
}
