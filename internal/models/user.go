package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Media is a Cloudinary asset reference.
type Media struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"public_id" json:"public_id"`
}

func (m *Media) Empty() bool {
	return m == nil || m.URL == ""
}

type SocialLinks struct {
	Facebook  string `bson:"facebook,omitempty" json:"facebook,omitempty"`
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Twitter   string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	Youtube   string `bson:"youtube,omitempty" json:"youtube,omitempty"`
	Website   string `bson:"website,omitempty" json:"website,omitempty"`
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	FullName string `bson:"fullName" json:"fullName"`
	PenName  string `bson:"penName,omitempty" json:"penName,omitempty"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"` // Don't return password in JSON
	Bio      string `bson:"bio,omitempty" json:"bio,omitempty"`
	Avatar   *Media `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role     Role   `bson:"role" json:"role"`

	// UniqueID is the 8-digit public reference admins use to post on a writer's behalf.
	UniqueID    string               `bson:"uniqueId" json:"uniqueId"`
	SocialLinks SocialLinks          `bson:"socialLinks" json:"socialLinks"`
	Bookmarks   []primitive.ObjectID `bson:"bookmarks" json:"bookmarks"`
}

// DisplayName is the name shown on comments: pen name first, then full name.
func (u *User) DisplayName() string {
	if u.PenName != "" {
		return u.PenName
	}
	return u.FullName
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicProfile is the view of a writer exposed to anonymous readers.
type PublicProfile struct {
	ID          primitive.ObjectID `json:"_id"`
	FullName    string             `json:"fullName"`
	PenName     string             `json:"penName,omitempty"`
	Bio         string             `json:"bio,omitempty"`
	Avatar      *Media             `json:"avatar,omitempty"`
	UniqueID    string             `json:"uniqueId"`
	SocialLinks SocialLinks        `json:"socialLinks"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		FullName:    u.FullName,
		PenName:     u.PenName,
		Bio:         u.Bio,
		Avatar:      u.Avatar,
		UniqueID:    u.UniqueID,
		SocialLinks: u.SocialLinks,
		CreatedAt:   u.CreatedAt,
	}
}

// UserSummary is a row of the admin user listing.
type UserSummary struct {
	User
	PoemCount     int64 `json:"poemCount"`
	BookmarkCount int64 `json:"bookmarkCount"`
}
