package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubLanguage struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}

// Language is a main language category (e.g. hindi) with its dialects.
type Language struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	MainCategory string             `bson:"mainCategory" json:"mainCategory"`
	SubLanguages []SubLanguage      `bson:"subLanguages" json:"subLanguages"`
}
