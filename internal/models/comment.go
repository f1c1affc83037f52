package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CommentCollection = "comentarios"

// CommentParentType tags which entity a comment hangs off. The source system
// had two incompatible comment schemas (product-parented and post-parented);
// the tagged union replaces both.
type CommentParentType string

const (
	CommentParentProduct CommentParentType = "producto"
	CommentParentPost    CommentParentType = "publicacion"
)

// Comment is append-only: created, listed in chronological order, never
// updated.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	ParentType CommentParentType  `bson:"tipoPadre" json:"tipoPadre"`
	ParentID   primitive.ObjectID `bson:"padre" json:"padre"`
	AuthorID   primitive.ObjectID `bson:"autor" json:"autor"`
	Text       string             `bson:"texto" json:"texto"`
}
