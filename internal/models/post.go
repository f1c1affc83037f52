package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const PostCollection = "publicaciones"

// DefaultPostPoints is credited to the author when no explicit value is sent.
const DefaultPostPoints = 10

// Post is an eco-action feed entry. Creating one credits the author's
// running score with Points.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	AuthorID  primitive.ObjectID `bson:"autor" json:"autor"`
	Text      string             `bson:"texto" json:"texto"`
	ImagePath string             `bson:"urlImagen" json:"urlImagen"`
	Points    int                `bson:"puntosOtorgados" json:"puntosOtorgados"`
}
