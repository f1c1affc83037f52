package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MessageCollection = "mensajes"

type MessageKind string

const (
	MessageInterestToBuy    MessageKind = "INTERES_COMPRA"
	MessageInterestToDonate MessageKind = "INTERES_DONACION"
	MessageSellerReply      MessageKind = "RESPUESTA_VENDEDOR"
)

// Message is a directed interest/reply message about a listing. ProductID is
// a weak reference: the listing may have been deleted by the time the inbox
// is read.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	ProductID   primitive.ObjectID `bson:"producto" json:"producto"`
	SenderID    primitive.ObjectID `bson:"emisor" json:"emisor"`
	RecipientID primitive.ObjectID `bson:"receptor" json:"receptor"`
	Content     string             `bson:"contenido" json:"contenido"`
	Read        bool               `bson:"leido" json:"leido"`
	Kind        MessageKind        `bson:"tipoMensaje" json:"tipoMensaje"`
}
