package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const NotificationCollection = "notificaciones"

type NotificationKind string

const (
	NotificationComment             NotificationKind = "COMENTARIO"
	NotificationTransaction         NotificationKind = "TRANSACCION"
	NotificationTransactionPurchase NotificationKind = "TRANSACCION_COMPRA"
	NotificationTransactionDonation NotificationKind = "TRANSACCION_DONACION"
	NotificationReportClosed        NotificationKind = "REPORTE_CERRADO"
)

// Notification is only ever created as a side effect of another write and is
// mutated only by mark-read. ReferenceID points at the triggering entity and
// may dangle once that entity is deleted.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	RecipientID primitive.ObjectID `bson:"usuarioDestino" json:"usuarioDestino"`
	SenderID    primitive.ObjectID `bson:"emisor,omitempty" json:"emisor,omitempty"`
	Kind        NotificationKind   `bson:"tipo" json:"tipo"`
	Message     string             `bson:"mensaje" json:"mensaje"`
	Read        bool               `bson:"leido" json:"leido"`
	ReferenceID primitive.ObjectID `bson:"referenciaId,omitempty" json:"referenciaId,omitempty"`
}
