package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TransactionCollection = "transacciones"

type TransactionType string

const (
	TransactionPurchase TransactionType = "Compra"
	TransactionDonation TransactionType = "Donación"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "Pendiente"
	TransactionCompleted TransactionStatus = "Completada"
	TransactionCancelled TransactionStatus = "Cancelada"
	TransactionFailed    TransactionStatus = "Fallida"
)

// Transaction records one settlement attempt. Status is fixed at creation;
// the record is never updated afterwards.
type Transaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	ProductID     primitive.ObjectID `bson:"producto" json:"producto"`
	BuyerID       primitive.ObjectID `bson:"comprador" json:"comprador"`
	SellerID      primitive.ObjectID `bson:"vendedor" json:"vendedor"`
	Amount        float64            `bson:"monto" json:"monto"`
	Type          TransactionType    `bson:"tipoTransaccion" json:"tipoTransaccion"`
	PaymentMethod string             `bson:"metodoPago" json:"metodoPago"`
	Status        TransactionStatus  `bson:"estado" json:"estado"`
}
