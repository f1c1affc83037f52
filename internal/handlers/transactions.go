package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecocambio/eco-cambio-backend/internal/apperr"
	"github.com/ecocambio/eco-cambio-backend/internal/database"
	"github.com/ecocambio/eco-cambio-backend/internal/middleware"
	"github.com/ecocambio/eco-cambio-backend/internal/models"
	"github.com/ecocambio/eco-cambio-backend/internal/services"
)

type simulateTransactionRequest struct {
	ProductID     string `json:"productoId"`
	Quantity      int    `json:"cantidad"`
	PaymentMethod string `json:"metodoPago"`
}

// SimulateTransaction settles a purchase or donation against a listing. The
// transaction record is persisted whatever the gateway says; only an
// approved charge decrements stock and notifies the seller. The three writes
// are sequential and independent: a crash in between leaves a
// partially-applied state (known consistency gap, inherited from the source
// system).
func SimulateTransaction(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	var req simulateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		return apperr.New(apperr.Validation, "El ID del producto y la cantidad válida son obligatorios para la transacción.")
	}

	productID, err := objectIDFromParam(req.ProductID, productNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	var product models.Product
	err = database.DB.Collection(models.ProductCollection).
		FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return apperr.New(apperr.NotFound, productNotFound)
	}
	if err != nil {
		return err
	}

	if product.Quantity < req.Quantity {
		return apperr.New(apperr.BusinessRule,
			fmt.Sprintf("Stock insuficiente. Solo quedan %d unidades.", product.Quantity))
	}

	amount := product.Price * float64(req.Quantity)

	transactionType := models.TransactionPurchase
	if product.Type == models.ProductTypeDonation {
		transactionType = models.TransactionDonation
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "Simulado"
	}

	status := models.TransactionFailed
	if services.Gateway.AttemptCharge(amount) == services.ChargeApproved {
		status = models.TransactionCompleted
	}

	now := time.Now()
	transaction := models.Transaction{
		ID:            primitive.NewObjectID(),
		CreatedAt:     now,
		UpdatedAt:     now,
		ProductID:     productID,
		BuyerID:       user.ID,
		SellerID:      product.OwnerID,
		Amount:        amount,
		Type:          transactionType,
		PaymentMethod: paymentMethod,
		Status:        status,
	}

	if _, err := database.DB.Collection(models.TransactionCollection).InsertOne(ctx, transaction); err != nil {
		return err
	}

	if status == models.TransactionCompleted {
		if _, err := database.DB.Collection(models.ProductCollection).UpdateByID(
			ctx, productID,
			bson.M{"$inc": bson.M{"Cantidad_Disponible": -req.Quantity}},
		); err != nil {
			return err
		}

		notifKind := models.NotificationTransactionPurchase
		detail := fmt.Sprintf("$%.2f", amount)
		if product.Type == models.ProductTypeDonation {
			notifKind = models.NotificationTransactionDonation
			detail = "Donación"
		}
		services.EmitNotification(ctx, models.Notification{
			RecipientID: product.OwnerID,
			SenderID:    user.ID,
			Kind:        notifKind,
			Message:     fmt.Sprintf("¡Tienes una nueva %s de %s por %s!", product.Type, product.Name, detail),
			ReferenceID: transaction.ID,
		})

		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"message":     fmt.Sprintf("Transacción de %s completada con éxito.", transaction.Type),
			"transaccion": transaction,
			"simulacion":  "Pago Aprobado (Simulación)",
		})
		return nil
	}

	respondJSON(w, http.StatusPaymentRequired, map[string]interface{}{
		"message":     "La simulación de pago ha fallado. Intente con otro método.",
		"transaccion": transaction,
		"simulacion":  "Pago Rechazado (Simulación)",
	})
	return nil
}
