package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecocambio/eco-cambio-backend/internal/apperr"
	"github.com/ecocambio/eco-cambio-backend/internal/database"
	"github.com/ecocambio/eco-cambio-backend/internal/middleware"
	"github.com/ecocambio/eco-cambio-backend/internal/models"
	"github.com/ecocambio/eco-cambio-backend/internal/services"
)

type sendMessageRequest struct {
	ProductID   string `json:"productoId"`
	Content     string `json:"contenido"`
	RecipientID string `json:"receptorId"`
}

// SendMessage handles both message modes, selected solely by the presence of
// receptorId. Without it: first-contact interest, the recipient resolves to
// the listing owner. With it: the owner's reply back to the original sender.
// Either mode notifies the recipient.
func SendMessage(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.ProductID == "" || req.Content == "" {
		return apperr.New(apperr.Validation, "Debe especificar el producto y el contenido del mensaje.")
	}

	productID, err := objectIDFromParam(req.ProductID, productNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	var (
		recipientID primitive.ObjectID
		kind        models.MessageKind
		notif       models.Notification
	)

	if req.RecipientID == "" {
		var product models.Product
		err := database.DB.Collection(models.ProductCollection).
			FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			return apperr.New(apperr.NotFound, productNotFound)
		}
		if err != nil {
			return err
		}

		recipientID = product.OwnerID
		kind = models.MessageInterestToBuy
		if product.Type == models.ProductTypeDonation {
			kind = models.MessageInterestToDonate
		}

		notif = models.Notification{
			RecipientID: recipientID,
			SenderID:    user.ID,
			Kind:        models.NotificationTransaction,
			Message:     fmt.Sprintf("¡Tienes un nuevo mensaje de interés en tu artículo: %s!", product.Name),
			ReferenceID: productID,
		}
	} else {
		recipientID, err = objectIDFromParam(req.RecipientID, "Receptor no encontrado.")
		if err != nil {
			return err
		}
		kind = models.MessageSellerReply

		notif = models.Notification{
			RecipientID: recipientID,
			SenderID:    user.ID,
			Kind:        models.NotificationComment,
			Message:     fmt.Sprintf("%s ha respondido a tu interés en un artículo. ¡Revisa tu Bandeja!", user.Name),
			ReferenceID: productID,
		}
	}

	now := time.Now()
	message := models.Message{
		ID:          primitive.NewObjectID(),
		CreatedAt:   now,
		UpdatedAt:   now,
		ProductID:   productID,
		SenderID:    user.ID,
		RecipientID: recipientID,
		Content:     req.Content,
		Kind:        kind,
	}

	if _, err := database.DB.Collection(models.MessageCollection).InsertOne(ctx, message); err != nil {
		return err
	}

	services.EmitNotification(ctx, notif)

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Mensaje procesado con éxito.",
	})
	return nil
}

// productRef is the populated product summary on inbox items; nil when the
// listing has been deleted (dangling reference, tolerated).
type productRef struct {
	ID   primitive.ObjectID `json:"_id"`
	Name string             `json:"Nombre_Producto"`
	Type models.ProductType `json:"Tipo"`
}

type receivedMessage struct {
	ID        primitive.ObjectID `json:"_id"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Product   *productRef        `json:"producto"`
	Sender    *userRef           `json:"emisor"`
	Recipient primitive.ObjectID `json:"receptor"`
	Content   string             `json:"contenido"`
	Read      bool               `json:"leido"`
	Kind      models.MessageKind `json:"tipoMensaje"`
}

// ListReceivedMessages returns the caller's inbox newest-first, with sender
// names and product summaries populated.
func ListReceivedMessages(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	ctx, cancel := dbCtx(r)
	defer cancel()

	cur, err := database.DB.Collection(models.MessageCollection).Find(
		ctx,
		bson.M{"receptor": user.ID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var messages []models.Message
	if err := cur.All(ctx, &messages); err != nil {
		return err
	}

	senderIDs := make([]primitive.ObjectID, 0, len(messages))
	productIDs := make([]primitive.ObjectID, 0, len(messages))
	for _, m := range messages {
		senderIDs = append(senderIDs, m.SenderID)
		productIDs = append(productIDs, m.ProductID)
	}

	senders, err := services.UsersByID(ctx, senderIDs)
	if err != nil {
		return err
	}
	products, err := services.ProductsByID(ctx, productIDs)
	if err != nil {
		return err
	}

	out := make([]receivedMessage, 0, len(messages))
	for _, m := range messages {
		item := receivedMessage{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			Recipient: m.RecipientID,
			Content:   m.Content,
			Read:      m.Read,
			Kind:      m.Kind,
		}
		if s, ok := senders[m.SenderID]; ok {
			item.Sender = &userRef{ID: s.ID, Name: s.Name}
		}
		if p, ok := products[m.ProductID]; ok {
			item.Product = &productRef{ID: p.ID, Name: p.Name, Type: p.Type}
		}
		out = append(out, item)
	}

	respondJSON(w, http.StatusOK, out)
	return nil
}
