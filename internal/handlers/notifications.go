package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecocambio/eco-cambio-backend/internal/apperr"
	"github.com/ecocambio/eco-cambio-backend/internal/database"
	"github.com/ecocambio/eco-cambio-backend/internal/middleware"
	"github.com/ecocambio/eco-cambio-backend/internal/models"
	"github.com/ecocambio/eco-cambio-backend/internal/services"
)

const notificationNotFound = "Notificación no encontrada o no autorizada para ser marcada como leída."

type notificationListItem struct {
	ID          primitive.ObjectID      `json:"_id"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
	Sender      *userRef                `json:"emisor"`
	Kind        models.NotificationKind `json:"tipo"`
	Message     string                  `json:"mensaje"`
	Read        bool                    `json:"leido"`
	ReferenceID primitive.ObjectID      `json:"referenciaId,omitempty"`
}

// ListUnreadNotifications returns the caller's unread notifications
// newest-first with sender names populated. ReferenceID may dangle; it is
// returned as stored.
func ListUnreadNotifications(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	ctx, cancel := dbCtx(r)
	defer cancel()

	cur, err := database.DB.Collection(models.NotificationCollection).Find(
		ctx,
		bson.M{"usuarioDestino": user.ID, "leido": false},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var notifications []models.Notification
	if err := cur.All(ctx, &notifications); err != nil {
		return err
	}

	senderIDs := make([]primitive.ObjectID, 0, len(notifications))
	for _, n := range notifications {
		if !n.SenderID.IsZero() {
			senderIDs = append(senderIDs, n.SenderID)
		}
	}
	senders, err := services.UsersByID(ctx, senderIDs)
	if err != nil {
		return err
	}

	out := make([]notificationListItem, 0, len(notifications))
	for _, n := range notifications {
		item := notificationListItem{
			ID:          n.ID,
			CreatedAt:   n.CreatedAt,
			UpdatedAt:   n.UpdatedAt,
			Kind:        n.Kind,
			Message:     n.Message,
			Read:        n.Read,
			ReferenceID: n.ReferenceID,
		}
		if s, ok := senders[n.SenderID]; ok {
			item.Sender = &userRef{ID: s.ID, Name: s.Name}
		}
		out = append(out, item)
	}

	respondJSON(w, http.StatusOK, out)
	return nil
}

// MarkNotificationRead flips the read flag. The filter is ownership-scoped:
// a notification belonging to someone else behaves exactly like a missing
// one.
func MarkNotificationRead(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	id, err := objectIDFromParam(chi.URLParam(r, "id"), notificationNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	res, err := database.DB.Collection(models.NotificationCollection).UpdateOne(
		ctx,
		bson.M{"_id": id, "usuarioDestino": user.ID},
		bson.M{"$set": bson.M{"leido": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, notificationNotFound)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Notificación marcada como leída.",
	})
	return nil
}
