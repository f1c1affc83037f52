package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecocambio/eco-cambio-backend/internal/database"
	"github.com/ecocambio/eco-cambio-backend/internal/models"
)

// EmitNotification persists a notification as a side effect of another
// write. Side-effect writes carry no transactional guarantee: a failure here
// is logged and swallowed so it never rolls back or masks the primary write.
func EmitNotification(ctx context.Context, n models.Notification) {
	now := time.Now()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = now
	n.UpdatedAt = now
	n.Read = false

	if _, err := database.DB.Collection(models.NotificationCollection).InsertOne(ctx, n); err != nil {
		log.Warn().Err(err).
			Str("destino", n.RecipientID.Hex()).
			Str("tipo", string(n.Kind)).
			Msg("failed to emit notification")
	}
}
