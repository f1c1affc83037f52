package handlers

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecocambio/eco-cambio-backend/internal/apperr"
	"github.com/ecocambio/eco-cambio-backend/internal/database"
	"github.com/ecocambio/eco-cambio-backend/internal/middleware"
	"github.com/ecocambio/eco-cambio-backend/internal/models"
	"github.com/ecocambio/eco-cambio-backend/pkg/utils"
)

type profileResponse struct {
	ID         primitive.ObjectID `json:"id"`
	Name       string             `json:"nombres"`
	Email      string             `json:"email"`
	TotalScore int                `json:"puntuacionTotal"`
}

// GetProfile returns the authenticated user's profile and running score.
func GetProfile(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	respondJSON(w, http.StatusOK, profileResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		TotalScore: user.TotalScore,
	})
	return nil
}

type updateProfileRequest struct {
	Name     string `json:"nombres"`
	Email    string `json:"email"`
	Password string `json:"contraseña"`
}

// UpdateProfile partially updates name/email/password. Omitted fields keep
// their previous value; the password is re-hashed only when a non-empty new
// value is supplied.
func UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	users := database.DB.Collection(models.UserCollection)

	set := bson.M{"updatedAt": time.Now()}
	if req.Name != "" {
		set["nombres"] = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		err := users.FindOne(ctx, bson.M{
			"email": req.Email,
			"_id":   bson.M{"$ne": user.ID},
		}).Err()
		if err == nil {
			return apperr.New(apperr.Conflict, "El usuario con ese email ya está registrado.")
		}
		if err != mongo.ErrNoDocuments {
			return err
		}
		set["email"] = req.Email
	}
	if req.Password != "" {
		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			return err
		}
		set["contraseña"] = hashed
	}

	var updated models.User
	err := users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": set},
		findOneAndUpdateReturnAfter(),
	).Decode(&updated)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, profileResponse{
		ID:         updated.ID,
		Name:       updated.Name,
		Email:      updated.Email,
		TotalScore: updated.TotalScore,
	})
	return nil
}
