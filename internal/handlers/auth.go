package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecocambio/eco-cambio-backend/internal/apperr"
	"github.com/ecocambio/eco-cambio-backend/internal/database"
	"github.com/ecocambio/eco-cambio-backend/internal/models"
	"github.com/ecocambio/eco-cambio-backend/pkg/auth"
	"github.com/ecocambio/eco-cambio-backend/pkg/utils"
)

type registerRequest struct {
	Name     string `json:"nombres" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"contraseña" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"contraseña" validate:"required"`
}

type authResponse struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"nombres"`
	Email string             `json:"email"`
	Token string             `json:"token"`
}

// Register creates an account and returns a bearer token.
func Register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		return apperr.New(apperr.Validation, "Por favor, completa todos los campos.")
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	users := database.DB.Collection(models.UserCollection)

	err := users.FindOne(ctx, bson.M{"email": req.Email}).Err()
	if err == nil {
		return apperr.New(apperr.Conflict, "El usuario con ese email ya está registrado.")
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      req.Name,
		Email:     req.Email,
		Password:  hashed,
		Role:      models.RoleBuyer,
	}

	if _, err := users.InsertOne(ctx, user); err != nil {
		// The unique index closes the check-then-insert race.
		if mongo.IsDuplicateKeyError(err) {
			return apperr.New(apperr.Conflict, "El usuario con ese email ya está registrado.")
		}
		return err
	}

	token, err := auth.MintToken(cfg.JWTSecret, user.ID.Hex(), user.Name)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusCreated, authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Token: token,
	})
	return nil
}

// Login authenticates with email/password and returns a bearer token. The
// response never distinguishes an unknown email from a wrong password.
func Login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		return apperr.New(apperr.Validation, "Por favor, ingresa email y contraseña.")
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	var user models.User
	err := database.DB.Collection(models.UserCollection).
		FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return apperr.New(apperr.Auth, "Credenciales inválidas.")
	}
	if err != nil {
		return err
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return apperr.New(apperr.Auth, "Credenciales inválidas.")
	}

	token, err := auth.MintToken(cfg.JWTSecret, user.ID.Hex(), user.Name)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Token: token,
	})
	return nil
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

// ForgotPassword acknowledges a reset request without revealing whether the
// email exists. Delivery is simulated: the reset mail is logged, not sent.
func ForgotPassword(w http.ResponseWriter, r *http.Request) error {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		return apperr.New(apperr.Validation, "Por favor, ingrese un email.")
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	var user models.User
	err := database.DB.Collection(models.UserCollection).
		FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "Si el email está registrado, recibirás un enlace de restablecimiento.",
		})
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().Str("email", user.Email).Msg("simulated password reset mail")

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Email de restablecimiento enviado con éxito.",
	})
	return nil
}
