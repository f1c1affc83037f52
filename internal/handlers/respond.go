package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecocambio/eco-cambio-backend/internal/apperr"
	"github.com/ecocambio/eco-cambio-backend/internal/config"
)

var (
	cfg      *config.Config
	validate = validator.New()
)

// Init wires the loaded configuration into the handler package. Called once
// from main before routes are registered.
func Init(c *config.Config) {
	cfg = c
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// Handle adapts an error-returning handler to http.HandlerFunc. Every
// handler failure funnels through this single boundary, which maps the
// error taxonomy to a status code and renders {message, stack?}. The stack
// detail is suppressed in production.
func Handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		status := apperr.Status(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("handler error")
		}

		body := map[string]interface{}{"message": apperr.MessageFor(err)}
		if !cfg.IsProduction() {
			body["stack"] = err.Error()
		}
		respondJSON(w, status, body)
	}
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// decodeJSON parses a JSON request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.Validation, "Cuerpo de la petición inválido.", err)
	}
	return nil
}

// objectIDFromParam parses a URL id parameter. A malformed id can never
// reference an existing document, so it maps to the entity's not-found
// message.
func objectIDFromParam(raw, notFoundMessage string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.New(apperr.NotFound, notFoundMessage)
	}
	return id, nil
}

// dbCtx returns the per-request database context with the standard timeout.
func dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}

func findOneAndUpdateReturnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// userRef is the populated {_id, nombres} reference embedded in list
// responses, mirroring the original populate('...', 'nombres') shape.
type userRef struct {
	ID   primitive.ObjectID `json:"_id"`
	Name string             `json:"nombres"`
}

// authorRef additionally carries the avatar, for comment/feed rendering.
type authorRef struct {
	ID         primitive.ObjectID `json:"_id"`
	Name       string             `json:"nombres"`
	AvatarPath string             `json:"fotoPerfil,omitempty"`
}
