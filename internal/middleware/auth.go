package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecocambio/eco-cambio-backend/internal/database"
	"github.com/ecocambio/eco-cambio-backend/internal/models"
	"github.com/ecocambio/eco-cambio-backend/pkg/auth"
)

type userCtxKey struct{}

// CurrentUser returns the authenticated user attached by RequireAuth, or nil
// on public routes.
func CurrentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(userCtxKey{}).(*models.User)
	return u
}

// WithUser attaches a user to the request context. Exposed for handler tests.
func WithUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u))
}

// RequireAuth guards private routes: it decodes the bearer token, looks up
// the referenced user and attaches it to the request context. Anything else
// short-circuits with 401.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				unauthorized(w, "No autorizado, no se encontró ningún token.")
				return
			}

			claims, err := auth.ParseToken(jwtSecret, token)
			if err != nil {
				unauthorized(w, "No autorizado, token fallido o expirado.")
				return
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				unauthorized(w, "No autorizado, token fallido o expirado.")
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			var user models.User
			err = database.DB.Collection(models.UserCollection).
				FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
			if err != nil {
				unauthorized(w, "No autorizado, token fallido o expirado.")
				return
			}

			next.ServeHTTP(w, WithUser(r, &user))
		})
	}
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
