package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const UserCollection = "usuarios"

type UserRole string

const (
	RoleSeller UserRole = "Vendedor"
	RoleBuyer  UserRole = "Comprador"
	RoleDonor  UserRole = "Donante"
)

// User keeps the original Spanish field names on the wire so the existing
// SPA keeps working against this backend.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Name       string   `bson:"nombres" json:"nombres"`
	Email      string   `bson:"email" json:"email"`
	Password   string   `bson:"contraseña" json:"-"`
	TotalScore int      `bson:"puntuacionTotal" json:"puntuacionTotal"`
	Role       UserRole `bson:"rol" json:"rol"`
	AvatarPath string   `bson:"fotoPerfil,omitempty" json:"fotoPerfil,omitempty"`
}
