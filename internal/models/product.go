package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const ProductCollection = "productos"

type ProductType string

const (
	ProductTypeSale     ProductType = "Venta"
	ProductTypeDonation ProductType = "Donación"
)

type ProductCondition string

const (
	ConditionNew      ProductCondition = "Nuevo"
	ConditionUsed     ProductCondition = "Usado"
	ConditionForReuse ProductCondition = "Para Reutilizar"
)

// ProductCategories is the closed set of listing categories.
var ProductCategories = []string{"Electrodoméstico", "Mueble", "Ropa", "Electrónica", "Otros"}

func ValidCategory(c string) bool {
	for _, v := range ProductCategories {
		if v == c {
			return true
		}
	}
	return false
}

func ValidCondition(c ProductCondition) bool {
	return c == ConditionNew || c == ConditionUsed || c == ConditionForReuse
}

// Product is a marketplace listing for sale or donation. Price is always 0
// for donations.
type Product struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	OwnerID     primitive.ObjectID `bson:"ID_Usuario" json:"ID_Usuario"`
	Name        string             `bson:"Nombre_Producto" json:"Nombre_Producto"`
	ImagePath   string             `bson:"Foto_Producto" json:"Foto_Producto"`
	Category    string             `bson:"Categoria" json:"Categoria"`
	Description string             `bson:"Descripcion" json:"Descripcion"`
	Condition   ProductCondition   `bson:"Estado" json:"Estado"`
	Type        ProductType        `bson:"Tipo" json:"Tipo"`
	Price       float64            `bson:"Precio" json:"Precio"`
	Quantity    int                `bson:"Cantidad_Disponible" json:"Cantidad_Disponible"`
	Location    string             `bson:"Ubicacion" json:"Ubicacion"`
}
