package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
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

const productNotFound = "Producto no encontrado."

// multipartMemoryLimit bounds in-memory multipart parsing; larger parts
// spill to temp files.
const multipartMemoryLimit = 8 << 20

// CreateProduct creates a listing from a multipart form (image field
// "foto"). Price is required and positive for sales, forced to 0 for
// donations.
func CreateProduct(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return apperr.Wrap(apperr.Validation, "Formulario inválido.", err)
	}

	name := r.FormValue("Nombre_Producto")
	category := r.FormValue("Categoria")
	description := r.FormValue("Descripcion")
	condition := models.ProductCondition(r.FormValue("Estado"))
	productType := models.ProductType(r.FormValue("Tipo"))
	location := r.FormValue("Ubicacion")

	if name == "" || category == "" || description == "" || condition == "" || productType == "" || location == "" {
		return apperr.New(apperr.Validation, "Faltan campos obligatorios del producto.")
	}
	if !models.ValidCategory(category) {
		return apperr.New(apperr.Validation, "Categoría inválida.")
	}
	if !models.ValidCondition(condition) {
		return apperr.New(apperr.Validation, "Estado de producto inválido.")
	}
	if productType != models.ProductTypeSale && productType != models.ProductTypeDonation {
		return apperr.New(apperr.Validation, "Tipo de producto inválido.")
	}

	// Donations always store price 0 regardless of what the client sent.
	var price float64
	if productType == models.ProductTypeSale {
		parsed, err := strconv.ParseFloat(r.FormValue("Precio"), 64)
		if err != nil || parsed <= 0 {
			return apperr.New(apperr.Validation, "El precio es obligatorio para productos de Venta.")
		}
		price = parsed
	}

	quantity := 1
	if raw := r.FormValue("Cantidad_Disponible"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return apperr.New(apperr.Validation, "Cantidad disponible inválida.")
		}
		quantity = parsed
	}

	imagePath, err := saveOptionalImage(r, user.ID.Hex())
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	now := time.Now()
	product := models.Product{
		ID:          primitive.NewObjectID(),
		CreatedAt:   now,
		UpdatedAt:   now,
		OwnerID:     user.ID,
		Name:        name,
		ImagePath:   imagePath,
		Category:    category,
		Description: description,
		Condition:   condition,
		Type:        productType,
		Price:       price,
		Quantity:    quantity,
		Location:    location,
	}

	if _, err := database.DB.Collection(models.ProductCollection).InsertOne(ctx, product); err != nil {
		return err
	}

	respondJSON(w, http.StatusCreated, product)
	return nil
}

type productResponse struct {
	models.Product
	Owner *userRef `json:"ID_Usuario"`
}

// ListProducts returns the catalog newest-first, optionally filtered by a
// case-insensitive substring on the product name (?q=), with owner names
// populated.
func ListProducts(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := dbCtx(r)
	defer cancel()

	filter := bson.M{}
	if q := r.URL.Query().Get("q"); q != "" {
		filter["Nombre_Producto"] = bson.M{
			"$regex":   regexp.QuoteMeta(q),
			"$options": "i",
		}
	}

	cur, err := database.DB.Collection(models.ProductCollection).Find(
		ctx,
		filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return err
	}

	ownerIDs := make([]primitive.ObjectID, 0, len(products))
	for _, p := range products {
		ownerIDs = append(ownerIDs, p.OwnerID)
	}
	owners, err := services.UsersByID(ctx, ownerIDs)
	if err != nil {
		return err
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp := productResponse{Product: p}
		if owner, ok := owners[p.OwnerID]; ok {
			resp.Owner = &userRef{ID: owner.ID, Name: owner.Name}
		}
		out = append(out, resp)
	}

	respondJSON(w, http.StatusOK, out)
	return nil
}

// GetProduct returns one listing with its owner populated.
func GetProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := objectIDFromParam(chi.URLParam(r, "id"), productNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	var product models.Product
	err = database.DB.Collection(models.ProductCollection).
		FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return apperr.New(apperr.NotFound, productNotFound)
	}
	if err != nil {
		return err
	}

	resp := productResponse{Product: product}
	owners, err := services.UsersByID(ctx, []primitive.ObjectID{product.OwnerID})
	if err != nil {
		return err
	}
	if owner, ok := owners[product.OwnerID]; ok {
		resp.Owner = &userRef{ID: owner.ID, Name: owner.Name}
	}

	respondJSON(w, http.StatusOK, resp)
	return nil
}

// DeleteProduct removes an owned listing, cascading to its messages and
// stored image. The cascade runs before the record delete; a file failure is
// logged, never surfaced.
func DeleteProduct(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	id, err := objectIDFromParam(chi.URLParam(r, "id"), productNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	var product models.Product
	err = database.DB.Collection(models.ProductCollection).
		FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return apperr.New(apperr.NotFound, productNotFound)
	}
	if err != nil {
		return err
	}

	if product.OwnerID != user.ID {
		return apperr.New(apperr.Auth, "Usuario no autorizado.")
	}

	if _, err := database.DB.Collection(models.MessageCollection).
		DeleteMany(ctx, bson.M{"producto": id}); err != nil {
		return err
	}

	services.RemoveUpload(product.ImagePath)

	if _, err := database.DB.Collection(models.ProductCollection).
		DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"message": "Producto eliminado.",
	})
	return nil
}

// saveOptionalImage persists the optional "foto" multipart field and returns
// its stored relative path, or "" when no file was sent.
func saveOptionalImage(r *http.Request, userID string) (string, error) {
	f, fh, err := r.FormFile("foto")
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", apperr.Wrap(apperr.Validation, "No se pudo leer el archivo.", err)
	}
	f.Close()
	return services.SaveUpload(userID, fh)
}
