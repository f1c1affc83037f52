package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ecocambio/eco-cambio-backend/internal/config"
	"github.com/ecocambio/eco-cambio-backend/internal/database"
	"github.com/ecocambio/eco-cambio-backend/internal/handlers"
	"github.com/ecocambio/eco-cambio-backend/internal/models"
	"github.com/ecocambio/eco-cambio-backend/internal/routes"
	"github.com/ecocambio/eco-cambio-backend/internal/services"
)

// setupAPI wires the full router against a throwaway database. These tests
// need a reachable MongoDB; they skip when TEST_MONGODB_URI is unset.
func setupAPI(t *testing.T) chi.Router {
	t.Helper()

	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}

	require.NoError(t, database.Connect(uri))
	database.DB = database.Client.Database(fmt.Sprintf("ecocambio_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		database.DB.Drop(ctx)
		database.Disconnect()
	})

	cfg := &config.Config{
		JWTSecret:   "test-secret",
		Environment: "development",
		UploadDir:   t.TempDir(),
	}
	handlers.Init(cfg)
	require.NoError(t, services.InitUploads(cfg.UploadDir))

	r := chi.NewRouter()
	routes.SetupRoutes(r, cfg)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func doMultipart(t *testing.T, r chi.Router, method, path, token string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "body: %s", rr.Body.String())
	return out
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "body: %s", rr.Body.String())
	return out
}

func registerUser(t *testing.T, r chi.Router, name, email string) (id, token string) {
	t.Helper()
	rr := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"nombres":    name,
		"email":      email,
		"contraseña": "secreta123",
	})
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	body := decodeMap(t, rr)
	return body["_id"].(string), body["token"].(string)
}

func createProduct(t *testing.T, r chi.Router, token string, overrides map[string]string) map[string]interface{} {
	t.Helper()
	fields := map[string]string{
		"Nombre_Producto": "Bicicleta",
		"Categoria":       "Otros",
		"Descripcion":     "Bicicleta urbana en buen estado",
		"Estado":          "Usado",
		"Tipo":            "Venta",
		"Precio":          "100",
		"Ubicacion":       "Centro",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	rr := doMultipart(t, r, http.MethodPost, "/api/productos", token, fields)
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	return decodeMap(t, rr)
}

func forceGateway(t *testing.T, outcome services.ChargeOutcome) {
	t.Helper()
	restore := services.Gateway
	rate := 0.0
	if outcome == services.ChargeApproved {
		rate = 1.0
	}
	services.Gateway = services.SimulatedGateway{SuccessRate: rate}
	t.Cleanup(func() { services.Gateway = restore })
}

func TestRegisterConflictAndLogin(t *testing.T) {
	r := setupAPI(t)

	_, token := registerUser(t, r, "Ana", "a@x.com")
	require.NotEmpty(t, token)

	rr := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"nombres":    "Otra Ana",
		"email":      "a@x.com",
		"contraseña": "otra",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeMap(t, rr)["message"], "ya está registrado")

	// Wrong password: generic message, no user-existence leak.
	rr = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":      "a@x.com",
		"contraseña": "equivocada",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Credenciales inválidas.", decodeMap(t, rr)["message"])

	rr = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":      "nadie@x.com",
		"contraseña": "lo-que-sea",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Credenciales inválidas.", decodeMap(t, rr)["message"])

	rr = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":      "a@x.com",
		"contraseña": "secreta123",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, decodeMap(t, rr)["token"])
}

func TestAuthGuard(t *testing.T) {
	r := setupAPI(t)

	rr := doJSON(t, r, http.MethodGet, "/api/productos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/api/productos", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDonationPriceCoercedToZero(t *testing.T) {
	r := setupAPI(t)
	_, token := registerUser(t, r, "Ana", "ana@x.com")

	product := createProduct(t, r, token, map[string]string{
		"Tipo":   "Donación",
		"Precio": "50",
	})
	assert.Equal(t, float64(0), product["Precio"])
}

func TestSaleRequiresPositivePrice(t *testing.T) {
	r := setupAPI(t)
	_, token := registerUser(t, r, "Ana", "ana@x.com")

	for _, precio := range []string{"", "abc", "-5", "0"} {
		rr := doMultipart(t, r, http.MethodPost, "/api/productos", token, map[string]string{
			"Nombre_Producto": "Silla",
			"Categoria":       "Mueble",
			"Descripcion":     "Silla de madera",
			"Estado":          "Usado",
			"Tipo":            "Venta",
			"Precio":          precio,
			"Ubicacion":       "Norte",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code, "precio=%q", precio)
	}
}

func TestTransactionSettlement(t *testing.T) {
	r := setupAPI(t)
	_, sellerToken := registerUser(t, r, "Vendedora", "v@x.com")
	_, buyerToken := registerUser(t, r, "Comprador", "c@x.com")

	product := createProduct(t, r, sellerToken, map[string]string{
		"Precio":              "100",
		"Cantidad_Disponible": "5",
	})
	productID := product["_id"].(string)

	forceGateway(t, services.ChargeApproved)

	rr := doJSON(t, r, http.MethodPost, "/api/transacciones/simular", buyerToken, map[string]interface{}{
		"productoId": productID,
		"cantidad":   3,
	})
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	body := decodeMap(t, rr)
	assert.Equal(t, "Pago Aprobado (Simulación)", body["simulacion"])

	tx := body["transaccion"].(map[string]interface{})
	assert.Equal(t, "Completada", tx["estado"])
	assert.Equal(t, float64(300), tx["monto"])
	assert.Equal(t, "Compra", tx["tipoTransaccion"])
	assert.Equal(t, "Simulado", tx["metodoPago"])

	rr = doJSON(t, r, http.MethodGet, "/api/productos/"+productID, buyerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2), decodeMap(t, rr)["Cantidad_Disponible"])

	// Seller got exactly one unread notification for the sale.
	rr = doJSON(t, r, http.MethodGet, "/api/notificaciones", sellerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	notifs := decodeList(t, rr)
	require.Len(t, notifs, 1)
	assert.Equal(t, "TRANSACCION_COMPRA", notifs[0]["tipo"])
	assert.Equal(t, false, notifs[0]["leido"])
}

func TestTransactionInsufficientStock(t *testing.T) {
	r := setupAPI(t)
	_, sellerToken := registerUser(t, r, "Vendedora", "v@x.com")
	_, buyerToken := registerUser(t, r, "Comprador", "c@x.com")

	product := createProduct(t, r, sellerToken, map[string]string{
		"Cantidad_Disponible": "2",
	})
	productID := product["_id"].(string)

	forceGateway(t, services.ChargeApproved)

	rr := doJSON(t, r, http.MethodPost, "/api/transacciones/simular", buyerToken, map[string]interface{}{
		"productoId": productID,
		"cantidad":   3,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeMap(t, rr)["message"], "Stock insuficiente")

	// No stock mutation on rejection.
	rr = doJSON(t, r, http.MethodGet, "/api/productos/"+productID, buyerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2), decodeMap(t, rr)["Cantidad_Disponible"])

	// No seller notification either.
	rr = doJSON(t, r, http.MethodGet, "/api/notificaciones", sellerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeList(t, rr))
}

func TestTransactionDeclinedStillPersisted(t *testing.T) {
	r := setupAPI(t)
	_, sellerToken := registerUser(t, r, "Vendedora", "v@x.com")
	_, buyerToken := registerUser(t, r, "Comprador", "c@x.com")

	product := createProduct(t, r, sellerToken, map[string]string{
		"Cantidad_Disponible": "5",
	})
	productID := product["_id"].(string)

	forceGateway(t, services.ChargeDeclined)

	rr := doJSON(t, r, http.MethodPost, "/api/transacciones/simular", buyerToken, map[string]interface{}{
		"productoId": productID,
		"cantidad":   1,
	})
	require.Equal(t, http.StatusPaymentRequired, rr.Code)
	body := decodeMap(t, rr)
	assert.Equal(t, "Pago Rechazado (Simulación)", body["simulacion"])
	assert.Equal(t, "Fallida", body["transaccion"].(map[string]interface{})["estado"])

	// Declined settlement must not touch stock.
	rr = doJSON(t, r, http.MethodGet, "/api/productos/"+productID, buyerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(5), decodeMap(t, rr)["Cantidad_Disponible"])
}

func TestCommentNotifiesOwnerOnly(t *testing.T) {
	r := setupAPI(t)
	_, sellerToken := registerUser(t, r, "Vendedora", "v@x.com")
	_, buyerToken := registerUser(t, r, "Comprador", "c@x.com")

	product := createProduct(t, r, sellerToken, nil)
	productID := product["_id"].(string)

	rr := doJSON(t, r, http.MethodPost, "/api/productos/"+productID+"/comentarios", buyerToken, map[string]string{
		"texto": "¿Sigue disponible?",
	})
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())

	rr = doJSON(t, r, http.MethodGet, "/api/notificaciones", sellerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	notifs := decodeList(t, rr)
	require.Len(t, notifs, 1)
	assert.Equal(t, "COMENTARIO", notifs[0]["tipo"])

	// Commenting on your own product emits nothing. The pause keeps the two
	// comments' millisecond timestamps distinct for the order check below.
	time.Sleep(5 * time.Millisecond)
	rr = doJSON(t, r, http.MethodPost, "/api/productos/"+productID+"/comentarios", sellerToken, map[string]string{
		"texto": "Sí, disponible.",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/api/notificaciones", sellerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeList(t, rr), 1)

	// Ascending chronological order with populated authors.
	rr = doJSON(t, r, http.MethodGet, "/api/productos/"+productID+"/comentarios", buyerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	comments := decodeList(t, rr)
	require.Len(t, comments, 2)
	assert.Equal(t, "¿Sigue disponible?", comments[0]["texto"])
	assert.Equal(t, "Comprador", comments[0]["autor"].(map[string]interface{})["nombres"])
}

func TestCommentOnMissingParent(t *testing.T) {
	r := setupAPI(t)
	_, token := registerUser(t, r, "Ana", "ana@x.com")

	missing := primitive.NewObjectID().Hex()
	rr := doJSON(t, r, http.MethodPost, "/api/productos/"+missing+"/comentarios", token, map[string]string{
		"texto": "hola",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMarkReadIsOwnershipScoped(t *testing.T) {
	r := setupAPI(t)
	_, sellerToken := registerUser(t, r, "Vendedora", "v@x.com")
	_, buyerToken := registerUser(t, r, "Comprador", "c@x.com")

	product := createProduct(t, r, sellerToken, nil)
	productID := product["_id"].(string)

	rr := doJSON(t, r, http.MethodPost, "/api/productos/"+productID+"/comentarios", buyerToken, map[string]string{
		"texto": "comentario",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/api/notificaciones", sellerToken, nil)
	notifs := decodeList(t, rr)
	require.Len(t, notifs, 1)
	notifID := notifs[0]["_id"].(string)

	// The commenter cannot mark the seller's notification.
	rr = doJSON(t, r, http.MethodPut, "/api/notificaciones/"+notifID+"/leida", buyerToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/api/notificaciones", sellerToken, nil)
	require.Len(t, decodeList(t, rr), 1, "read flag must be untouched")

	rr = doJSON(t, r, http.MethodPut, "/api/notificaciones/"+notifID+"/leida", sellerToken, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/api/notificaciones", sellerToken, nil)
	assert.Empty(t, decodeList(t, rr))
}

func TestSendMessageInitialMode(t *testing.T) {
	r := setupAPI(t)
	sellerID, sellerToken := registerUser(t, r, "Vendedora", "v@x.com")
	_, buyerToken := registerUser(t, r, "Comprador", "c@x.com")

	product := createProduct(t, r, sellerToken, nil)
	productID := product["_id"].(string)

	rr := doJSON(t, r, http.MethodPost, "/api/mensajes", buyerToken, map[string]string{
		"productoId": productID,
		"contenido":  "hola",
	})
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())

	// The recipient resolved to the product owner, kind by product type.
	rr = doJSON(t, r, http.MethodGet, "/api/mensajes/recibidos", sellerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	inbox := decodeList(t, rr)
	require.Len(t, inbox, 1)
	assert.Equal(t, "INTERES_COMPRA", inbox[0]["tipoMensaje"])
	assert.Equal(t, sellerID, inbox[0]["receptor"])
	assert.Equal(t, "Comprador", inbox[0]["emisor"].(map[string]interface{})["nombres"])
	assert.Equal(t, "Bicicleta", inbox[0]["producto"].(map[string]interface{})["Nombre_Producto"])

	rr = doJSON(t, r, http.MethodGet, "/api/notificaciones", sellerToken, nil)
	notifs := decodeList(t, rr)
	require.Len(t, notifs, 1)
	assert.Equal(t, "TRANSACCION", notifs[0]["tipo"])
}

func TestSendMessageReplyMode(t *testing.T) {
	r := setupAPI(t)
	_, sellerToken := registerUser(t, r, "Vendedora", "v@x.com")
	buyerID, buyerToken := registerUser(t, r, "Comprador", "c@x.com")

	product := createProduct(t, r, sellerToken, nil)
	productID := product["_id"].(string)

	rr := doJSON(t, r, http.MethodPost, "/api/mensajes", sellerToken, map[string]string{
		"productoId": productID,
		"contenido":  "sigue disponible",
		"receptorId": buyerID,
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/api/mensajes/recibidos", buyerToken, nil)
	inbox := decodeList(t, rr)
	require.Len(t, inbox, 1)
	assert.Equal(t, "RESPUESTA_VENDEDOR", inbox[0]["tipoMensaje"])

	rr = doJSON(t, r, http.MethodGet, "/api/notificaciones", buyerToken, nil)
	notifs := decodeList(t, rr)
	require.Len(t, notifs, 1)
	assert.Equal(t, "COMENTARIO", notifs[0]["tipo"])
}

func TestDeleteProductCascades(t *testing.T) {
	r := setupAPI(t)
	_, sellerToken := registerUser(t, r, "Vendedora", "v@x.com")
	_, buyerToken := registerUser(t, r, "Comprador", "c@x.com")

	product := createProduct(t, r, sellerToken, nil)
	productID := product["_id"].(string)

	rr := doJSON(t, r, http.MethodPost, "/api/mensajes", buyerToken, map[string]string{
		"productoId": productID,
		"contenido":  "me interesa",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	// A non-owner cannot delete; the record and its messages stay intact.
	rr = doJSON(t, r, http.MethodDelete, "/api/productos/"+productID, buyerToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/api/mensajes/recibidos", sellerToken, nil)
	require.Len(t, decodeList(t, rr), 1)

	rr = doJSON(t, r, http.MethodDelete, "/api/productos/"+productID, sellerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/api/productos/"+productID, sellerToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// The cascade removed the product's messages.
	rr = doJSON(t, r, http.MethodGet, "/api/mensajes/recibidos", sellerToken, nil)
	assert.Empty(t, decodeList(t, rr))
}

func TestInboxToleratesDanglingProduct(t *testing.T) {
	r := setupAPI(t)
	recipientID, recipientToken := registerUser(t, r, "Receptora", "r@x.com")
	senderID, _ := registerUser(t, r, "Emisor", "e@x.com")

	recipientOID, err := primitive.ObjectIDFromHex(recipientID)
	require.NoError(t, err)
	senderOID, err := primitive.ObjectIDFromHex(senderID)
	require.NoError(t, err)

	// A message whose product no longer exists.
	now := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = database.DB.Collection(models.MessageCollection).InsertOne(ctx, models.Message{
		ID:          primitive.NewObjectID(),
		CreatedAt:   now,
		UpdatedAt:   now,
		ProductID:   primitive.NewObjectID(),
		SenderID:    senderOID,
		RecipientID: recipientOID,
		Content:     "sobre un producto borrado",
		Kind:        models.MessageInterestToBuy,
	})
	require.NoError(t, err)

	rr := doJSON(t, r, http.MethodGet, "/api/mensajes/recibidos", recipientToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	inbox := decodeList(t, rr)
	require.Len(t, inbox, 1)
	assert.Nil(t, inbox[0]["producto"])
	assert.Equal(t, "Emisor", inbox[0]["emisor"].(map[string]interface{})["nombres"])
}

func TestPostPointsCreditedNotReversed(t *testing.T) {
	r := setupAPI(t)
	_, token := registerUser(t, r, "Ana", "ana@x.com")

	rr := doMultipart(t, r, http.MethodPost, "/api/publicaciones", token, map[string]string{
		"texto":           "Planté un árbol",
		"puntosOtorgados": "25",
	})
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	body := decodeMap(t, rr)
	assert.Equal(t, float64(25), body["puntosGanados"])
	postID := body["publicacion"].(map[string]interface{})["_id"].(string)

	rr = doJSON(t, r, http.MethodGet, "/api/usuarios/perfil", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(25), decodeMap(t, rr)["puntuacionTotal"])

	// Deleting the post keeps the score (source-system asymmetry).
	rr = doJSON(t, r, http.MethodDelete, "/api/publicaciones/"+postID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/api/usuarios/perfil", token, nil)
	assert.Equal(t, float64(25), decodeMap(t, rr)["puntuacionTotal"])
}

func TestPostDefaultPoints(t *testing.T) {
	r := setupAPI(t)
	_, token := registerUser(t, r, "Ana", "ana@x.com")

	rr := doMultipart(t, r, http.MethodPost, "/api/publicaciones", token, map[string]string{
		"texto": "Reciclé vidrio",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, float64(10), decodeMap(t, rr)["puntosGanados"])
}

func TestUpdatePostOwnerOnly(t *testing.T) {
	r := setupAPI(t)
	_, authorToken := registerUser(t, r, "Autora", "au@x.com")
	_, otherToken := registerUser(t, r, "Otro", "o@x.com")

	rr := doMultipart(t, r, http.MethodPost, "/api/publicaciones", authorToken, map[string]string{
		"texto": "Original",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	postID := decodeMap(t, rr)["publicacion"].(map[string]interface{})["_id"].(string)

	rr = doMultipart(t, r, http.MethodPut, "/api/publicaciones/"+postID, otherToken, map[string]string{
		"texto": "Secuestrada",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doMultipart(t, r, http.MethodPut, "/api/publicaciones/"+postID, authorToken, map[string]string{
		"texto": "Editada",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decodeMap(t, rr)["publicacion"].(map[string]interface{})
	assert.Equal(t, "Editada", updated["texto"])
}

func TestProductSearchAndOwnerPopulation(t *testing.T) {
	r := setupAPI(t)
	_, token := registerUser(t, r, "Vendedora", "v@x.com")

	createProduct(t, r, token, map[string]string{"Nombre_Producto": "Lámpara vintage"})
	// BSON datetimes carry millisecond precision; keep createdAt distinct so
	// the order assertion below is stable.
	time.Sleep(5 * time.Millisecond)
	createProduct(t, r, token, map[string]string{"Nombre_Producto": "Mesa de roble"})

	rr := doJSON(t, r, http.MethodGet, "/api/productos?q=lámpara", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeList(t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, "Lámpara vintage", list[0]["Nombre_Producto"])
	assert.Equal(t, "Vendedora", list[0]["ID_Usuario"].(map[string]interface{})["nombres"])

	rr = doJSON(t, r, http.MethodGet, "/api/productos", token, nil)
	list = decodeList(t, rr)
	require.Len(t, list, 2)
	// Newest first.
	assert.Equal(t, "Mesa de roble", list[0]["Nombre_Producto"])
}

func TestReportLifecycle(t *testing.T) {
	r := setupAPI(t)
	_, authorToken := registerUser(t, r, "Autora", "au@x.com")
	_, otherToken := registerUser(t, r, "Otro", "o@x.com")

	rr := doMultipart(t, r, http.MethodPost, "/api/reportes", authorToken, map[string]string{
		"descripcion": "Basural en la esquina",
		"latitud":     "-2.170998",
		"longitud":    "-79.922359",
	})
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	report := decodeMap(t, rr)["reporte"].(map[string]interface{})
	assert.Equal(t, "Pendiente", report["estado"])

	location := report["ubicacion"].(map[string]interface{})
	coords := location["coordinates"].([]interface{})
	assert.Equal(t, "Point", location["type"])
	assert.InDelta(t, -79.922359, coords[0].(float64), 1e-9)
	assert.InDelta(t, -2.170998, coords[1].(float64), 1e-9)

	reportID := report["_id"].(string)

	rr = doJSON(t, r, http.MethodGet, "/api/reportes", otherToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decodeList(t, rr), 1)

	rr = doJSON(t, r, http.MethodDelete, "/api/reportes/"+reportID, otherToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, r, http.MethodDelete, "/api/reportes/"+reportID, authorToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/api/reportes", authorToken, nil)
	assert.Empty(t, decodeList(t, rr))
}

func TestUpdateProfile(t *testing.T) {
	r := setupAPI(t)
	_, token := registerUser(t, r, "Ana", "ana@x.com")
	registerUser(t, r, "Beatriz", "bea@x.com")

	// Email collision with another user is rejected.
	rr := doJSON(t, r, http.MethodPut, "/api/usuarios/perfil", token, map[string]string{
		"email": "bea@x.com",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, r, http.MethodPut, "/api/usuarios/perfil", token, map[string]string{
		"nombres":    "Ana María",
		"contraseña": "nueva-clave",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeMap(t, rr)
	assert.Equal(t, "Ana María", body["nombres"])
	assert.Equal(t, "ana@x.com", body["email"], "omitted email keeps previous value")

	rr = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":      "ana@x.com",
		"contraseña": "nueva-clave",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestForgotPasswordIsEnumerationSafe(t *testing.T) {
	r := setupAPI(t)
	registerUser(t, r, "Ana", "ana@x.com")

	rr := doJSON(t, r, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{
		"email": "ana@x.com",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, r, http.MethodPost, "/api/auth/forgotpassword", "", map[string]string{
		"email": "nadie@x.com",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}
