package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecocambio/eco-cambio-backend/internal/apperr"
	"github.com/ecocambio/eco-cambio-backend/internal/database"
	"github.com/ecocambio/eco-cambio-backend/internal/middleware"
	"github.com/ecocambio/eco-cambio-backend/internal/models"
	"github.com/ecocambio/eco-cambio-backend/internal/services"
)

const reportNotFound = "Reporte no encontrado."

// CreateReport files a geolocated citizen report (multipart, optional image
// field "foto"). Coordinates are stored GeoJSON-style as [lng, lat].
func CreateReport(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return apperr.Wrap(apperr.Validation, "Formulario inválido.", err)
	}

	description := r.FormValue("descripcion")
	rawLat := r.FormValue("latitud")
	rawLng := r.FormValue("longitud")
	if description == "" || rawLat == "" || rawLng == "" {
		return apperr.New(apperr.Validation, "Descripción, latitud y longitud son obligatorios.")
	}

	lat, latErr := strconv.ParseFloat(rawLat, 64)
	lng, lngErr := strconv.ParseFloat(rawLng, 64)
	if latErr != nil || lngErr != nil {
		return apperr.New(apperr.Validation, "Descripción, latitud y longitud son obligatorios.")
	}

	imagePath, err := saveOptionalImage(r, user.ID.Hex())
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	now := time.Now()
	report := models.Report{
		ID:          primitive.NewObjectID(),
		CreatedAt:   now,
		UpdatedAt:   now,
		AuthorID:    user.ID,
		Description: description,
		Location: models.GeoPoint{
			Type:        "Point",
			Coordinates: []float64{lng, lat},
		},
		ImagePath: imagePath,
		Status:    models.ReportPending,
	}

	if _, err := database.DB.Collection(models.ReportCollection).InsertOne(ctx, report); err != nil {
		return err
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Reporte ciudadano enviado con éxito.",
		"reporte": report,
	})
	return nil
}

type reportResponse struct {
	models.Report
	Author *userRef `json:"autor"`
}

// ListReports returns every report with its author populated. No geospatial
// filtering; the map renders all of them.
func ListReports(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := dbCtx(r)
	defer cancel()

	cur, err := database.DB.Collection(models.ReportCollection).Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var reports []models.Report
	if err := cur.All(ctx, &reports); err != nil {
		return err
	}

	authorIDs := make([]primitive.ObjectID, 0, len(reports))
	for _, rep := range reports {
		authorIDs = append(authorIDs, rep.AuthorID)
	}
	authors, err := services.UsersByID(ctx, authorIDs)
	if err != nil {
		return err
	}

	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		resp := reportResponse{Report: rep}
		if a, ok := authors[rep.AuthorID]; ok {
			resp.Author = &userRef{ID: a.ID, Name: a.Name}
		}
		out = append(out, resp)
	}

	respondJSON(w, http.StatusOK, out)
	return nil
}

// DeleteReport removes an authored report, interpreted as "problem
// resolved". The image file removal is best effort.
func DeleteReport(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	id, err := objectIDFromParam(chi.URLParam(r, "id"), reportNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	reports := database.DB.Collection(models.ReportCollection)

	var report models.Report
	err = reports.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return apperr.New(apperr.NotFound, reportNotFound)
	}
	if err != nil {
		return err
	}

	if report.AuthorID != user.ID {
		return apperr.New(apperr.Auth, "Usuario no autorizado para eliminar este reporte.")
	}

	services.RemoveUpload(report.ImagePath)

	if _, err := reports.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"message": "Reporte eliminado y problema marcado como resuelto.",
	})
	return nil
}
