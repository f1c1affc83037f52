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

const postNotFound = "Publicación no encontrada."

// CreatePost publishes an eco-action (multipart, optional image field
// "foto") and credits the author's running score. The insert and the score
// increment are two independent writes; there is no transaction between
// them.
func CreatePost(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return apperr.Wrap(apperr.Validation, "Formulario inválido.", err)
	}

	text := r.FormValue("texto")
	if text == "" {
		return apperr.New(apperr.Validation, "Por favor, agrega el texto de tu acción ecológica.")
	}

	points := models.DefaultPostPoints
	if raw := r.FormValue("puntosOtorgados"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperr.New(apperr.Validation, "Puntos otorgados inválidos.")
		}
		points = parsed
	}

	imagePath, err := saveOptionalImage(r, user.ID.Hex())
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	now := time.Now()
	post := models.Post{
		ID:        primitive.NewObjectID(),
		CreatedAt: now,
		UpdatedAt: now,
		AuthorID:  user.ID,
		Text:      text,
		ImagePath: imagePath,
		Points:    points,
	}

	if _, err := database.DB.Collection(models.PostCollection).InsertOne(ctx, post); err != nil {
		return err
	}

	if _, err := database.DB.Collection(models.UserCollection).UpdateByID(
		ctx, user.ID, bson.M{"$inc": bson.M{"puntuacionTotal": points}},
	); err != nil {
		return err
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":       "¡Acción ecológica publicada con éxito!",
		"publicacion":   post,
		"puntosGanados": points,
	})
	return nil
}

type postResponse struct {
	models.Post
	Author *authorRef `json:"autor"`
}

// ListPosts returns the feed newest-first, optionally filtered by a
// case-insensitive substring on the text (?q=), with authors populated.
func ListPosts(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := dbCtx(r)
	defer cancel()

	filter := bson.M{}
	if q := r.URL.Query().Get("q"); q != "" {
		filter["texto"] = bson.M{
			"$regex":   regexp.QuoteMeta(q),
			"$options": "i",
		}
	}

	cur, err := database.DB.Collection(models.PostCollection).Find(
		ctx,
		filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return err
	}

	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	authors, err := services.UsersByID(ctx, authorIDs)
	if err != nil {
		return err
	}

	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		resp := postResponse{Post: p}
		if a, ok := authors[p.AuthorID]; ok {
			resp.Author = &authorRef{ID: a.ID, Name: a.Name, AvatarPath: a.AvatarPath}
		}
		out = append(out, resp)
	}

	respondJSON(w, http.StatusOK, out)
	return nil
}

// UpdatePost edits an owned post's text and/or image (multipart). A new
// image replaces the old one, whose file is removed best-effort.
func UpdatePost(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	id, err := objectIDFromParam(chi.URLParam(r, "id"), postNotFound)
	if err != nil {
		return err
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return apperr.Wrap(apperr.Validation, "Formulario inválido.", err)
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	posts := database.DB.Collection(models.PostCollection)

	var post models.Post
	err = posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return apperr.New(apperr.NotFound, postNotFound)
	}
	if err != nil {
		return err
	}

	if post.AuthorID != user.ID {
		return apperr.New(apperr.Auth, "Usuario no autorizado para actualizar esta publicación.")
	}

	set := bson.M{"updatedAt": time.Now()}
	if text := r.FormValue("texto"); text != "" {
		set["texto"] = text
	}

	newPath, err := saveOptionalImage(r, user.ID.Hex())
	if err != nil {
		return err
	}
	if newPath != "" {
		services.RemoveUpload(post.ImagePath)
		set["urlImagen"] = newPath
	}

	var updated models.Post
	err = posts.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		findOneAndUpdateReturnAfter(),
	).Decode(&updated)
	if err != nil {
		return err
	}

	resp := postResponse{Post: updated}
	authors, err := services.UsersByID(ctx, []primitive.ObjectID{updated.AuthorID})
	if err != nil {
		return err
	}
	if a, ok := authors[updated.AuthorID]; ok {
		resp.Author = &authorRef{ID: a.ID, Name: a.Name, AvatarPath: a.AvatarPath}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Publicación actualizada correctamente.",
		"publicacion": resp,
	})
	return nil
}

// DeletePost removes an owned post and its image file (best effort). The
// points credited at creation are intentionally NOT reversed; existing
// scores depend on that asymmetry.
func DeletePost(w http.ResponseWriter, r *http.Request) error {
	user := middleware.CurrentUser(r)

	id, err := objectIDFromParam(chi.URLParam(r, "id"), postNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(r)
	defer cancel()

	posts := database.DB.Collection(models.PostCollection)

	var post models.Post
	err = posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return apperr.New(apperr.NotFound, postNotFound)
	}
	if err != nil {
		return err
	}

	if post.AuthorID != user.ID {
		return apperr.New(apperr.Auth, "Usuario no autorizado para eliminar esta publicación.")
	}

	services.RemoveUpload(post.ImagePath)

	if _, err := posts.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Publicación eliminada correctamente.",
		"id":      id,
	})
	return nil
}
