package handlers

import (
	"fmt"
	"net/http"
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

type createCommentRequest struct {
	Text string `json:"texto"`
}

// commentResponse re-exposes the parent under the legacy "producto" key for
// product comments, so the existing SPA keeps rendering them.
type commentResponse struct {
	models.Comment
	Product *primitive.ObjectID `json:"producto,omitempty"`
}

// commentParent is the resolved target of a comment: who owns it and how to
// describe it in the owner's notification.
type commentParent struct {
	ownerID primitive.ObjectID
	label   string
}

// CreateComment returns the create handler for one parent type (product or
// post). Commenting on someone else's entity notifies its owner; commenting
// on your own does not.
func CreateComment(parentType models.CommentParentType) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		user := middleware.CurrentUser(r)

		parentID, err := objectIDFromParam(chi.URLParam(r, "id"), parentNotFoundMessage(parentType))
		if err != nil {
			return err
		}

		var req createCommentRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		if req.Text == "" {
			return apperr.New(apperr.Validation, "El comentario no puede estar vacío.")
		}

		ctx, cancel := dbCtx(r)
		defer cancel()

		parent, err := resolveCommentParent(r, parentType, parentID)
		if err != nil {
			return err
		}

		now := time.Now()
		comment := models.Comment{
			ID:         primitive.NewObjectID(),
			CreatedAt:  now,
			UpdatedAt:  now,
			ParentType: parentType,
			ParentID:   parentID,
			AuthorID:   user.ID,
			Text:       req.Text,
		}

		if _, err := database.DB.Collection(models.CommentCollection).InsertOne(ctx, comment); err != nil {
			return err
		}

		if parent.ownerID != user.ID {
			services.EmitNotification(ctx, models.Notification{
				RecipientID: parent.ownerID,
				SenderID:    user.ID,
				Kind:        models.NotificationComment,
				Message:     fmt.Sprintf("%s ha comentado en %s", user.Name, parent.label),
				ReferenceID: parentID,
			})
		}

		resp := commentResponse{Comment: comment}
		if parentType == models.CommentParentProduct {
			resp.Product = &parentID
		}
		respondJSON(w, http.StatusCreated, resp)
		return nil
	}
}

type commentListItem struct {
	ID        primitive.ObjectID       `json:"_id"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
	ParentID  primitive.ObjectID       `json:"padre"`
	Type      models.CommentParentType `json:"tipoPadre"`
	Author    *authorRef               `json:"autor"`
	Text      string                   `json:"texto"`
}

// ListComments returns the list handler for one parent type. Comments come
// back in ascending chronological order with their authors populated.
func ListComments(parentType models.CommentParentType) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		parentID, err := objectIDFromParam(chi.URLParam(r, "id"), parentNotFoundMessage(parentType))
		if err != nil {
			return err
		}

		ctx, cancel := dbCtx(r)
		defer cancel()

		cur, err := database.DB.Collection(models.CommentCollection).Find(
			ctx,
			bson.M{"tipoPadre": parentType, "padre": parentID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
		)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		var comments []models.Comment
		if err := cur.All(ctx, &comments); err != nil {
			return err
		}

		authorIDs := make([]primitive.ObjectID, 0, len(comments))
		for _, c := range comments {
			authorIDs = append(authorIDs, c.AuthorID)
		}
		authors, err := services.UsersByID(ctx, authorIDs)
		if err != nil {
			return err
		}

		out := make([]commentListItem, 0, len(comments))
		for _, c := range comments {
			item := commentListItem{
				ID:        c.ID,
				CreatedAt: c.CreatedAt,
				UpdatedAt: c.UpdatedAt,
				ParentID:  c.ParentID,
				Type:      c.ParentType,
				Text:      c.Text,
			}
			if a, ok := authors[c.AuthorID]; ok {
				item.Author = &authorRef{ID: a.ID, Name: a.Name, AvatarPath: a.AvatarPath}
			}
			out = append(out, item)
		}

		respondJSON(w, http.StatusOK, out)
		return nil
	}
}

func parentNotFoundMessage(parentType models.CommentParentType) string {
	if parentType == models.CommentParentPost {
		return postNotFound
	}
	return productNotFound
}

func resolveCommentParent(r *http.Request, parentType models.CommentParentType, parentID primitive.ObjectID) (commentParent, error) {
	ctx, cancel := dbCtx(r)
	defer cancel()

	switch parentType {
	case models.CommentParentPost:
		var post models.Post
		err := database.DB.Collection(models.PostCollection).
			FindOne(ctx, bson.M{"_id": parentID}).Decode(&post)
		if err == mongo.ErrNoDocuments {
			return commentParent{}, apperr.New(apperr.NotFound, postNotFound)
		}
		if err != nil {
			return commentParent{}, err
		}
		return commentParent{ownerID: post.AuthorID, label: "tu publicación."}, nil

	default:
		var product models.Product
		err := database.DB.Collection(models.ProductCollection).
			FindOne(ctx, bson.M{"_id": parentID}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			return commentParent{}, apperr.New(apperr.NotFound, productNotFound)
		}
		if err != nil {
			return commentParent{}, err
		}
		return commentParent{
			ownerID: product.OwnerID,
			label:   fmt.Sprintf("tu artículo: %q", product.Name),
		}, nil
	}
}
