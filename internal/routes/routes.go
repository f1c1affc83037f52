package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecocambio/eco-cambio-backend/internal/config"
	"github.com/ecocambio/eco-cambio-backend/internal/handlers"
	"github.com/ecocambio/eco-cambio-backend/internal/middleware"
	"github.com/ecocambio/eco-cambio-backend/internal/models"
)

func SetupRoutes(r chi.Router, cfg *config.Config) {
	r.Route("/api", func(api chi.Router) {
		// Public auth routes
		api.Post("/auth/register", handlers.Handle(handlers.Register))
		api.Post("/auth/login", handlers.Handle(handlers.Login))
		api.Post("/auth/forgotpassword", handlers.Handle(handlers.ForgotPassword))

		// Private routes
		api.Group(func(priv chi.Router) {
			priv.Use(middleware.RequireAuth(cfg.JWTSecret))

			priv.Get("/usuarios/perfil", handlers.Handle(handlers.GetProfile))
			priv.Put("/usuarios/perfil", handlers.Handle(handlers.UpdateProfile))

			priv.Get("/productos", handlers.Handle(handlers.ListProducts))
			priv.Post("/productos", handlers.Handle(handlers.CreateProduct))
			priv.Get("/productos/{id}", handlers.Handle(handlers.GetProduct))
			priv.Delete("/productos/{id}", handlers.Handle(handlers.DeleteProduct))
			priv.Post("/productos/{id}/comentarios", handlers.Handle(handlers.CreateComment(models.CommentParentProduct)))
			priv.Get("/productos/{id}/comentarios", handlers.Handle(handlers.ListComments(models.CommentParentProduct)))

			priv.Get("/publicaciones", handlers.Handle(handlers.ListPosts))
			priv.Post("/publicaciones", handlers.Handle(handlers.CreatePost))
			priv.Put("/publicaciones/{id}", handlers.Handle(handlers.UpdatePost))
			priv.Delete("/publicaciones/{id}", handlers.Handle(handlers.DeletePost))
			priv.Post("/publicaciones/{id}/comentarios", handlers.Handle(handlers.CreateComment(models.CommentParentPost)))
			priv.Get("/publicaciones/{id}/comentarios", handlers.Handle(handlers.ListComments(models.CommentParentPost)))

			priv.Post("/mensajes", handlers.Handle(handlers.SendMessage))
			priv.Get("/mensajes/recibidos", handlers.Handle(handlers.ListReceivedMessages))

			priv.Get("/notificaciones", handlers.Handle(handlers.ListUnreadNotifications))
			priv.Put("/notificaciones/{id}/leida", handlers.Handle(handlers.MarkNotificationRead))

			priv.Post("/reportes", handlers.Handle(handlers.CreateReport))
			priv.Get("/reportes", handlers.Handle(handlers.ListReports))
			priv.Delete("/reportes/{id}", handlers.Handle(handlers.DeleteReport))

			priv.Post("/transacciones/simular", handlers.Handle(handlers.SimulateTransaction))
		})
	})

	// Uploaded images are served directly from the content directory.
	uploadServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.Get("/uploads/*", uploadServer.ServeHTTP)
}
