package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tipprunde/handlers"
	"tipprunde/middleware"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Games     *handlers.GameHandler
	Members   *handlers.MemberHandler
	WebSocket *handlers.WebSocketHandler
}

// SetupRoutes собирает маршрутизатор: чтение и WebSocket публичные, всё
// пишущее живёт за JWT-аутентификацией.
func SetupRoutes(h Handlers, jwtSecret []byte) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/signup", h.Auth.Signup)
	router.Post("/auth/login", h.Auth.Login)

	router.Get("/ws/games/{gameID}", h.WebSocket.ServeWs)

	router.Route("/games", func(r chi.Router) {
		r.Get("/", h.Games.List)
		r.Get("/{gameID}", h.Games.GetByID)
		r.Get("/{gameID}/config", h.Games.GetConfig)
		r.Get("/{gameID}/evaluation", h.Games.Evaluate)
		r.Get("/{gameID}/members", h.Members.ListByGame)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", h.Games.Create)
			r.Put("/{gameID}", h.Games.Update)
			r.Delete("/{gameID}", h.Games.Delete)

			r.Put("/{gameID}/config", h.Games.SaveConfig)
			r.Post("/{gameID}/placements", h.Games.AddPlacementRule)
			r.Delete("/{gameID}/placements/{rank}", h.Games.RemovePlacementRule)

			r.Post("/{gameID}/sync", h.Games.Sync)
			r.Post("/{gameID}/logo", h.Games.UploadLogo)

			r.Post("/{gameID}/members", h.Members.Create)
		})
	})

	router.Route("/members", func(r chi.Router) {
		r.Get("/{memberID}", h.Members.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Put("/{memberID}", h.Members.Update)
			r.Delete("/{memberID}", h.Members.Delete)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/sync", h.Games.SyncAll)
	})

	return router
}
