package routes

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/cup-manager/docs"
	"github.com/Dosada05/cup-manager/handlers"
	"github.com/Dosada05/cup-manager/middleware"
	"github.com/Dosada05/cup-manager/models"
)

type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Event        *handlers.EventHandler
	Match        *handlers.MatchHandler
	Result       *handlers.ResultHandler
	Registration *handlers.RegistrationHandler
}

type Options struct {
	JWTSecret          []byte
	CORSAllowedOrigins []string
	// StaticDir и StaticPath задаются, когда файлы хранятся на локальном диске.
	StaticDir  string
	StaticPath string
	Logger     *slog.Logger
}

func SetupRoutes(router chi.Router, opts Options, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)
	organizerOnly := middleware.RequireRole(models.RoleOrganizer)

	router.Get("/", h.Health.Root)
	router.Get("/health", h.Health.Health)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	if opts.StaticDir != "" && opts.StaticPath != "" {
		prefix := "/" + strings.Trim(opts.StaticPath, "/")
		fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(opts.StaticDir)))
		router.Get(prefix+"/*", fileServer.ServeHTTP)
	}

	router.Post("/register", h.Auth.Register)
	router.Post("/login", h.Auth.Login)

	router.Route("/events", func(r chi.Router) {
		// Публичные маршруты
		r.Get("/", h.Event.ListEvents)
		r.Get("/{eventID}/matches", h.Event.ListEventMatches)
		r.Get("/{eventID}/participants", h.Event.ListParticipants)
		r.Get("/{eventID}/standings", h.Event.GetStandings)
		r.Get("/{eventID}/users/{userID}/knockout-progress", h.Event.GetKnockoutProgress)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/{eventID}", h.Event.GetEvent)
			r.Post("/{eventID}/register", h.Event.JoinEvent)
			r.Post("/{eventID}/join", h.Event.JoinEvent)
			r.Delete("/{eventID}/leave", h.Event.LeaveEvent)

			r.Group(func(r chi.Router) {
				r.Use(organizerOnly)

				r.Post("/", h.Event.CreateEvent)
				r.Put("/{eventID}", h.Event.UpdateEvent)
				r.Delete("/{eventID}", h.Event.DeleteEvent)
				r.Get("/{eventID}/registrations", h.Event.ListEventRegistrations)
			})
		})
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/me", h.User.GetMe)
		r.Put("/me", h.User.UpdateMe)
		r.Get("/me/matches", h.User.GetMyMatches)

		r.Group(func(r chi.Router) {
			r.Use(organizerOnly)

			r.Post("/", h.User.CreateUser)
			r.Get("/", h.User.ListUsers)
			r.Get("/{userID}", h.User.GetUserByID)
			r.Put("/{userID}", h.User.UpdateUser)
			r.Delete("/{userID}", h.User.DeleteUser)
			r.Get("/{userID}/registrations", h.User.ListUserRegistrations)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}/results", h.Result.GetMatchResult)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/{matchID}/upload/{userID}", h.Match.UploadMatchImage)

			r.Group(func(r chi.Router) {
				r.Use(organizerOnly)

				r.Post("/", h.Match.CreateMatch)
				r.Get("/", h.Match.ListMatches)
				r.Get("/{matchID}", h.Match.GetMatch)
				r.Put("/{matchID}", h.Match.UpdateMatch)
				r.Delete("/{matchID}", h.Match.DeleteMatch)
			})
		})
	})

	router.Route("/results", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(organizerOnly)

		r.Post("/", h.Result.CreateResult)
		r.Get("/", h.Result.ListResults)
		r.Get("/{resultID}", h.Result.GetResult)
		r.Put("/{resultID}", h.Result.UpdateResult)
		r.Delete("/{resultID}", h.Result.DeleteResult)
	})

	router.Route("/event-registrations", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(organizerOnly)

		r.Post("/", h.Registration.CreateRegistration)
		r.Get("/", h.Registration.ListRegistrations)
		r.Delete("/{userID}/{eventID}", h.Registration.DeleteRegistration)
	})
}
