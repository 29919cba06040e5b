package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/transdesk/backend/internal/api/handlers"
	"github.com/transdesk/backend/internal/api/middleware"
	"github.com/transdesk/backend/internal/auth"
	"github.com/transdesk/backend/internal/config"
	"github.com/transdesk/backend/internal/db"
	"github.com/transdesk/backend/internal/translate"
)

// jsonBodyLimit caps JSON request bodies; spreadsheet uploads use cfg.UploadMaxBytes.
const jsonBodyLimit = 2 << 20

func NewRouter(database *db.Database, jwtService *auth.JWTService, cfg *config.Config, svc *translate.Service, models handlers.ModelLister) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSOptions(cfg.CORSOrigins)))
	r.Use(middleware.MaxBodySize(jsonBodyLimit))

	// Handlers
	authHandler := handlers.NewAuthHandler(database, jwtService, cfg.CookieSecure)
	projectsHandler := handlers.NewProjectsHandler(database)
	translationsHandler := handlers.NewTranslationsHandler(database, cfg.UploadMaxBytes)
	corpusHandler := handlers.NewCorpusHandler(database, cfg.UploadMaxBytes)
	tasksHandler := handlers.NewTasksHandler(database)
	translateHandler := handlers.NewTranslateHandler(svc)
	settingsHandler := handlers.NewSettingsHandler(database, models, cfg.Provider)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Auth (public)
		r.With(loginLimiter.Handler).Post("/auth/login", authHandler.Login)
		r.With(loginLimiter.Handler).Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/auth/register", authHandler.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			// Auth
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/change-password", authHandler.ChangePassword)

			// Projects
			r.Get("/projects", projectsHandler.List)
			r.Post("/projects", projectsHandler.Create)
			r.Route("/projects/{id}", func(r chi.Router) {
				r.Get("/", projectsHandler.Get)
				r.Put("/", projectsHandler.Update)
				r.Delete("/", projectsHandler.Delete)
				r.Get("/stats", projectsHandler.Stats)

				// Translations
				r.Get("/translations", translationsHandler.List)
				r.Post("/translations", translationsHandler.Create)
				r.Put("/translations", translationsHandler.Update)
				r.Delete("/translations", translationsHandler.Delete)
				r.Post("/translations/upload", translationsHandler.Upload)
				r.Get("/translations/export", translationsHandler.Export)
				r.Post("/translations/translate", translateHandler.TranslateProject)

				// Corpus
				r.Get("/corpus", corpusHandler.List)
				r.Delete("/corpus", corpusHandler.Delete)
				r.Post("/corpus/upload", corpusHandler.Upload)
				r.Get("/corpus/export", corpusHandler.Export)

				// Tasks
				r.Get("/tasks", tasksHandler.List)
				r.Post("/tasks", tasksHandler.Create)
				r.Get("/tasks/{taskId}", tasksHandler.Get)
				r.Put("/tasks/{taskId}", tasksHandler.Update)
			})

			// Translate
			r.Post("/translate", translateHandler.Translate)

			// Settings
			r.Get("/settings", settingsHandler.GetSettings)
			r.Post("/settings", settingsHandler.UpdateSettings)
			r.Get("/settings/models", settingsHandler.ListModels)
		})
	})

	return r
}
