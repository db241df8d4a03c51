package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/taskmanager/internal/api/handlers"
	mw "github.com/isdelr/taskmanager/internal/api/middleware"
	"github.com/isdelr/taskmanager/internal/routes"
	"github.com/isdelr/taskmanager/internal/services"
	"github.com/isdelr/taskmanager/internal/views"
	"github.com/isdelr/taskmanager/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Gateway        handlers.SessionGateway
	Tasks          services.TaskServiceProvider
	Views          *views.Renderer
	Hub            *websocket.Hub
	Options        handlers.Options
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)

	pages := handlers.NewPageHandler(d.Gateway, d.Tasks, d.Views, d.Options)
	apiHandler := handlers.NewAPIHandler(d.Gateway, d.Tasks, d.Options)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, d.AllowedOrigins)

	pageGuard := mw.RequireSession(d.Gateway, mw.RedirectToLogin)
	apiGuard := mw.RequireSession(d.Gateway, mw.RejectUnauthorized)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get(routes.Home, pages.Home)
	r.Get(routes.Login, pages.LoginForm)
	r.Post(routes.Login, pages.Login)
	r.Get(routes.Register, pages.RegisterForm)
	r.Post(routes.Register, pages.Register)

	r.Group(func(r chi.Router) {
		r.Use(pageGuard)
		r.Get(routes.Tasks, pages.Tasks)
		r.Post(routes.Tasks, pages.SubmitTask)
		r.Post(routes.Logout, pages.Logout)
	})

	r.With(apiGuard).Get(routes.Events, wsHandler.Serve)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", apiHandler.Register)
			r.Post("/login", apiHandler.Login)
			r.Get("/session", apiHandler.Session)
			r.With(apiGuard).Post("/logout", apiHandler.Logout)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(apiGuard)
			r.Get("/", apiHandler.ListTasks)
			r.Post("/", apiHandler.CreateTask)
		})
	})

	return r
}
