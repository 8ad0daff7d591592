package routes

import (
	"net/http"

	"flowsmith/flowsmith/controllers"
	"flowsmith/flowsmith/middlewares"
	"flowsmith/flowsmith/services/metrics"
	httputils "flowsmith/flowsmith/utils/http"
	"flowsmith/flowsmith/utils/types"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies are the handlers the router mounts.
type Dependencies struct {
	Workflows   *controllers.WorkflowController
	Status      *controllers.StatusController
	Health      *controllers.HealthController
	Metrics     *metrics.Collector
	CORSOrigins []string
}

// NewRouter builds the full HTTP surface: /api, /health and /metrics.
func NewRouter(d Dependencies) chi.Router {
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.TraceID)
	r.Use(middlewares.RequestLogger(d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputils.WriteJSON(w, http.StatusNotFound, types.ErrorResponse{Detail: "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputils.WriteJSON(w, http.StatusMethodNotAllowed, types.ErrorResponse{Detail: "Method Not Allowed"})
	})

	r.Mount("/health", HealthRoutes(d.Health))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	r.Mount("/api", APIRoutes(d.Workflows, d.Status, origins))
	return r
}
