package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"nihss-scoring-service/internal/app"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AllowedOrigins for CORS and websocket upgrades; empty allows any origin.
	AllowedOrigins []string
}

// NewRouter mounts the REST API, the websocket endpoint and the health check.
func NewRouter(service *app.AssessmentService, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Websocket connections are long-lived and must not sit behind the request timeout.
	r.Get("/ws", NewWSHandler(service, originChecker(opts.AllowedOrigins)).ServeWS)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(15 * time.Second))
		api.Get("/scale", ScaleHandler())
		api.Route("/assessments", func(ar chi.Router) {
			ar.Post("/", StartHandler(service))
			ar.Get("/{id}", GetHandler(service))
			ar.Delete("/{id}", DiscardHandler(service))
			ar.Post("/{id}/selections", SelectHandler(service))
			ar.Post("/{id}/reset", ResetHandler(service))
			ar.Post("/{id}/finalize", FinalizeHandler(service))
		})
		api.Get("/records/{id}", RecordHandler(service))
	})
	return r
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
