package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"renderfarm/internal/broker"
	"renderfarm/internal/config"
	"renderfarm/internal/httpapi/handlers"
	"renderfarm/internal/httpkit"
	"renderfarm/internal/pkg/logger"
	"renderfarm/internal/pkg/middleware"
)

type Deps struct {
	Broker broker.Broker
	Cfg    config.Config
	Log    *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins:   d.Cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAgeSeconds:    600,
	}))

	h := handlers.New(handlers.Deps{
		Broker: d.Broker,
		Cfg:    d.Cfg,
		Log:    log,
	})

	// ---- HEALTH ----
	r.Get("/health", h.Health)

	// ---- JOBS ----
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/submit", h.SubmitJob)
		r.Get("/", h.ListJobs)
		r.Get("/job/{jobID}", h.GetJob)
		r.Delete("/{jobID}", h.DeleteJob)
	})

	// ---- RENDERS ----
	r.Get("/renders/{sceneName}/{jobID}", h.GetFrames)
	r.Get("/renders/{sceneName}/{jobID}/log", h.GetLog)

	// Frame images are served straight off the shared output tree.
	fileServer := http.FileServer(http.Dir(d.Cfg.OutputRoot()))
	r.Handle("/outputs/*", http.StripPrefix("/outputs/", fileServer))

	return r
}
