package httpapi

import (
	"net/http"
	"time"

	"github.com/DoyleJ11/nhl-pickem/internal/dataset"
	"github.com/DoyleJ11/nhl-pickem/internal/highscore"
	"github.com/DoyleJ11/nhl-pickem/internal/hub"
	"github.com/DoyleJ11/nhl-pickem/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Deps struct {
	Hub            *hub.Hub
	Scores         highscore.Store
	Data           *dataset.Provider // optional; serves GET /dataset
	AllowedOrigins []string
	Log            *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	a := &api{hub: d.Hub, scores: d.Scores, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, ws.Options{OriginPatterns: d.AllowedOrigins, Log: log}))

	r.Route("/lobbies", func(r chi.Router) {
		r.Post("/", a.createLobby)
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", a.getLobby)
			r.Post("/games", a.newGame)
			r.Get("/players", a.listPlayers)
			r.Post("/picks", a.commitPick)
		})
	})

	r.Get("/highscores/{mode}", a.getHighScore)
	r.Delete("/highscores/{mode}", a.resetHighScore)

	if d.Data != nil {
		r.Get("/dataset", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, d.Data.Meta())
		})
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedOrigins: d.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
