package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jbkun069/AnimeChatCraft/pkg/character"
	"github.com/jbkun069/AnimeChatCraft/pkg/charstore"
	"github.com/jbkun069/AnimeChatCraft/pkg/slg"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogchi "github.com/samber/slog-chi"
)

const maxBodyBytes = 1 << 20

type Config struct {
	Port           int           `yaml:"port" env:"PORT"`
	Timeout        time.Duration `yaml:"timeout" env:"API_TIMEOUT"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"API_ALLOWED_ORIGINS"`
}

type ChatService interface {
	Reply(ctx context.Context, c *character.Character, message string) (string, error)
}

type API struct {
	logger *slog.Logger

	store charstore.Store
	chat  ChatService

	gatherer prometheus.Gatherer

	cfg *Config
}

func NewAPI(cfg *Config, logger *slog.Logger, store charstore.Store, chat ChatService, gatherer prometheus.Gatherer) *API {
	return &API{
		cfg: cfg,

		logger: logger,

		store: store,
		chat:  chat,

		gatherer: gatherer,
	}
}

func (api *API) NewRouter() *chi.Mux {
	router := chi.NewRouter()

	allowedOrigins := api.cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	router.Use(middleware.RequestID)
	router.Use(slogchi.New(api.logger))
	router.Use(api.ctxLogger)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	router.Use(middleware.StripSlashes)

	router.Use(middleware.Recoverer)

	if api.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(api.gatherer, promhttp.HandlerOpts{}))
	}

	// chat applies the timeout itself so a late provider failure still answers once
	router.Post("/chat", api.sendMessage)

	router.Group(func(router chi.Router) {
		if api.cfg.Timeout > 0 {
			router.Use(middleware.Timeout(api.cfg.Timeout))
		}

		router.Post("/save_character", api.saveCharacter)
		router.Get("/load_character/{name}", api.loadCharacter)
		router.Get("/list_characters", api.listCharacters)
	})

	router.Get("/", index)
	router.Handle("/static/*", http.FileServerFS(staticFS))

	return router
}

// ctxLogger hands handlers a logger tagged with the request id through slg.
func (api *API) ctxLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := api.logger.With("request_id", middleware.GetReqID(r.Context()))

		next.ServeHTTP(w, r.WithContext(slg.WithSlog(r.Context(), logger)))
	})
}
