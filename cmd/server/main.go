package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/heyfeelings-official/little-microphones/internal/config"
	"github.com/heyfeelings-official/little-microphones/internal/db"
	"github.com/heyfeelings-official/little-microphones/internal/handlers"
	"github.com/heyfeelings-official/little-microphones/internal/identity"
	"github.com/heyfeelings-official/little-microphones/internal/metrics"
	"github.com/heyfeelings-official/little-microphones/internal/middleware"
	"github.com/heyfeelings-official/little-microphones/internal/storage"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db.InitDB(cfg.DatabaseURL)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asynqClient.Close()

	storageClient := storage.NewClient(cfg.BunnyStorageEndpoint, cfg.BunnyStorageZone, cfg.BunnyStorageKey, cfg.BunnyCDNHost)
	identityClient := identity.NewClient(cfg.MemberstackAPIURL, cfg.MemberstackAPIKey)
	h := handlers.New(cfg, asynqClient, storageClient, identityClient)

	rl := middleware.NewRateLimiterMiddleware(rate.Limit(5), 10)

	r := mux.NewRouter()

	r.Handle("/api/webhooks/memberstack",
		middleware.SignatureMiddleware(cfg.MemberstackWebhookSecret, http.HandlerFunc(h.HandleMemberWebhook))).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rl.Middleware)
	api.HandleFunc("/lmids/verify", h.VerifyLmids).Methods(http.MethodPost)
	api.HandleFunc("/lmids/provision", h.ProvisionLmids).Methods(http.MethodPost)
	api.HandleFunc("/radio", h.BuildRadioProgram).Methods(http.MethodPost)
	api.HandleFunc("/radio/{shareId}", h.GetRadioProgram).Methods(http.MethodGet)
	api.HandleFunc("/notifications", h.DispatchNotification).Methods(http.MethodPost)

	r.HandleFunc("/rss/{shareId}", h.GetProgramFeed).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	log.Printf("Starting server on :%s (commit: %s)", cfg.Port, CommitSHA)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
