package main

import (
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/heyfeelings-official/little-microphones/internal/config"
	"github.com/heyfeelings-official/little-microphones/internal/contacts"
	"github.com/heyfeelings-official/little-microphones/internal/db"
	"github.com/heyfeelings-official/little-microphones/internal/worker"
	"github.com/heyfeelings-official/little-microphones/pkg/tasks"
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

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"high":    2,
				"default": 1,
			},
			// Custom retry delay function for exponential backoff
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := 30 * time.Second
				maxDelay := 1 * time.Hour

				// Exponential backoff: 30s, 1min, 2min, 4min, etc.
				for i := 0; i < n; i++ {
					delay *= 2
					if delay > maxDelay {
						delay = maxDelay
						break
					}
				}

				log.Printf("Task %s failed %d times, retrying in %v", task.Type(), n+1, delay)
				return delay
			},
		},
	)

	contactsClient := contacts.NewClient(cfg.BrevoAPIURL, cfg.BrevoAPIKey)
	taskHandler := worker.NewTaskHandler(cfg, contactsClient)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSyncContact, taskHandler.HandleSyncContactTask)
	mux.HandleFunc(tasks.TypeSendNotification, taskHandler.HandleSendNotificationTask)
	mux.HandleFunc(tasks.TypeAuditPool, taskHandler.HandleAuditPoolTask)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
