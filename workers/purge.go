package workers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"rentify/config"
	"rentify/services/reservation"

	"github.com/hibiken/asynq"
)

const TypeSessionPurge = "session:purge"

// PurgePayload identifies the namespace to sweep.
type PurgePayload struct {
	Namespace string `json:"namespace"`
}

// NewPurgeClient returns the asynq client used to enqueue purge tasks.
func NewPurgeClient() *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisPurgeJobsDB,
	})
}

// EnqueuePurge schedules an out-of-band sweep of a namespace. Used as a
// backstop after expiration and completion so residual keys never outlive
// the session.
func EnqueuePurge(client *asynq.Client, namespace string, delay time.Duration) error {
	payload, err := json.Marshal(PurgePayload{Namespace: namespace})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeSessionPurge, payload)
	_, err = client.Enqueue(task, asynq.ProcessIn(delay))
	return err
}

// InitPurgeWorker runs the async worker in background.
func InitPurgeWorker(store reservation.SessionStore) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisPurgeJobsDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSessionPurge, handlePurgeTask(store))

	go func() {
		log.Println("[PurgeWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[PurgeWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[PurgeWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handlePurgeTask(store reservation.SessionStore) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p PurgePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[PurgeHandler] invalid payload: %v", err)
			return err
		}
		if err := store.Clear(ctx, p.Namespace); err != nil {
			log.Printf("[PurgeHandler] failed to sweep namespace %s: %v", p.Namespace, err)
			return err
		}
		return nil
	}
}
