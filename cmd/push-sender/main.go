// The push channel sender: claims due push queue rows and forwards them to
// the configured provider. Without provider credentials it runs the console
// provider, which logs the payload — useful in dev and as the reference
// implementation of the claim/write-back contract.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"project-management-api/config"
	"project-management-api/models"
	"project-management-api/services"
)

type pushProvider interface {
	Send(item *models.PushQueueItem) error
}

// consoleProvider logs instead of sending. PUSH_FAIL_TOKEN lets integration
// environments exercise the failure path for one device token.
type consoleProvider struct{}

func (consoleProvider) Send(item *models.PushQueueItem) error {
	if failToken := os.Getenv("PUSH_FAIL_TOKEN"); failToken != "" && item.DeviceToken == failToken {
		return fmt.Errorf("provider rejected token")
	}
	config.Logger.WithField("platform", item.Platform).
		WithField("device_id", item.DeviceID).
		Infof("push payload: %s", string(item.Payload))
	return nil
}

func pollInterval() time.Duration {
	if v, err := strconv.Atoi(os.Getenv("SENDER_POLL_SECONDS")); err == nil && v > 0 {
		return time.Duration(v) * time.Second
	}
	return 10 * time.Second
}

func batchSize() int {
	if v, err := strconv.Atoi(os.Getenv("SENDER_BATCH_SIZE")); err == nil && v > 0 {
		return v
	}
	return 50
}

func main() {
	if err := godotenv.Load(); err != nil {
		config.Logger.Info("No .env file found, using environment variables")
	}

	logFile := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	config.InitDB()

	var provider pushProvider = consoleProvider{}

	workerID := services.NewWorkerID()
	log := config.Logger.WithField("worker_id", workerID)
	log.Info("push sender started")

	interval := pollInterval()
	limit := batchSize()

	for {
		items, err := services.ClaimDuePush(config.DB, workerID, limit)
		if err != nil {
			log.Errorf("claim failed: %v", err)
			time.Sleep(interval)
			continue
		}
		if len(items) == 0 {
			time.Sleep(interval)
			continue
		}

		for i := range items {
			item := &items[i]
			if err := provider.Send(item); err != nil {
				log.WithField("push_queue_id", item.PushQueueID).
					Warnf("send failed (retry %d): %v", item.RetryCount+1, err)
				if err := services.MarkPushFailed(config.DB, item, err); err != nil {
					log.Errorf("failed to record failure: %v", err)
				}
				continue
			}
			if err := services.MarkPushSent(config.DB, item); err != nil {
				log.Errorf("failed to record success: %v", err)
			}
		}
	}
}
