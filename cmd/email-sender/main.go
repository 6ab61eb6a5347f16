// The email channel sender: polls the email queue for due pending rows,
// claims them, renders and sends the message, then writes the outcome back.
// Runs independently of the API server; several instances may run at once —
// the claim primitive keeps them from double-sending.
package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"project-management-api/config"
	"project-management-api/models"
	"project-management-api/services"
)

func pollInterval() time.Duration {
	if v, err := strconv.Atoi(os.Getenv("SENDER_POLL_SECONDS")); err == nil && v > 0 {
		return time.Duration(v) * time.Second
	}
	return 15 * time.Second
}

func batchSize() int {
	if v, err := strconv.Atoi(os.Getenv("SENDER_BATCH_SIZE")); err == nil && v > 0 {
		return v
	}
	return 20
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

	workerID := services.NewWorkerID()
	log := config.Logger.WithField("worker_id", workerID)
	log.Info("email sender started")

	interval := pollInterval()
	limit := batchSize()

	for {
		items, err := services.ClaimDueEmail(config.DB, workerID, limit)
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
			if err := sendOne(item); err != nil {
				log.WithField("email_queue_id", item.EmailQueueID).
					Warnf("send failed (retry %d): %v", item.RetryCount+1, err)
				if err := services.MarkEmailFailed(config.DB, item, err); err != nil {
					log.Errorf("failed to record failure: %v", err)
				}
				continue
			}
			if err := services.MarkEmailSent(config.DB, item); err != nil {
				log.Errorf("failed to record success: %v", err)
			}
		}
	}
}

func sendOne(item *models.EmailQueueItem) error {
	html, err := renderEmailHTML(item)
	if err != nil {
		return err
	}
	return config.SendMail([]string{item.RecipientEmail}, item.Subject, html)
}

// renderEmailHTML builds a plain formal HTML body from the queued template
// data. Template ids select nothing fancier than the greeting today; the data
// map is kept so richer per-type templates can land without schema changes.
func renderEmailHTML(item *models.EmailQueueItem) (string, error) {
	var data map[string]interface{}
	if len(item.TemplateData) > 0 {
		if err := json.Unmarshal(item.TemplateData, &data); err != nil {
			return "", fmt.Errorf("bad template data: %w", err)
		}
	}

	message := item.Subject
	if m, ok := data["message"].(string); ok && m != "" {
		message = m
	}

	name := strings.TrimSpace(item.RecipientName)
	if name == "" {
		name = item.RecipientEmail
	}

	escapedSubject := template.HTMLEscapeString(item.Subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Hello %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage), nil
}
