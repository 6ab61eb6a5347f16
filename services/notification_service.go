package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"project-management-api/config"
	"project-management-api/models"
	"project-management-api/utils"
)

// CreateNotificationInput is the dispatcher request. CreatedBy defaults to
// ActorID so system-triggered notifications still attribute correctly.
type CreateNotificationInput struct {
	UserID     uint
	Type       string
	Title      string
	Message    string
	Payload    map[string]interface{}
	EntityType *string
	EntityID   *uint
	Priority   string // empty → medium
	CreatedBy  *uint
	ActorID    *uint
}

// Email template ids per notification type, rendered by the email sender.
var emailTemplates = map[string]string{
	models.NotificationTypeTaskUpdated:           "task_updated",
	models.NotificationTypeTaskMetadataChanged:   "task_metadata_changed",
	models.NotificationTypeApprovalRequested:     "approval_requested",
	models.NotificationTypeApprovalStatusChanged: "approval_status_changed",
	models.NotificationTypeSystem:                "system_announcement",
}

// EmailDelay is the priority → scheduling delay table for the email queue.
// Low-urgency mail is deferred so downstream senders can coalesce batches and
// the mail provider is protected from bursts. Push is always immediate.
func EmailDelay(priority string) time.Duration {
	switch priority {
	case models.PriorityCritical:
		return 0
	case models.PriorityHigh:
		return 5 * time.Minute
	case models.PriorityMedium:
		return 15 * time.Minute
	default:
		return 30 * time.Minute
	}
}

func validateCreateInput(in *CreateNotificationInput) error {
	if in.UserID == 0 {
		return validationErr("user_id", "recipient is required")
	}
	if !models.IsValidNotificationType(in.Type) {
		return validationErr("type", fmt.Sprintf("unknown notification type %q", in.Type))
	}
	if strings.TrimSpace(in.Title) == "" {
		return validationErr("title", "must not be empty")
	}
	if utf8.RuneCountInString(in.Title) > models.MaxTitleLength {
		return validationErr("title", fmt.Sprintf("exceeds %d characters", models.MaxTitleLength))
	}
	if strings.TrimSpace(in.Message) == "" {
		return validationErr("message", "must not be empty")
	}
	if utf8.RuneCountInString(in.Message) > models.MaxMessageLength {
		return validationErr("message", fmt.Sprintf("exceeds %d characters", models.MaxMessageLength))
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !models.IsValidPriority(in.Priority) {
		return validationErr("priority", fmt.Sprintf("unknown priority %q", in.Priority))
	}
	if (in.EntityType == nil) != (in.EntityID == nil) {
		return validationErr("entity", "entity_type and entity_id must be set together")
	}
	if in.EntityType != nil && !models.IsValidEntityType(*in.EntityType) {
		return validationErr("entity_type", fmt.Sprintf("unknown entity type %q", *in.EntityType))
	}
	if in.CreatedBy == nil {
		in.CreatedBy = in.ActorID
	}
	return nil
}

// CreateNotification persists a notification and fans it out: the realtime
// delivery record is written synchronously (the in-app feed is authoritative),
// then email and push queue items are enqueued per the recipient's channel
// preferences. Runs entirely inside the caller's transaction — a failure here
// rolls the triggering domain mutation back with it.
func CreateNotification(tx *gorm.DB, in CreateNotificationInput) (uint, error) {
	if err := validateCreateInput(&in); err != nil {
		return 0, err
	}

	var payload json.RawMessage
	if in.Payload != nil {
		raw, err := json.Marshal(in.Payload)
		if err != nil {
			return 0, fmt.Errorf("failed to encode payload: %w", err)
		}
		payload = raw
	}

	notification := models.Notification{
		UserID:     in.UserID,
		Type:       in.Type,
		Priority:   in.Priority,
		Title:      in.Title,
		Message:    in.Message,
		Payload:    payload,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		CreatedBy:  in.CreatedBy,
	}
	if err := tx.Create(&notification).Error; err != nil {
		return 0, fmt.Errorf("failed to create notification: %w", err)
	}

	// Realtime first: this write never queues or retries.
	now := time.Now()
	delivery := models.NotificationDelivery{
		NotificationID: notification.NotificationID,
		Channel:        models.ChannelRealtime,
		Status:         models.DeliveryStatusDelivered,
		DeliveredAt:    &now,
	}
	if err := tx.Create(&delivery).Error; err != nil {
		return 0, fmt.Errorf("failed to record realtime delivery: %w", err)
	}

	// System notifications cannot be suppressed by preferences.
	prefs := ChannelPreferences{Email: true, Push: true, InApp: true}
	if in.Type != models.NotificationTypeSystem {
		var err error
		if prefs, err = ResolveChannelPreferences(tx, in.UserID, in.Type); err != nil {
			return 0, err
		}
	}

	if in.Type == models.NotificationTypeSystem || prefs.Email {
		if err := enqueueEmail(tx, &notification, now); err != nil {
			return 0, err
		}
	}
	if in.Type == models.NotificationTypeSystem || prefs.Push {
		if err := enqueuePush(tx, &notification, now); err != nil {
			return 0, err
		}
	}

	Realtime.Notify(&notification)

	return notification.NotificationID, nil
}

func enqueueEmail(tx *gorm.DB, n *models.Notification, now time.Time) error {
	var recipient struct {
		Email     string
		UserFname string
		UserLname string
	}
	err := tx.Table("users").
		Select("email, user_fname, user_lname").
		Where("user_id = ? AND delete_at IS NULL", n.UserID).
		Scan(&recipient).Error
	if err != nil {
		return fmt.Errorf("failed to load recipient: %w", err)
	}

	// No resolvable address is a silent skip, not an error.
	email := strings.TrimSpace(recipient.Email)
	if email == "" || !utils.ValidateEmail(email) {
		config.Logger.WithField("user_id", n.UserID).
			Debug("skipping email enqueue: no valid address")
		return nil
	}

	data := map[string]interface{}{
		"title":   n.Title,
		"message": n.Message,
	}
	if n.Payload != nil {
		data["payload"] = n.Payload
	}
	templateData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode template data: %w", err)
	}

	name := strings.TrimSpace(recipient.UserFname + " " + recipient.UserLname)
	item := models.EmailQueueItem{
		NotificationID: &n.NotificationID,
		RecipientEmail: email,
		RecipientName:  name,
		Subject:        n.Title,
		TemplateID:     emailTemplates[n.Type],
		TemplateData:   templateData,
		Priority:       n.Priority,
		Status:         models.QueueStatusPending,
		ScheduledAt:    now.Add(EmailDelay(n.Priority)),
	}
	if err := tx.Create(&item).Error; err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	return nil
}

func enqueuePush(tx *gorm.DB, n *models.Notification, now time.Time) error {
	var devices []models.UserDevice
	if err := tx.Where("user_id = ? AND push_enabled = ?", n.UserID, true).
		Find(&devices).Error; err != nil {
		return fmt.Errorf("failed to load devices: %w", err)
	}
	// Zero devices is a silent skip.
	if len(devices) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": n.Title,
		"body":  n.Message,
		"data": map[string]interface{}{
			"notification_id": n.NotificationID,
			"type":            n.Type,
			"entity_type":     n.EntityType,
			"entity_id":       n.EntityID,
			"payload":         n.Payload,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	// One queue item per device; push has no batching value, so it is always
	// scheduled immediately.
	for _, device := range devices {
		item := models.PushQueueItem{
			NotificationID: n.NotificationID,
			DeviceID:       device.DeviceID,
			Platform:       device.Platform,
			DeviceToken:    device.DeviceToken,
			Payload:        payload,
			Priority:       n.Priority,
			Status:         models.QueueStatusPending,
			ScheduledAt:    now,
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to enqueue push: %w", err)
		}
	}
	return nil
}

/* ==========================
   Read-state
   ========================== */

// MarkNotificationRead marks one notification read for its owner. Marking an
// already-read row again is a no-op success.
func MarkNotificationRead(db *gorm.DB, userID, notificationID uint) error {
	var n models.Notification
	err := db.Where("notification_id = ? AND user_id = ?", notificationID, userID).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to load notification: %w", err)
	}
	if n.IsRead {
		return nil
	}

	now := time.Now()
	return db.Model(&models.Notification{}).
		Where("notification_id = ?", notificationID).
		Updates(map[string]interface{}{
			"is_read":   true,
			"read_at":   now,
			"update_at": now,
		}).Error
}

// MarkAllNotificationsRead marks every unread notification of the user read
// and returns the affected count (0 is a valid result).
func MarkAllNotificationsRead(db *gorm.DB, userID uint) (int64, error) {
	now := time.Now()
	res := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read":   true,
			"read_at":   now,
			"update_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// UnreadNotificationCount returns the user's unread count, 0 when none.
func UnreadNotificationCount(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
