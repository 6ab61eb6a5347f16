package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"project-management-api/models"
)

// Channel senders are external collaborators; this file is the contract they
// consume: claim due pending rows, then write back sent or failed. Claiming is
// one conditional UPDATE so concurrent workers never double-send. A claim left
// behind by a crashed worker expires after claimTTL and the row comes back.

const claimTTL = 10 * time.Minute

// NewWorkerID returns a claim token for one sender process.
func NewWorkerID() string { return uuid.NewString() }

// NextRetryState advances a retry counter toward its ceiling. The counter
// never exceeds the cap; reaching it is terminal.
func NextRetryState(retryCount, ceiling int) (next int, terminal bool) {
	next = retryCount + 1
	if next >= ceiling {
		return ceiling, true
	}
	return next, false
}

// priorityRankSQL orders queue rows critical → high → medium → low.
const priorityRankSQL = "FIELD(priority, 'critical', 'high', 'medium', 'low')"

// ClaimDueEmail claims up to limit due email queue rows for workerID and
// returns them ordered by priority then scheduled time.
func ClaimDueEmail(db *gorm.DB, workerID string, limit int) ([]models.EmailQueueItem, error) {
	now := time.Now()
	err := db.Exec(
		`UPDATE email_queue
		 SET claimed_by = ?, claimed_at = ?
		 WHERE status = ? AND scheduled_at <= ?
		   AND (claimed_by IS NULL OR claimed_at < ?)
		 ORDER BY `+priorityRankSQL+`, scheduled_at ASC
		 LIMIT ?`,
		workerID, now, models.QueueStatusPending, now, now.Add(-claimTTL), limit,
	).Error
	if err != nil {
		return nil, fmt.Errorf("failed to claim email queue rows: %w", err)
	}

	var items []models.EmailQueueItem
	err = db.Where("claimed_by = ? AND status = ?", workerID, models.QueueStatusPending).
		Order(priorityRankSQL + ", scheduled_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load claimed email rows: %w", err)
	}
	return items, nil
}

// MarkEmailSent finalizes a delivered email queue row and records the
// delivery outcome.
func MarkEmailSent(db *gorm.DB, item *models.EmailQueueItem) error {
	now := time.Now()
	err := db.Model(&models.EmailQueueItem{}).
		Where("email_queue_id = ?", item.EmailQueueID).
		Updates(map[string]interface{}{
			"status":     models.QueueStatusSent,
			"sent_at":    now,
			"claimed_by": nil,
			"claimed_at": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark email sent: %w", err)
	}
	if item.NotificationID != nil {
		return recordDelivery(db, *item.NotificationID, models.ChannelEmail,
			models.DeliveryStatusDelivered, item.RetryCount, nil)
	}
	return nil
}

// MarkEmailFailed records a failed attempt. Below the retry ceiling the row
// returns to pending for another worker; at the ceiling it is terminally
// failed (the dead-letter policy of this core).
func MarkEmailFailed(db *gorm.DB, item *models.EmailQueueItem, sendErr error) error {
	retry, terminal := NextRetryState(item.RetryCount, models.MaxEmailRetries)
	status := models.QueueStatusPending
	if terminal {
		status = models.QueueStatusFailed
	}
	errText := sendErr.Error()

	err := db.Model(&models.EmailQueueItem{}).
		Where("email_queue_id = ?", item.EmailQueueID).
		Updates(map[string]interface{}{
			"status":      status,
			"retry_count": retry,
			"last_error":  errText,
			"claimed_by":  nil,
			"claimed_at":  nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark email failed: %w", err)
	}

	if item.NotificationID != nil {
		deliveryStatus := models.DeliveryStatusPending
		if terminal {
			deliveryStatus = models.DeliveryStatusFailed
		}
		return recordDelivery(db, *item.NotificationID, models.ChannelEmail,
			deliveryStatus, retry, &errText)
	}
	return nil
}

// ClaimDuePush claims up to limit due push queue rows for workerID.
func ClaimDuePush(db *gorm.DB, workerID string, limit int) ([]models.PushQueueItem, error) {
	now := time.Now()
	err := db.Exec(
		`UPDATE push_queue
		 SET claimed_by = ?, claimed_at = ?
		 WHERE status = ? AND scheduled_at <= ?
		   AND (claimed_by IS NULL OR claimed_at < ?)
		 ORDER BY `+priorityRankSQL+`, scheduled_at ASC
		 LIMIT ?`,
		workerID, now, models.QueueStatusPending, now, now.Add(-claimTTL), limit,
	).Error
	if err != nil {
		return nil, fmt.Errorf("failed to claim push queue rows: %w", err)
	}

	var items []models.PushQueueItem
	err = db.Where("claimed_by = ? AND status = ?", workerID, models.QueueStatusPending).
		Order(priorityRankSQL + ", scheduled_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load claimed push rows: %w", err)
	}
	return items, nil
}

// MarkPushSent finalizes a delivered push queue row.
func MarkPushSent(db *gorm.DB, item *models.PushQueueItem) error {
	now := time.Now()
	err := db.Model(&models.PushQueueItem{}).
		Where("push_queue_id = ?", item.PushQueueID).
		Updates(map[string]interface{}{
			"status":     models.QueueStatusSent,
			"sent_at":    now,
			"claimed_by": nil,
			"claimed_at": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark push sent: %w", err)
	}
	return recordDelivery(db, item.NotificationID, models.ChannelPush,
		models.DeliveryStatusDelivered, item.RetryCount, nil)
}

// MarkPushFailed mirrors MarkEmailFailed with the generic delivery ceiling.
func MarkPushFailed(db *gorm.DB, item *models.PushQueueItem, sendErr error) error {
	retry, terminal := NextRetryState(item.RetryCount, models.MaxDeliveryRetries)
	status := models.QueueStatusPending
	if terminal {
		status = models.QueueStatusFailed
	}
	errText := sendErr.Error()

	err := db.Model(&models.PushQueueItem{}).
		Where("push_queue_id = ?", item.PushQueueID).
		Updates(map[string]interface{}{
			"status":      status,
			"retry_count": retry,
			"last_error":  errText,
			"claimed_by":  nil,
			"claimed_at":  nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark push failed: %w", err)
	}

	deliveryStatus := models.DeliveryStatusPending
	if terminal {
		deliveryStatus = models.DeliveryStatusFailed
	}
	return recordDelivery(db, item.NotificationID, models.ChannelPush,
		deliveryStatus, retry, &errText)
}

// recordDelivery upserts the (notification, channel) delivery record in one
// statement; the unique index on that pair makes duplicates impossible even
// with racing senders. The retry counter stored here is capped at the generic
// delivery ceiling.
func recordDelivery(db *gorm.DB, notificationID uint, channel, status string, retryCount int, errText *string) error {
	if retryCount > models.MaxDeliveryRetries {
		retryCount = models.MaxDeliveryRetries
	}

	record := models.NotificationDelivery{
		NotificationID: notificationID,
		Channel:        channel,
		Status:         status,
		RetryCount:     retryCount,
		LastError:      errText,
	}
	assignments := map[string]interface{}{
		"status":      status,
		"retry_count": retryCount,
		"last_error":  errText,
	}
	if status == models.DeliveryStatusDelivered {
		now := time.Now()
		record.DeliveredAt = &now
		assignments["delivered_at"] = now
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "notification_id"}, {Name: "channel"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}
