package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-management-api/models"
)

func TestNextRetryState(t *testing.T) {
	next, terminal := NextRetryState(0, models.MaxEmailRetries)
	assert.Equal(t, 1, next)
	assert.False(t, terminal)

	next, terminal = NextRetryState(3, models.MaxEmailRetries)
	assert.Equal(t, 4, next)
	assert.False(t, terminal)

	next, terminal = NextRetryState(4, models.MaxEmailRetries)
	assert.Equal(t, 5, next)
	assert.True(t, terminal)

	// The counter never walks past the ceiling, even on repeated failures.
	next, terminal = NextRetryState(5, models.MaxEmailRetries)
	assert.Equal(t, 5, next)
	assert.True(t, terminal)

	next, terminal = NextRetryState(9, models.MaxDeliveryRetries)
	assert.Equal(t, 10, next)
	assert.True(t, terminal)
}

func TestNewWorkerIDsDistinct(t *testing.T) {
	a := NewWorkerID()
	b := NewWorkerID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestMarkEmailFailedBelowCeilingRequeues(t *testing.T) {
	notificationID := uint(42)
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `email_queue` SET"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			// Delivery outcome lands as one upsert keyed on the unique
			// (notification_id, channel) pair.
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notification_deliveries` .* ON DUPLICATE KEY UPDATE"),
			result:  scriptedResult{lastInsertID: 3, rowsAffected: 2},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	item := &models.EmailQueueItem{
		EmailQueueID:   9,
		NotificationID: &notificationID,
		RetryCount:     1,
	}
	require.NoError(t, MarkEmailFailed(db, item, errors.New("smtp timeout")))
	require.NoError(t, state.verifyComplete())
}

func TestMarkEmailFailedAtCeilingIsTerminal(t *testing.T) {
	notificationID := uint(42)
	steps := []*queryStep{
		{
			// Terminal transition: status goes to failed, not back to pending.
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `email_queue` SET"),
			args: []driver.Value{
				nil, nil, "smtp timeout", int64(models.MaxEmailRetries), "failed", int64(9),
			},
			result: scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notification_deliveries` .* ON DUPLICATE KEY UPDATE"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	item := &models.EmailQueueItem{
		EmailQueueID:   9,
		NotificationID: &notificationID,
		RetryCount:     models.MaxEmailRetries - 1,
	}
	require.NoError(t, MarkEmailFailed(db, item, errors.New("smtp timeout")))
	require.NoError(t, state.verifyComplete())
}

func TestMarkEmailSentWithoutNotificationSkipsDelivery(t *testing.T) {
	// Standalone queue rows (no linked notification) only flip their status.
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `email_queue` SET"),
			result:  scriptedResult{rowsAffected: 1},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	item := &models.EmailQueueItem{EmailQueueID: 9}
	require.NoError(t, MarkEmailSent(db, item))
	require.NoError(t, state.verifyComplete())
}

func TestClaimDueEmailClaimsThenLoads(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`UPDATE email_queue\s+SET claimed_by`),
			result:  scriptedResult{rowsAffected: 2},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `email_queue` WHERE claimed_by = \\? AND status = \\?"),
			columns: []string{"email_queue_id", "recipient_email", "subject", "priority", "status", "retry_count"},
			rows: [][]driver.Value{
				{int64(1), "a@example.com", "Approval needed", "high", "pending", int64(0)},
				{int64(2), "b@example.com", "Task updated", "medium", "pending", int64(0)},
			},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	items, err := ClaimDueEmail(db, "worker-1", 20)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a@example.com", items[0].RecipientEmail)
	assert.Equal(t, "high", items[0].Priority)
	require.NoError(t, state.verifyComplete())
}

func TestMarkPushFailedTerminalRecordsFailedDelivery(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `push_queue` SET"),
			args: []driver.Value{
				nil, nil, "device token rejected", int64(models.MaxDeliveryRetries), "failed", int64(4),
			},
			result: scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notification_deliveries` .* ON DUPLICATE KEY UPDATE"),
			result:  scriptedResult{lastInsertID: 8, rowsAffected: 2},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	item := &models.PushQueueItem{
		PushQueueID:    4,
		NotificationID: 42,
		RetryCount:     models.MaxDeliveryRetries - 1,
	}
	require.NoError(t, MarkPushFailed(db, item, errors.New("device token rejected")))
	require.NoError(t, state.verifyComplete())
}
