package services

import (
	"database/sql/driver"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-management-api/models"
)

func TestEmailDelayByPriority(t *testing.T) {
	cases := []struct {
		priority string
		want     time.Duration
	}{
		{models.PriorityCritical, 0},
		{models.PriorityHigh, 5 * time.Minute},
		{models.PriorityMedium, 15 * time.Minute},
		{models.PriorityLow, 30 * time.Minute},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EmailDelay(tc.priority), "priority %s", tc.priority)
	}
}

func TestValidateCreateInputRejectsBadRequests(t *testing.T) {
	longTitle := make([]byte, models.MaxTitleLength+1)
	for i := range longTitle {
		longTitle[i] = 'a'
	}
	entityType := models.EntityTypeTask
	entityID := uint(4)

	cases := []struct {
		name  string
		in    CreateNotificationInput
		field string
	}{
		{
			name:  "missing recipient",
			in:    CreateNotificationInput{Type: models.NotificationTypeSystem, Title: "t", Message: "m"},
			field: "user_id",
		},
		{
			name:  "unknown type",
			in:    CreateNotificationInput{UserID: 1, Type: "task_deleted", Title: "t", Message: "m"},
			field: "type",
		},
		{
			name:  "blank title",
			in:    CreateNotificationInput{UserID: 1, Type: models.NotificationTypeSystem, Title: "   ", Message: "m"},
			field: "title",
		},
		{
			name:  "title too long",
			in:    CreateNotificationInput{UserID: 1, Type: models.NotificationTypeSystem, Title: string(longTitle), Message: "m"},
			field: "title",
		},
		{
			name:  "blank message",
			in:    CreateNotificationInput{UserID: 1, Type: models.NotificationTypeSystem, Title: "t", Message: ""},
			field: "message",
		},
		{
			name:  "unknown priority",
			in:    CreateNotificationInput{UserID: 1, Type: models.NotificationTypeSystem, Title: "t", Message: "m", Priority: "urgent"},
			field: "priority",
		},
		{
			name:  "entity type without id",
			in:    CreateNotificationInput{UserID: 1, Type: models.NotificationTypeSystem, Title: "t", Message: "m", EntityType: &entityType},
			field: "entity",
		},
		{
			name: "unknown entity type",
			in: func() CreateNotificationInput {
				bad := "milestone"
				return CreateNotificationInput{UserID: 1, Type: models.NotificationTypeSystem, Title: "t", Message: "m", EntityType: &bad, EntityID: &entityID}
			}(),
			field: "entity_type",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreateNotification(nil, tc.in)
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestValidateCreateInputCountsCharactersNotBytes(t *testing.T) {
	// Thai runes are three bytes each; the length bound is in characters.
	in := CreateNotificationInput{
		UserID:  1,
		Type:    models.NotificationTypeSystem,
		Title:   strings.Repeat("ก", models.MaxTitleLength),
		Message: strings.Repeat("ข", models.MaxMessageLength),
	}
	require.NoError(t, validateCreateInput(&in))

	in.Title = strings.Repeat("ก", models.MaxTitleLength+1)
	err := validateCreateInput(&in)
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)
}

func TestValidateCreateInputDefaults(t *testing.T) {
	actor := uint(12)
	in := CreateNotificationInput{
		UserID:  1,
		Type:    models.NotificationTypeTaskUpdated,
		Title:   "t",
		Message: "m",
		ActorID: &actor,
	}
	require.NoError(t, validateCreateInput(&in))
	assert.Equal(t, models.PriorityMedium, in.Priority)
	require.NotNil(t, in.CreatedBy)
	assert.Equal(t, actor, *in.CreatedBy)
}

func TestCreateNotificationWritesRealtimeAndEmail(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notifications`"),
			result:  scriptedResult{lastInsertID: 42, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notification_deliveries`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			// No preference row → every channel defaults to enabled.
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `notification_preferences`"),
			columns: preferenceColumns,
			rows:    [][]driver.Value{},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT email, user_fname, user_lname FROM .users."),
			columns: []string{"email", "user_fname", "user_lname"},
			rows:    [][]driver.Value{{"somchai@example.com", "Somchai", "K."}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `email_queue`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `user_devices`"),
			columns: deviceColumns,
			rows:    [][]driver.Value{},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	id, err := CreateNotification(db, CreateNotificationInput{
		UserID:  7,
		Type:    models.NotificationTypeTaskUpdated,
		Title:   "Task updated",
		Message: "Title changed",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	require.NoError(t, state.verifyComplete())
}

func TestCreateNotificationHonorsDisabledChannels(t *testing.T) {
	now := time.Now()
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notifications`"),
			result:  scriptedResult{lastInsertID: 5, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notification_deliveries`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			// Email and push disabled: the dispatcher must stop after the
			// realtime delivery record.
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `notification_preferences`"),
			columns: preferenceColumns,
			rows: [][]driver.Value{
				{int64(1), int64(7), "task_updated", int64(0), int64(0), int64(1), now, now},
			},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := CreateNotification(db, CreateNotificationInput{
		UserID:  7,
		Type:    models.NotificationTypeTaskUpdated,
		Title:   "Task updated",
		Message: "Status changed",
	})
	require.NoError(t, err)
	require.NoError(t, state.verifyComplete())
}

func TestCreateNotificationSystemTypeBypassesPreferences(t *testing.T) {
	// No notification_preferences SELECT may appear: system notifications go
	// out on every channel regardless of stored rows.
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notifications`"),
			result:  scriptedResult{lastInsertID: 9, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notification_deliveries`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT email, user_fname, user_lname FROM .users."),
			columns: []string{"email", "user_fname", "user_lname"},
			rows:    [][]driver.Value{{"admin@example.com", "Admin", ""}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `email_queue`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `user_devices`"),
			columns: deviceColumns,
			rows:    [][]driver.Value{},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := CreateNotification(db, CreateNotificationInput{
		UserID:   3,
		Type:     models.NotificationTypeSystem,
		Title:    "Maintenance window",
		Message:  "Scheduled downtime tonight",
		Priority: models.PriorityCritical,
	})
	require.NoError(t, err)
	require.NoError(t, state.verifyComplete())
}

func TestCreateNotificationFansPushOutPerDevice(t *testing.T) {
	now := time.Now()
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notifications`"),
			result:  scriptedResult{lastInsertID: 11, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notification_deliveries`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `notification_preferences`"),
			columns: preferenceColumns,
			rows:    [][]driver.Value{},
		},
		{
			// Blank address: email enqueue is silently skipped.
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT email, user_fname, user_lname FROM .users."),
			columns: []string{"email", "user_fname", "user_lname"},
			rows:    [][]driver.Value{{"", "", ""}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `user_devices`"),
			columns: deviceColumns,
			rows: [][]driver.Value{
				{int64(1), int64(7), "ios", "tok-a", "iPhone", int64(1), nil, now},
				{int64(2), int64(7), "android", "tok-b", "Pixel", int64(1), nil, now},
			},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `push_queue`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `push_queue`"),
			result:  scriptedResult{lastInsertID: 2, rowsAffected: 1},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := CreateNotification(db, CreateNotificationInput{
		UserID:   7,
		Type:     models.NotificationTypeApprovalRequested,
		Title:    "Approval needed",
		Message:  "Somchai is requesting your approval",
		Priority: models.PriorityHigh,
	})
	require.NoError(t, err)
	require.NoError(t, state.verifyComplete())
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `notifications`"),
			columns: []string{"notification_id"},
			rows:    [][]driver.Value{},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	err := MarkNotificationRead(db, 7, 99)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	require.NoError(t, state.verifyComplete())
}

func TestMarkAllNotificationsReadIsIdempotent(t *testing.T) {
	// The bulk update only touches unread rows; once everything is read a
	// second call matches nothing and reports 0.
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `notifications` SET .* WHERE user_id = \\? AND is_read = \\?"),
			result:  scriptedResult{rowsAffected: 3},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `notifications` SET .* WHERE user_id = \\? AND is_read = \\?"),
			result:  scriptedResult{rowsAffected: 0},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	count, err := MarkAllNotificationsRead(db, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = MarkAllNotificationsRead(db, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	require.NoError(t, state.verifyComplete())
}

func TestUnreadCountDropsAfterMarkRead(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `notifications`"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(2)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `notifications`"),
			columns: []string{"notification_id", "user_id", "is_read"},
			rows:    [][]driver.Value{{int64(5), int64(7), int64(0)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `notifications` SET .* WHERE notification_id = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `notifications`"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	count, err := UnreadNotificationCount(db, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, MarkNotificationRead(db, 7, 5))

	count, err = UnreadNotificationCount(db, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.NoError(t, state.verifyComplete())
}

func TestMarkNotificationReadAlreadyReadIsNoOp(t *testing.T) {
	now := time.Now()
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `notifications`"),
			columns: []string{"notification_id", "user_id", "is_read", "read_at"},
			rows:    [][]driver.Value{{int64(5), int64(7), int64(1), now}},
		},
		// No UPDATE follows: the row is already read.
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	require.NoError(t, MarkNotificationRead(db, 7, 5))
	require.NoError(t, state.verifyComplete())
}
