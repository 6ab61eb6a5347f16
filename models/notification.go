package models

import (
	"encoding/json"
	"time"
)

// Notification types (closed set — adding one requires touching the
// dispatcher's template table and the preference resolver call sites).
const (
	NotificationTypeTaskUpdated           = "task_updated"
	NotificationTypeTaskMetadataChanged   = "task_metadata_changed"
	NotificationTypeApprovalRequested     = "approval_requested"
	NotificationTypeApprovalStatusChanged = "approval_status_changed"
	NotificationTypeSystem                = "system"
)

// Priorities, ordered low < medium < high < critical.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Delivery channels.
const (
	ChannelRealtime = "realtime"
	ChannelEmail    = "email"
	ChannelPush     = "push"
	ChannelSMS      = "sms"
	ChannelWebhook  = "webhook"
)

// Delivery / queue statuses.
const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusFailed    = "failed"

	QueueStatusPending = "pending"
	QueueStatusSent    = "sent"
	QueueStatusFailed  = "failed"
)

// Entity types a notification may link back to.
const (
	EntityTypeTask      = "task"
	EntityTypeProject   = "project"
	EntityTypeSiteDiary = "site_diary"
	EntityTypeForm      = "form"
)

// Retry ceilings per channel.
const (
	MaxEmailRetries    = 5
	MaxDeliveryRetries = 10
)

const (
	MaxTitleLength   = 255
	MaxMessageLength = 1000
)

var notificationTypes = map[string]bool{
	NotificationTypeTaskUpdated:           true,
	NotificationTypeTaskMetadataChanged:   true,
	NotificationTypeApprovalRequested:     true,
	NotificationTypeApprovalStatusChanged: true,
	NotificationTypeSystem:                true,
}

var priorityRank = map[string]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

var entityTypes = map[string]bool{
	EntityTypeTask:      true,
	EntityTypeProject:   true,
	EntityTypeSiteDiary: true,
	EntityTypeForm:      true,
}

func IsValidNotificationType(t string) bool { return notificationTypes[t] }

func IsValidPriority(p string) bool { _, ok := priorityRank[p]; return ok }

func IsValidEntityType(e string) bool { return entityTypes[e] }

// PriorityRank returns the ordering rank of a priority (unknown → low).
func PriorityRank(p string) int { return priorityRank[p] }

type Notification struct {
	NotificationID uint            `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID         uint            `gorm:"column:user_id;index" json:"user_id"`
	Type           string          `gorm:"column:type" json:"type"`
	Priority       string          `gorm:"column:priority;default:medium" json:"priority"`
	Title          string          `gorm:"column:title;size:255" json:"title"`
	Message        string          `gorm:"column:message;size:1000" json:"message"`
	Payload        json.RawMessage `gorm:"column:payload;type:json" json:"payload,omitempty"`
	EntityType     *string         `gorm:"column:entity_type" json:"entity_type,omitempty"`
	EntityID       *uint           `gorm:"column:entity_id" json:"entity_id,omitempty"`
	IsRead         bool            `gorm:"column:is_read" json:"is_read"`
	ReadAt         *time.Time      `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedBy      *uint           `gorm:"column:created_by" json:"created_by,omitempty"`
	CreateAt       time.Time       `gorm:"column:create_at;autoCreateTime" json:"created_at"`
	UpdateAt       *time.Time      `gorm:"column:update_at" json:"-"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationDelivery is one (notification, channel) attempt outcome, kept
// independent of the channel queues for audit.
type NotificationDelivery struct {
	DeliveryID     uint            `gorm:"primaryKey;column:delivery_id" json:"delivery_id"`
	NotificationID uint            `gorm:"column:notification_id;uniqueIndex:uniq_notification_channel" json:"notification_id"`
	Channel        string          `gorm:"column:channel;size:32;uniqueIndex:uniq_notification_channel" json:"channel"`
	Status         string          `gorm:"column:status;default:pending" json:"status"`
	DeliveredAt    *time.Time      `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	RetryCount     int             `gorm:"column:retry_count" json:"retry_count"`
	LastError      *string         `gorm:"column:last_error" json:"last_error,omitempty"`
	Metadata       json.RawMessage `gorm:"column:metadata;type:json" json:"metadata,omitempty"`
	CreateAt       time.Time       `gorm:"column:create_at;autoCreateTime" json:"created_at"`
}

func (NotificationDelivery) TableName() string { return "notification_deliveries" }

type EmailQueueItem struct {
	EmailQueueID   uint            `gorm:"primaryKey;column:email_queue_id" json:"email_queue_id"`
	NotificationID *uint           `gorm:"column:notification_id;index" json:"notification_id,omitempty"`
	RecipientEmail string          `gorm:"column:recipient_email" json:"recipient_email"`
	RecipientName  string          `gorm:"column:recipient_name" json:"recipient_name"`
	Subject        string          `gorm:"column:subject" json:"subject"`
	TemplateID     string          `gorm:"column:template_id" json:"template_id"`
	TemplateData   json.RawMessage `gorm:"column:template_data;type:json" json:"template_data,omitempty"`
	Priority       string          `gorm:"column:priority;default:medium" json:"priority"`
	Status         string          `gorm:"column:status;default:pending;index" json:"status"`
	ScheduledAt    time.Time       `gorm:"column:scheduled_at;index" json:"scheduled_at"`
	SentAt         *time.Time      `gorm:"column:sent_at" json:"sent_at,omitempty"`
	LastError      *string         `gorm:"column:last_error" json:"last_error,omitempty"`
	RetryCount     int             `gorm:"column:retry_count" json:"retry_count"`
	ClaimedBy      *string         `gorm:"column:claimed_by" json:"-"`
	ClaimedAt      *time.Time      `gorm:"column:claimed_at" json:"-"`
	CreateAt       time.Time       `gorm:"column:create_at;autoCreateTime" json:"created_at"`
}

func (EmailQueueItem) TableName() string { return "email_queue" }

// Push platforms.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

var pushPlatforms = map[string]bool{
	PlatformIOS:     true,
	PlatformAndroid: true,
	PlatformWeb:     true,
}

func IsValidPlatform(p string) bool { return pushPlatforms[p] }

type PushQueueItem struct {
	PushQueueID    uint            `gorm:"primaryKey;column:push_queue_id" json:"push_queue_id"`
	NotificationID uint            `gorm:"column:notification_id;index" json:"notification_id"`
	DeviceID       uint            `gorm:"column:device_id" json:"device_id"`
	Platform       string          `gorm:"column:platform" json:"platform"`
	DeviceToken    string          `gorm:"column:device_token" json:"device_token"`
	Payload        json.RawMessage `gorm:"column:payload;type:json" json:"payload,omitempty"`
	Priority       string          `gorm:"column:priority;default:medium" json:"priority"`
	Status         string          `gorm:"column:status;default:pending;index" json:"status"`
	ScheduledAt    time.Time       `gorm:"column:scheduled_at;index" json:"scheduled_at"`
	SentAt         *time.Time      `gorm:"column:sent_at" json:"sent_at,omitempty"`
	LastError      *string         `gorm:"column:last_error" json:"last_error,omitempty"`
	RetryCount     int             `gorm:"column:retry_count" json:"retry_count"`
	ClaimedBy      *string         `gorm:"column:claimed_by" json:"-"`
	ClaimedAt      *time.Time      `gorm:"column:claimed_at" json:"-"`
	CreateAt       time.Time       `gorm:"column:create_at;autoCreateTime" json:"created_at"`
}

func (PushQueueItem) TableName() string { return "push_queue" }
