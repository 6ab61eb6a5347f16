package models

import "time"

type Task struct {
	TaskID       uint       `gorm:"primaryKey;column:task_id" json:"task_id"`
	ProjectID    uint       `gorm:"column:project_id;index" json:"project_id"`
	ParentTaskID *uint      `gorm:"column:parent_task_id" json:"parent_task_id,omitempty"`
	Title        string     `gorm:"column:title" json:"title"`
	Description  string     `gorm:"column:description" json:"description"`
	StatusID     uint       `gorm:"column:status_id" json:"status_id"`
	PriorityID   uint       `gorm:"column:priority_id" json:"priority_id"`
	DueDate      *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	CreatedBy    uint       `gorm:"column:created_by" json:"created_by"`
	CreateAt     time.Time  `gorm:"column:create_at;autoCreateTime" json:"create_at"`
	UpdateAt     time.Time  `gorm:"column:update_at;autoUpdateTime" json:"update_at"`
}

func (Task) TableName() string { return "tasks" }

type TaskAssignee struct {
	TaskID     uint      `gorm:"primaryKey;column:task_id" json:"task_id"`
	UserID     uint      `gorm:"primaryKey;column:user_id" json:"user_id"`
	AssignedAt time.Time `gorm:"column:assigned_at;autoCreateTime" json:"assigned_at"`
}

func (TaskAssignee) TableName() string { return "task_assignees" }

// TaskMetadata is one free-form field on a task (e.g. "inspection_date").
type TaskMetadata struct {
	MetadataID uint      `gorm:"primaryKey;column:metadata_id" json:"metadata_id"`
	TaskID     uint      `gorm:"column:task_id;uniqueIndex:uniq_task_field" json:"task_id"`
	FieldKey   string    `gorm:"column:field_key;size:128;uniqueIndex:uniq_task_field" json:"field_key"`
	FieldValue string    `gorm:"column:field_value" json:"field_value"`
	UpdatedBy  uint      `gorm:"column:updated_by" json:"updated_by"`
	CreateAt   time.Time `gorm:"column:create_at;autoCreateTime" json:"create_at"`
	UpdateAt   time.Time `gorm:"column:update_at;autoUpdateTime" json:"update_at"`
}

func (TaskMetadata) TableName() string { return "task_metadata" }

// Display-name lookup tables. Triggers render status/priority transitions
// with these names, never raw ids.
type TaskStatus struct {
	StatusID   uint   `gorm:"primaryKey;column:status_id" json:"status_id"`
	StatusName string `gorm:"column:status_name" json:"status_name"`
}

func (TaskStatus) TableName() string { return "task_statuses" }

type TaskPriority struct {
	PriorityID   uint   `gorm:"primaryKey;column:priority_id" json:"priority_id"`
	PriorityName string `gorm:"column:priority_name" json:"priority_name"`
}

func (TaskPriority) TableName() string { return "task_priorities" }
