package models

import "time"

// Approval statuses.
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

type Approval struct {
	ApprovalID    uint       `gorm:"primaryKey;column:approval_id" json:"approval_id"`
	EntityType    string     `gorm:"column:entity_type" json:"entity_type"`
	EntityID      uint       `gorm:"column:entity_id" json:"entity_id"`
	RequestedBy   uint       `gorm:"column:requested_by" json:"requested_by"`
	Status        string     `gorm:"column:status;default:pending" json:"status"`
	ActionTakenBy *uint      `gorm:"column:action_taken_by" json:"action_taken_by,omitempty"`
	UpdatedBy     *uint      `gorm:"column:updated_by" json:"updated_by,omitempty"`
	Comment       *string    `gorm:"column:comment" json:"comment,omitempty"`
	CreateAt      time.Time  `gorm:"column:create_at;autoCreateTime" json:"create_at"`
	UpdateAt      *time.Time `gorm:"column:update_at" json:"update_at,omitempty"`
}

func (Approval) TableName() string { return "approvals" }

type ApprovalApprover struct {
	ApprovalID uint      `gorm:"primaryKey;column:approval_id" json:"approval_id"`
	UserID     uint      `gorm:"primaryKey;column:user_id" json:"user_id"`
	AddedAt    time.Time `gorm:"column:added_at;autoCreateTime" json:"added_at"`
}

func (ApprovalApprover) TableName() string { return "approval_approvers" }
