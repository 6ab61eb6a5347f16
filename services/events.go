package services

import (
	"gorm.io/gorm"

	"project-management-api/models"
)

// Domain events replace the database triggers of the legacy schema. Publishing
// happens synchronously with the open transaction of the triggering mutation:
// a handler error aborts the whole write, so a domain change and its fan-out
// commit or roll back together.

type MetadataOp string

const (
	MetadataAdded   MetadataOp = "added"
	MetadataUpdated MetadataOp = "updated"
	MetadataRemoved MetadataOp = "removed"
)

type TaskUpdatedEvent struct {
	Old     models.Task
	New     models.Task
	ActorID uint
}

type TaskMetadataChangedEvent struct {
	Op      MetadataOp
	Old     *models.TaskMetadata // nil for added
	New     *models.TaskMetadata // nil for removed
	ActorID uint
}

type ApprovalCreatedEvent struct {
	Approval    models.Approval
	ApproverIDs []uint
}

type ApprovalStatusChangedEvent struct {
	Old models.Approval
	New models.Approval
}

type (
	taskUpdatedHandler           func(tx *gorm.DB, ev TaskUpdatedEvent) error
	taskMetadataChangedHandler   func(tx *gorm.DB, ev TaskMetadataChangedEvent) error
	approvalCreatedHandler       func(tx *gorm.DB, ev ApprovalCreatedEvent) error
	approvalStatusChangedHandler func(tx *gorm.DB, ev ApprovalStatusChangedEvent) error
)

var (
	taskUpdatedHandlers           []taskUpdatedHandler
	taskMetadataChangedHandlers   []taskMetadataChangedHandler
	approvalCreatedHandlers       []approvalCreatedHandler
	approvalStatusChangedHandlers []approvalStatusChangedHandler
)

func OnTaskUpdated(h taskUpdatedHandler) { taskUpdatedHandlers = append(taskUpdatedHandlers, h) }

func OnTaskMetadataChanged(h taskMetadataChangedHandler) {
	taskMetadataChangedHandlers = append(taskMetadataChangedHandlers, h)
}

func OnApprovalCreated(h approvalCreatedHandler) {
	approvalCreatedHandlers = append(approvalCreatedHandlers, h)
}

func OnApprovalStatusChanged(h approvalStatusChangedHandler) {
	approvalStatusChangedHandlers = append(approvalStatusChangedHandlers, h)
}

func PublishTaskUpdated(tx *gorm.DB, ev TaskUpdatedEvent) error {
	for _, h := range taskUpdatedHandlers {
		if err := h(tx, ev); err != nil {
			return err
		}
	}
	return nil
}

func PublishTaskMetadataChanged(tx *gorm.DB, ev TaskMetadataChangedEvent) error {
	for _, h := range taskMetadataChangedHandlers {
		if err := h(tx, ev); err != nil {
			return err
		}
	}
	return nil
}

func PublishApprovalCreated(tx *gorm.DB, ev ApprovalCreatedEvent) error {
	for _, h := range approvalCreatedHandlers {
		if err := h(tx, ev); err != nil {
			return err
		}
	}
	return nil
}

func PublishApprovalStatusChanged(tx *gorm.DB, ev ApprovalStatusChangedEvent) error {
	for _, h := range approvalStatusChangedHandlers {
		if err := h(tx, ev); err != nil {
			return err
		}
	}
	return nil
}

// RegisterNotificationHandlers wires the notification fan-out to the domain
// events. Called once at startup.
func RegisterNotificationHandlers() {
	OnTaskUpdated(HandleTaskUpdated)
	OnTaskMetadataChanged(HandleTaskMetadataChanged)
	OnApprovalCreated(HandleApprovalCreated)
	OnApprovalStatusChanged(HandleApprovalStatusChanged)
}
