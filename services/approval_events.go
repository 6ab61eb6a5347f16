package services

import (
	"fmt"

	"gorm.io/gorm"

	"project-management-api/models"
)

// entityTitle resolves a human-readable title for the entity an approval
// references. An unrecognized entity type yields a placeholder rather than an
// error so a stale approval row cannot block the triggering write.
func entityTitle(tx *gorm.DB, entityType string, entityID uint) string {
	var title string
	var err error

	switch entityType {
	case models.EntityTypeTask:
		var row models.Task
		err = tx.Select("title").First(&row, "task_id = ?", entityID).Error
		title = row.Title
	case models.EntityTypeProject:
		var row models.Project
		err = tx.Select("project_name").First(&row, "project_id = ?", entityID).Error
		title = row.ProjectName
	case models.EntityTypeSiteDiary:
		var row models.SiteDiary
		err = tx.Select("title").First(&row, "diary_id = ?", entityID).Error
		title = row.Title
	case models.EntityTypeForm:
		var row models.FormTemplate
		err = tx.Select("form_name").First(&row, "form_id = ?", entityID).Error
		title = row.FormName
	default:
		return fmt.Sprintf("%s #%d", entityType, entityID)
	}

	if err != nil || title == "" {
		return fmt.Sprintf("%s #%d", entityType, entityID)
	}
	return title
}

func userDisplayName(tx *gorm.DB, userID uint) string {
	var user models.User
	err := tx.Select("user_id, user_fname, user_lname, email").
		First(&user, "user_id = ?", userID).Error
	if err != nil {
		return fmt.Sprintf("user #%d", userID)
	}
	return user.DisplayName()
}

// HandleApprovalCreated confirms the request to the requester (medium) and
// asks every distinct approver for review (high). The requester never appears
// in the approver loop even when listed as an approver.
func HandleApprovalCreated(tx *gorm.DB, ev ApprovalCreatedEvent) error {
	approval := ev.Approval
	title := entityTitle(tx, approval.EntityType, approval.EntityID)
	requesterName := userDisplayName(tx, approval.RequestedBy)

	entityType := approval.EntityType
	if !models.IsValidEntityType(entityType) {
		// Keep the notification linkable only to known entities.
		entityType = ""
	}

	var linkType *string
	var linkID *uint
	if entityType != "" {
		linkType = &entityType
		id := approval.EntityID
		linkID = &id
	}

	requester := approval.RequestedBy
	payload := map[string]interface{}{
		"approval_id":  approval.ApprovalID,
		"entity_type":  approval.EntityType,
		"entity_id":    approval.EntityID,
		"entity_title": title,
		"requested_by": approval.RequestedBy,
	}

	// Requester confirmation (one-slot template: the entity title).
	_, err := CreateNotification(tx, CreateNotificationInput{
		UserID:     approval.RequestedBy,
		Type:       models.NotificationTypeApprovalRequested,
		Title:      "Approval request submitted",
		Message:    fmt.Sprintf("Your approval request for %q has been submitted.", title),
		Priority:   models.PriorityMedium,
		EntityType: linkType,
		EntityID:   linkID,
		ActorID:    &requester,
		CreatedBy:  &requester,
		Payload:    payload,
	})
	if err != nil {
		return err
	}

	// Approver requests (two-slot template: requester name and entity title).
	return fanOut(tx, ev.ApproverIDs, approval.RequestedBy, func(userID uint) CreateNotificationInput {
		return CreateNotificationInput{
			UserID:     userID,
			Type:       models.NotificationTypeApprovalRequested,
			Title:      "Approval requested",
			Message:    fmt.Sprintf("%s is requesting your approval for %q.", requesterName, title),
			Priority:   models.PriorityHigh,
			EntityType: linkType,
			EntityID:   linkID,
			ActorID:    &requester,
			Payload:    payload,
		}
	})
}

// ApprovalActor identifies who actually changed the status: the dedicated
// action-taken-by field when present, else the generic updater.
func ApprovalActor(a models.Approval) uint {
	if a.ActionTakenBy != nil {
		return *a.ActionTakenBy
	}
	if a.UpdatedBy != nil {
		return *a.UpdatedBy
	}
	return 0
}

// HandleApprovalStatusChanged notifies the requester of a status transition.
// Self-changes are silent: a requester resolving their own request hears
// nothing.
func HandleApprovalStatusChanged(tx *gorm.DB, ev ApprovalStatusChangedEvent) error {
	if ev.Old.Status == ev.New.Status {
		return nil
	}

	actorID := ApprovalActor(ev.New)
	if actorID == ev.New.RequestedBy {
		return nil
	}

	title := entityTitle(tx, ev.New.EntityType, ev.New.EntityID)
	actorName := userDisplayName(tx, actorID)

	var linkType *string
	var linkID *uint
	if models.IsValidEntityType(ev.New.EntityType) {
		t := ev.New.EntityType
		id := ev.New.EntityID
		linkType = &t
		linkID = &id
	}

	_, err := CreateNotification(tx, CreateNotificationInput{
		UserID:     ev.New.RequestedBy,
		Type:       models.NotificationTypeApprovalStatusChanged,
		Title:      fmt.Sprintf("Approval %s: %s", ev.New.Status, title),
		Message:    fmt.Sprintf("%s changed the approval for %q from %s to %s.", actorName, title, ev.Old.Status, ev.New.Status),
		Priority:   models.PriorityHigh,
		EntityType: linkType,
		EntityID:   linkID,
		ActorID:    &actorID,
		Payload: map[string]interface{}{
			"approval_id":  ev.New.ApprovalID,
			"entity_title": title,
			"old_status":   ev.Old.Status,
			"new_status":   ev.New.Status,
			"changed_by":   actorID,
		},
	})
	return err
}
