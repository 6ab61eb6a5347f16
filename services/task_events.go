package services

import (
	"fmt"

	"gorm.io/gorm"

	"project-management-api/models"
)

// Metadata keys whose changes escalate the notification to high priority.
var significantMetadataKeys = map[string]bool{
	"due_date": true,
	"status":   true,
	"priority": true,
}

// TaskChanges compares every user-significant field between the old and new
// task rows. An empty result means only bookkeeping (the update timestamp)
// changed and the whole trigger is a no-op.
func TaskChanges(db *gorm.DB, old, new models.Task) []FieldChange {
	changes := make([]FieldChange, 0, 4)

	if old.Title != new.Title {
		changes = append(changes, FieldChange{Field: "title", Old: old.Title, New: new.Title})
	}
	if old.Description != new.Description {
		changes = append(changes, FieldChange{Field: "description"})
	}
	if old.StatusID != new.StatusID {
		changes = append(changes, FieldChange{
			Field: "status",
			Old:   TaskStatusName(db, old.StatusID),
			New:   TaskStatusName(db, new.StatusID),
		})
	}
	if old.PriorityID != new.PriorityID {
		changes = append(changes, FieldChange{
			Field: "priority",
			Old:   TaskPriorityName(db, old.PriorityID),
			New:   TaskPriorityName(db, new.PriorityID),
		})
	}
	if !equalTimePtr(old.DueDate, new.DueDate) {
		changes = append(changes, FieldChange{
			Field: "due date",
			Old:   formatDueDate(old.DueDate),
			New:   formatDueDate(new.DueDate),
		})
	}
	if old.ProjectID != new.ProjectID {
		changes = append(changes, FieldChange{Field: "project"})
	}
	if !equalUintPtr(old.ParentTaskID, new.ParentTaskID) {
		changes = append(changes, FieldChange{Field: "parent task"})
	}

	return changes
}

// TaskChangePriority escalates to high when status or due date moved.
func TaskChangePriority(changes []FieldChange) string {
	if ChangesInclude(changes, "status", "due date") {
		return models.PriorityHigh
	}
	return models.PriorityMedium
}

func taskAssigneeIDs(tx *gorm.DB, taskID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.TaskAssignee{}).
		Where("task_id = ?", taskID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load task assignees: %w", err)
	}
	return ids, nil
}

// HandleTaskUpdated notifies every assignee of a task about user-significant
// changes, excluding the actor who made them.
func HandleTaskUpdated(tx *gorm.DB, ev TaskUpdatedEvent) error {
	changes := TaskChanges(tx, ev.Old, ev.New)
	if len(changes) == 0 {
		return nil
	}

	assignees, err := taskAssigneeIDs(tx, ev.New.TaskID)
	if err != nil {
		return err
	}

	changeList := make([]string, 0, len(changes))
	for _, c := range changes {
		changeList = append(changeList, c.Describe())
	}

	entityType := models.EntityTypeTask
	entityID := ev.New.TaskID
	actor := ev.ActorID
	priority := TaskChangePriority(changes)

	return fanOut(tx, assignees, ev.ActorID, func(userID uint) CreateNotificationInput {
		return CreateNotificationInput{
			UserID:     userID,
			Type:       models.NotificationTypeTaskUpdated,
			Title:      fmt.Sprintf("Task updated: %s", ev.New.Title),
			Message:    DescribeChanges(changes),
			Priority:   priority,
			EntityType: &entityType,
			EntityID:   &entityID,
			ActorID:    &actor,
			Payload: map[string]interface{}{
				"task_id": ev.New.TaskID,
				"changes": changeList,
			},
		}
	})
}

// MetadataChangeDescription renders the canonical change phrasing for a
// metadata mutation.
func MetadataChangeDescription(op MetadataOp, old, new *models.TaskMetadata) string {
	switch op {
	case MetadataAdded:
		return fmt.Sprintf("added %s: %s", new.FieldKey, new.FieldValue)
	case MetadataRemoved:
		return fmt.Sprintf("removed %s: %s", old.FieldKey, old.FieldValue)
	default:
		return fmt.Sprintf("updated %s: %s → %s", new.FieldKey, old.FieldValue, new.FieldValue)
	}
}

// MetadataChangePriority escalates operationally significant keys to high.
func MetadataChangePriority(fieldKey string) string {
	if significantMetadataKeys[fieldKey] {
		return models.PriorityHigh
	}
	return models.PriorityMedium
}

// HandleTaskMetadataChanged notifies task assignees about a metadata field
// mutation, excluding the acting user. An update that leaves the value
// untouched is a no-op.
func HandleTaskMetadataChanged(tx *gorm.DB, ev TaskMetadataChangedEvent) error {
	row := ev.New
	if row == nil {
		row = ev.Old
	}
	if row == nil {
		return nil
	}
	if ev.Op == MetadataUpdated && ev.Old != nil && ev.New != nil &&
		ev.Old.FieldValue == ev.New.FieldValue {
		return nil
	}

	assignees, err := taskAssigneeIDs(tx, row.TaskID)
	if err != nil {
		return err
	}

	var task models.Task
	if err := tx.Select("task_id, title").First(&task, "task_id = ?", row.TaskID).Error; err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}

	description := MetadataChangeDescription(ev.Op, ev.Old, ev.New)
	entityType := models.EntityTypeTask
	entityID := row.TaskID
	actor := ev.ActorID

	return fanOut(tx, assignees, ev.ActorID, func(userID uint) CreateNotificationInput {
		return CreateNotificationInput{
			UserID:     userID,
			Type:       models.NotificationTypeTaskMetadataChanged,
			Title:      fmt.Sprintf("Task updated: %s", task.Title),
			Message:    description,
			Priority:   MetadataChangePriority(row.FieldKey),
			EntityType: &entityType,
			EntityID:   &entityID,
			ActorID:    &actor,
			Payload: map[string]interface{}{
				"task_id":   row.TaskID,
				"field_key": row.FieldKey,
				"operation": string(ev.Op),
				"change":    description,
			},
		}
	})
}
