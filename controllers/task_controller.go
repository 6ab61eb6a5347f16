package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"project-management-api/models"
	"project-management-api/services"
)

type updateTaskReq struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	StatusID     *uint      `json:"status_id"`
	PriorityID   *uint      `json:"priority_id"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
	ProjectID    *uint      `json:"project_id"`
	ParentTaskID *uint      `json:"parent_task_id"`
}

// PUT /api/v1/tasks/:id — applies the update and runs the notification
// fan-out in the same transaction, so the task change and its notifications
// commit or roll back together.
func UpdateTask(c *gin.Context) {
	db := getDB()

	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req updateTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var old models.Task
		if err := tx.First(&old, "task_id = ?", id).Error; err != nil {
			return err
		}

		updated := old
		if req.Title != nil {
			updated.Title = *req.Title
		}
		if req.Description != nil {
			updated.Description = *req.Description
		}
		if req.StatusID != nil {
			updated.StatusID = *req.StatusID
		}
		if req.PriorityID != nil {
			updated.PriorityID = *req.PriorityID
		}
		if req.ClearDueDate {
			updated.DueDate = nil
		} else if req.DueDate != nil {
			updated.DueDate = req.DueDate
		}
		if req.ProjectID != nil {
			updated.ProjectID = *req.ProjectID
		}
		if req.ParentTaskID != nil {
			updated.ParentTaskID = req.ParentTaskID
		}
		updated.UpdateAt = time.Now()

		if err := tx.Save(&updated).Error; err != nil {
			return err
		}

		return services.PublishTaskUpdated(tx, services.TaskUpdatedEvent{
			Old:     old,
			New:     updated,
			ActorID: uid,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type metadataReq struct {
	FieldKey   string `json:"field_key" binding:"required"`
	FieldValue string `json:"field_value"`
}

// PUT /api/v1/tasks/:id/metadata — inserts or updates one metadata field and
// fans the change out transactionally.
func UpsertTaskMetadata(c *gin.Context) {
	db := getDB()

	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req metadataReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var old models.TaskMetadata
		findErr := tx.Where("task_id = ? AND field_key = ?", id, req.FieldKey).
			First(&old).Error

		switch {
		case findErr == nil:
			updated := old
			updated.FieldValue = req.FieldValue
			updated.UpdatedBy = uid
			if err := tx.Save(&updated).Error; err != nil {
				return err
			}
			return services.PublishTaskMetadataChanged(tx, services.TaskMetadataChangedEvent{
				Op:      services.MetadataUpdated,
				Old:     &old,
				New:     &updated,
				ActorID: uid,
			})
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			row := models.TaskMetadata{
				TaskID:     uint(id),
				FieldKey:   req.FieldKey,
				FieldValue: req.FieldValue,
				UpdatedBy:  uid,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			return services.PublishTaskMetadataChanged(tx, services.TaskMetadataChangedEvent{
				Op:      services.MetadataAdded,
				New:     &row,
				ActorID: uid,
			})
		default:
			return findErr
		}
	})
	if err != nil {
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DELETE /api/v1/tasks/:id/metadata/:key
func DeleteTaskMetadata(c *gin.Context) {
	db := getDB()

	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	fieldKey := c.Param("key")

	err = db.Transaction(func(tx *gorm.DB) error {
		var old models.TaskMetadata
		if err := tx.Where("task_id = ? AND field_key = ?", id, fieldKey).
			First(&old).Error; err != nil {
			return err
		}
		if err := tx.Delete(&old).Error; err != nil {
			return err
		}
		// New values do not exist on delete; the trigger reads the old row.
		return services.PublishTaskMetadataChanged(tx, services.TaskMetadataChangedEvent{
			Op:      services.MetadataRemoved,
			Old:     &old,
			ActorID: uid,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "metadata field not found"})
			return
		}
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
