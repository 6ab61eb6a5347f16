package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"project-management-api/models"
)

type upsertPreferenceReq struct {
	NotificationType string `json:"notification_type" binding:"required"`
	EmailEnabled     *bool  `json:"email_enabled" binding:"required"`
	PushEnabled      *bool  `json:"push_enabled" binding:"required"`
	InAppEnabled     *bool  `json:"in_app_enabled" binding:"required"`
}

// GET /api/v1/notification-preferences — only explicitly stored rows are
// returned; a missing type means all channels enabled.
func GetNotificationPreferences(c *gin.Context) {
	db := getDB()

	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var rows []models.NotificationPreference
	if err := db.Where("user_id = ?", uid).Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}

// PUT /api/v1/notification-preferences — upserts the caller's toggles for one
// notification type. The system type cannot be suppressed, so storing a row
// for it is rejected.
func UpsertNotificationPreference(c *gin.Context) {
	db := getDB()

	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req upsertPreferenceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if !models.IsValidNotificationType(req.NotificationType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown notification type"})
		return
	}
	if req.NotificationType == models.NotificationTypeSystem {
		c.JSON(http.StatusBadRequest, gin.H{"error": "system notifications cannot be disabled"})
		return
	}

	var row models.NotificationPreference
	err := db.Where("user_id = ? AND notification_type = ?", uid, req.NotificationType).
		First(&row).Error
	switch {
	case err == nil:
		err = db.Model(&row).Updates(map[string]interface{}{
			"email_enabled":  *req.EmailEnabled,
			"push_enabled":   *req.PushEnabled,
			"in_app_enabled": *req.InAppEnabled,
		}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.NotificationPreference{
			UserID:           uid,
			NotificationType: req.NotificationType,
			EmailEnabled:     *req.EmailEnabled,
			PushEnabled:      *req.PushEnabled,
			InAppEnabled:     *req.InAppEnabled,
		}
		err = db.Create(&row).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "preference": row})
}
