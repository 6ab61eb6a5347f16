package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"project-management-api/models"
)

type registerDeviceReq struct {
	Platform    string `json:"platform" binding:"required"`
	DeviceToken string `json:"device_token" binding:"required"`
	DeviceName  string `json:"device_name"`
	PushEnabled *bool  `json:"push_enabled"`
}

// POST /api/v1/devices — registers a push target. Re-registering the same
// token for the same user updates the existing row instead of duplicating it.
func RegisterDevice(c *gin.Context) {
	db := getDB()

	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req registerDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if !models.IsValidPlatform(req.Platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform must be ios, android or web"})
		return
	}

	pushEnabled := true
	if req.PushEnabled != nil {
		pushEnabled = *req.PushEnabled
	}
	now := time.Now()

	var device models.UserDevice
	err := db.Where("user_id = ? AND device_token = ?", uid, req.DeviceToken).
		First(&device).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"platform":     req.Platform,
			"device_name":  req.DeviceName,
			"push_enabled": pushEnabled,
			"last_used_at": now,
		}
		if err := db.Model(&device).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		device = models.UserDevice{
			UserID:      uid,
			Platform:    req.Platform,
			DeviceToken: req.DeviceToken,
			DeviceName:  req.DeviceName,
			PushEnabled: pushEnabled,
			LastUsedAt:  &now,
		}
		if err := db.Create(&device).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "device_id": device.DeviceID})
}

// GET /api/v1/devices
func GetDevices(c *gin.Context) {
	db := getDB()

	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var devices []models.UserDevice
	if err := db.Where("user_id = ?", uid).Order("create_at DESC").Find(&devices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": devices})
}

// DELETE /api/v1/devices/:id
func DeleteDevice(c *gin.Context) {
	db := getDB()

	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	res := db.Where("device_id = ? AND user_id = ?", id, uid).Delete(&models.UserDevice{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
