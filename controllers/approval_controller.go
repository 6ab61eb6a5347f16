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

type createApprovalReq struct {
	EntityType  string `json:"entity_type" binding:"required"`
	EntityID    uint   `json:"entity_id" binding:"required"`
	ApproverIDs []uint `json:"approver_ids" binding:"required"`
	Comment     string `json:"comment"`
}

// POST /api/v1/approvals — creates the request and notifies requester +
// approvers inside the same transaction.
func CreateApproval(c *gin.Context) {
	db := getDB()

	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createApprovalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(req.ApproverIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one approver is required"})
		return
	}

	var approval models.Approval
	err := db.Transaction(func(tx *gorm.DB) error {
		approval = models.Approval{
			EntityType:  req.EntityType,
			EntityID:    req.EntityID,
			RequestedBy: uid,
			Status:      models.ApprovalStatusPending,
		}
		if req.Comment != "" {
			approval.Comment = &req.Comment
		}
		if err := tx.Create(&approval).Error; err != nil {
			return err
		}

		seen := make(map[uint]bool, len(req.ApproverIDs))
		for _, approverID := range req.ApproverIDs {
			if approverID == 0 || seen[approverID] {
				continue
			}
			seen[approverID] = true
			row := models.ApprovalApprover{ApprovalID: approval.ApprovalID, UserID: approverID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		return services.PublishApprovalCreated(tx, services.ApprovalCreatedEvent{
			Approval:    approval,
			ApproverIDs: req.ApproverIDs,
		})
	})
	if err != nil {
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "approval_id": approval.ApprovalID})
}

type updateApprovalStatusReq struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment"`
}

// PUT /api/v1/approvals/:id/status — transitions the approval and notifies
// the requester unless they changed it themselves.
func UpdateApprovalStatus(c *gin.Context) {
	db := getDB()

	uid, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval id"})
		return
	}

	var req updateApprovalStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if req.Status != models.ApprovalStatusApproved &&
		req.Status != models.ApprovalStatusRejected &&
		req.Status != models.ApprovalStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, approved or rejected"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var old models.Approval
		if err := tx.First(&old, "approval_id = ?", id).Error; err != nil {
			return err
		}

		now := time.Now()
		updated := old
		updated.Status = req.Status
		updated.ActionTakenBy = &uid
		updated.UpdatedBy = &uid
		updated.UpdateAt = &now
		if req.Comment != "" {
			updated.Comment = &req.Comment
		}
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}

		if old.Status == updated.Status {
			return nil
		}
		return services.PublishApprovalStatusChanged(tx, services.ApprovalStatusChangedEvent{
			Old: old,
			New: updated,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "approval not found"})
			return
		}
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
