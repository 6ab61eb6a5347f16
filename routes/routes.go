package routes

import (
	"project-management-api/controllers"
	"project-management-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Project Management API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.PUT("/change-password", controllers.ChangePassword)

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/unread-count", controllers.GetNotificationCounter)
				notifications.GET("/stream", controllers.StreamNotifications)
				notifications.POST("/:id/read", controllers.MarkNotificationRead)
				notifications.POST("/read-all", controllers.MarkAllNotificationsRead)

				// Direct dispatcher access for system announcements
				notifications.POST("", middleware.RequireRole(middleware.RoleAdmin), controllers.CreateNotification)
			}

			// Push devices
			devices := protected.Group("/devices")
			{
				devices.POST("", controllers.RegisterDevice)
				devices.GET("", controllers.GetDevices)
				devices.DELETE("/:id", controllers.DeleteDevice)
			}

			// Channel preferences
			preferences := protected.Group("/notification-preferences")
			{
				preferences.GET("", controllers.GetNotificationPreferences)
				preferences.PUT("", controllers.UpsertNotificationPreference)
			}

			// Tasks (mutations fire the notification fan-out)
			tasks := protected.Group("/tasks")
			{
				tasks.PUT("/:id", controllers.UpdateTask)
				tasks.PUT("/:id/metadata", controllers.UpsertTaskMetadata)
				tasks.DELETE("/:id/metadata/:key", controllers.DeleteTaskMetadata)
			}

			// Approvals
			approvals := protected.Group("/approvals")
			{
				approvals.POST("", controllers.CreateApproval)
				approvals.PUT("/:id/status", controllers.UpdateApprovalStatus)
			}
		}
	}
}
