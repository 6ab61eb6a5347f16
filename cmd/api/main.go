package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"project-management-api/config"
	"project-management-api/routes"
	"project-management-api/services"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		config.Logger.Info("No .env file found, using environment variables")
	}

	logFile := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	config.InitDB()
	config.MigrateDB()

	// Wire the notification fan-out to the domain events
	services.RegisterNotificationHandlers()

	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(config.LogWriter))
	router.Use(gin.Recovery())

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	routes.SetupRoutes(router)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	config.Logger.Infof("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		config.Logger.Fatalf("Failed to start server: %v", err)
	}
}
