package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"project-management-api/models"
)

var DB *gorm.DB

func InitDB() {
	var err error

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbDatabase := os.Getenv("DB_DATABASE")
	dbUsername := os.Getenv("DB_USERNAME")
	dbPassword := os.Getenv("DB_PASSWORD")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbUsername,
		dbPassword,
		dbHost,
		dbPort,
		dbDatabase,
	)

	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	debugSQL := strings.ToLower(os.Getenv("DEBUG_SQL"))

	// In production, suppress SQL logs unless explicitly re-enabled via DEBUG_SQL=true.
	logLevel := logger.Info
	if environment == "production" && debugSQL != "true" {
		logLevel = logger.Warn
	}

	config := &gorm.Config{
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{LogLevel: logLevel},
		),
	}

	DB, err = gorm.Open(mysql.Open(dsn), config)
	if err != nil {
		Logger.Fatalf("Failed to connect to database: %v", err)
	}

	Logger.Info("Database connected successfully")
}

// MigrateDB creates/updates the notification engine tables. Domain tables the
// triggers only read (tasks, approvals, projects...) are included so a fresh
// install can run end to end.
func MigrateDB() {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.UserDevice{},
		&models.NotificationPreference{},
		&models.Notification{},
		&models.NotificationDelivery{},
		&models.EmailQueueItem{},
		&models.PushQueueItem{},
		&models.Task{},
		&models.TaskAssignee{},
		&models.TaskMetadata{},
		&models.TaskStatus{},
		&models.TaskPriority{},
		&models.Approval{},
		&models.ApprovalApprover{},
		&models.Project{},
		&models.SiteDiary{},
		&models.FormTemplate{},
	); err != nil {
		Logger.Fatalf("Failed to migrate database: %v", err)
	}
}
