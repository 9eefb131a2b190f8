package services

import (
	"testing"

	"github.com/parttimestudent/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.TimetableSlot{},
		&models.SystemLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// registerStudent creates a STUDENT through the normal registration path.
func registerStudent(t *testing.T, svc *UserService, username string) *models.User {
	t.Helper()

	user, err := svc.Register(&RegisterRequest{
		FirstName: "Test",
		YearLevel: "2",
		Specialty: "Backend",
		Username:  username,
		Password:  "password1",
	})
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	return user
}
