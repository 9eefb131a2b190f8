package services

import (
	"errors"
	"testing"

	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/internal/utils"
	"github.com/parttimestudent/backend/pkg/response"
	"gorm.io/gorm"
)

func appErrStatus(t *testing.T, err error) int {
	t.Helper()
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *response.AppError, got %T: %v", err, err)
	}
	return appErr.HTTPStatus
}

func TestRegister_AssignsSequentialCodes(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	first := registerStudent(t, svc, "alice")
	second := registerStudent(t, svc, "bob")

	if first.CustomID != "TTTP01" {
		t.Errorf("first code = %q, expected %q", first.CustomID, "TTTP01")
	}
	if second.CustomID != "TTTP02" {
		t.Errorf("second code = %q, expected %q", second.CustomID, "TTTP02")
	}
	if first.Role != models.RoleStudent {
		t.Errorf("new user role = %q, expected STUDENT", first.Role)
	}
}

func TestRegister_CodeContinuesFromMax(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	// Simulate a pre-existing account holding a high code.
	seeded := models.User{CustomID: "TTTP07", FirstName: "Old", Username: "old", Role: models.RoleStudent, AuthType: "local", IsActive: true}
	if err := db.Create(&seeded).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	user := registerStudent(t, svc, "alice")
	if user.CustomID != "TTTP08" {
		t.Errorf("code = %q, expected %q", user.CustomID, "TTTP08")
	}
}

func TestRegister_CodeNotReusedAfterDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	first := registerStudent(t, svc, "alice")
	if err := svc.Delete(first.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	second := registerStudent(t, svc, "bob")
	if second.CustomID != "TTTP02" {
		t.Errorf("code after delete = %q, expected %q", second.CustomID, "TTTP02")
	}
}

func TestRegister_CodesPastNinetyNine(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	seeded := models.User{CustomID: "TTTP99", FirstName: "Old", Username: "old", Role: models.RoleStudent, AuthType: "local", IsActive: true}
	if err := db.Create(&seeded).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	user := registerStudent(t, svc, "alice")
	if user.CustomID != "TTTP100" {
		t.Errorf("code = %q, expected %q", user.CustomID, "TTTP100")
	}
}

// A competing registration can commit the code between the scan and the
// insert. Simulated here with a once-only create callback that squats the
// freshly scanned code, which makes the first attempt fail with a duplicate
// key and forces the retry.
func TestRegister_RetriesOnCodeCollision(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	collided := false
	err := db.Callback().Create().Before("gorm:create").Register("test_code_collision", func(tx *gorm.DB) {
		u, ok := tx.Statement.Dest.(*models.User)
		if !ok || collided {
			return
		}
		collided = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO users (custom_id, first_name, username, role, auth_type, is_active) VALUES (?, ?, ?, ?, ?, ?)",
			u.CustomID, "Squatter", "squatter", models.RoleStudent, "local", true,
		)
	})
	if err != nil {
		t.Fatalf("failed to install callback: %v", err)
	}
	defer db.Callback().Create().Remove("test_code_collision")

	user := registerStudent(t, svc, "alice")

	if !collided {
		t.Fatal("collision was never triggered")
	}
	if user.CustomID != "TTTP01" {
		t.Errorf("custom id = %q, expected TTTP01 from the retried scan", user.CustomID)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("user count = %d, expected only the retried registration", count)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	registerStudent(t, svc, "alice")

	_, err := svc.Register(&RegisterRequest{
		FirstName: "Other",
		YearLevel: "3",
		Specialty: "Frontend",
		Username:  "alice",
		Password:  "password2",
	})
	if status := appErrStatus(t, err); status != 409 {
		t.Errorf("status = %d, expected 409", status)
	}
}

func TestRegister_UnknownSpecialty(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.Register(&RegisterRequest{
		FirstName: "Test",
		YearLevel: "2",
		Specialty: "Astrology",
		Username:  "alice",
		Password:  "password1",
	})
	if status := appErrStatus(t, err); status != 400 {
		t.Errorf("status = %d, expected 400", status)
	}
}

func TestRegister_HashesPassword(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	user := registerStudent(t, svc, "alice")

	if user.Password == "password1" {
		t.Error("password stored in plain text")
	}
	if !utils.CheckPassword("password1", user.Password) {
		t.Error("stored hash does not verify against the original password")
	}
}

func TestUpdate_RenameToTakenUsername(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	registerStudent(t, svc, "alice")
	bob := registerStudent(t, svc, "bob")

	_, err := svc.Update(bob.ID, &UpdateUserRequest{
		FirstName: "Bob",
		YearLevel: "3",
		Specialty: "Backend",
		Username:  "alice",
	})
	if status := appErrStatus(t, err); status != 409 {
		t.Errorf("status = %d, expected 409", status)
	}
}

func TestUpdate_KeepsPasswordWhenEmpty(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	user := registerStudent(t, svc, "alice")
	oldHash := user.Password

	updated, err := svc.Update(user.ID, &UpdateUserRequest{
		FirstName: "Alicia",
		YearLevel: "3",
		Specialty: "QA",
		Username:  "alice",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Password != oldHash {
		t.Error("password hash changed on a profile-only update")
	}
	if updated.FirstName != "Alicia" || updated.Specialty != "QA" {
		t.Errorf("profile fields not updated: %+v", updated)
	}
}

func TestDelete_CascadesMembershipsAndSlots(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	projectSvc := NewProjectService(db)

	pm := registerStudent(t, userSvc, "pm")
	student := registerStudent(t, userSvc, "alice")

	project, err := projectSvc.Create(&ProjectRequest{
		ProjectName:     "Portal",
		DifficultyLevel: 3,
		DurationDays:    10,
		PMUserID:        &pm.ID,
	}, pm.ID)
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}

	actor := Actor{ID: pm.ID, Role: models.RolePM}
	if err := projectSvc.AddMember(project.ID, student.ID, actor); err != nil {
		t.Fatalf("add member failed: %v", err)
	}
	slot := models.TimetableSlot{UserID: student.ID, DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:00", Subject: "Math"}
	if err := db.Create(&slot).Error; err != nil {
		t.Fatalf("seed slot failed: %v", err)
	}

	if err := userSvc.Delete(student.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var memberCount, slotCount int64
	db.Model(&models.ProjectMember{}).Where("user_id = ?", student.ID).Count(&memberCount)
	db.Model(&models.TimetableSlot{}).Where("user_id = ?", student.ID).Count(&slotCount)
	if memberCount != 0 {
		t.Errorf("memberships left behind: %d", memberCount)
	}
	if slotCount != 0 {
		t.Errorf("timetable slots left behind: %d", slotCount)
	}

	if _, err := userSvc.GetByID(student.ID); err == nil {
		t.Error("deleted user still visible")
	}
	var unscoped int64
	db.Unscoped().Model(&models.User{}).Where("id = ?", student.ID).Count(&unscoped)
	if unscoped != 1 {
		t.Error("user row removed entirely, expected soft delete")
	}
}

func TestSetRole_Invalid(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	user := registerStudent(t, svc, "alice")

	if _, err := svc.SetRole(user.ID, "SUPERVISOR"); err == nil {
		t.Fatal("expected error for unknown role")
	}

	updated, err := svc.SetRole(user.ID, models.RolePM)
	if err != nil {
		t.Fatalf("set role failed: %v", err)
	}
	if updated.Role != models.RolePM {
		t.Errorf("role = %q, expected PM", updated.Role)
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	for _, u := range []struct{ name, username, specialty string }{
		{"Carol", "carol", "QA"},
		{"Alice", "alice", "Backend"},
		{"Bob", "bob", "Backend"},
	} {
		if _, err := svc.Register(&RegisterRequest{
			FirstName: u.name, YearLevel: "2", Specialty: u.specialty,
			Username: u.username, Password: "password1",
		}); err != nil {
			t.Fatalf("register %s failed: %v", u.username, err)
		}
	}

	backend, err := svc.List(&UserListRequest{Specialty: "Backend"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(backend) != 2 {
		t.Fatalf("backend users = %d, expected 2", len(backend))
	}
	if backend[0].FirstName != "Alice" || backend[1].FirstName != "Bob" {
		t.Errorf("unexpected order: %s, %s", backend[0].FirstName, backend[1].FirstName)
	}

	desc, err := svc.List(&UserListRequest{Order: "desc"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if desc[0].FirstName != "Carol" {
		t.Errorf("desc order starts with %s, expected Carol", desc[0].FirstName)
	}

	students, err := svc.List(&UserListRequest{Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(students) != 3 {
		t.Errorf("students = %d, expected 3", len(students))
	}
}
