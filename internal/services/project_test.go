package services

import (
	"testing"
	"time"

	"github.com/parttimestudent/backend/internal/models"
)

func TestCreateProject_ComputesDeadline(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)

	creator := registerStudent(t, userSvc, "pm")

	project, err := svc.Create(&ProjectRequest{
		ProjectName:     "Portal",
		DifficultyLevel: 3,
		DurationDays:    10,
		StartDate:       "2026-03-01",
	}, creator.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	want := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !project.Deadline.Equal(want) {
		t.Errorf("deadline = %v, expected %v", project.Deadline, want)
	}
	if project.Status != models.StatusNotStarted {
		t.Errorf("status = %q, expected NOT_STARTED", project.Status)
	}
}

func TestCreateProject_DefaultsStartDateToToday(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)
	creator := registerStudent(t, userSvc, "pm")

	project, err := svc.Create(&ProjectRequest{
		ProjectName:     "Portal",
		DifficultyLevel: 2,
		DurationDays:    5,
	}, creator.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if !project.StartDate.Equal(today()) {
		t.Errorf("start date = %v, expected today", project.StartDate)
	}
	if !project.Deadline.Equal(today().AddDate(0, 0, 5)) {
		t.Errorf("deadline = %v, expected today+5", project.Deadline)
	}
}

func TestCreateProject_PromotesStudentPM(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)

	creator := registerStudent(t, userSvc, "creator")
	student := registerStudent(t, userSvc, "alice")

	_, err := svc.Create(&ProjectRequest{
		ProjectName:     "Portal",
		DifficultyLevel: 3,
		DurationDays:    10,
		PMUserID:        &student.ID,
	}, creator.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	promoted, err := userSvc.GetByID(student.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if promoted.Role != models.RolePM {
		t.Errorf("role = %q, expected PM after assignment", promoted.Role)
	}
}

func TestCreateProject_AdminPMKeepsRole(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)

	creator := registerStudent(t, userSvc, "creator")
	admin := registerStudent(t, userSvc, "boss")
	if _, err := userSvc.SetRole(admin.ID, models.RoleAdmin); err != nil {
		t.Fatalf("set role failed: %v", err)
	}

	_, err := svc.Create(&ProjectRequest{
		ProjectName:     "Portal",
		DifficultyLevel: 3,
		DurationDays:    10,
		PMUserID:        &admin.ID,
	}, creator.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	after, _ := userSvc.GetByID(admin.ID)
	if after.Role != models.RoleAdmin {
		t.Errorf("role = %q, ADMIN must not be demoted by PM assignment", after.Role)
	}
}

func TestUpdateProject_DurationAloneKeepsDeadline(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)
	creator := registerStudent(t, userSvc, "pm")

	project, err := svc.Create(&ProjectRequest{
		ProjectName:     "Portal",
		DifficultyLevel: 3,
		DurationDays:    10,
		StartDate:       "2026-03-01",
	}, creator.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	originalDeadline := project.Deadline

	updated, err := svc.Update(project.ID, &ProjectRequest{
		ProjectName:     "Portal",
		DifficultyLevel: 3,
		DurationDays:    20,
	}, Actor{ID: creator.ID, Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.DurationDays != 20 {
		t.Errorf("duration = %d, expected 20", updated.DurationDays)
	}
	if !updated.Deadline.Equal(originalDeadline) {
		t.Errorf("deadline = %v, expected unchanged %v when no start date is sent", updated.Deadline, originalDeadline)
	}
}

func TestUpdateProject_StartDateRecomputesDeadline(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)
	creator := registerStudent(t, userSvc, "pm")

	project, err := svc.Create(&ProjectRequest{
		ProjectName:     "Portal",
		DifficultyLevel: 3,
		DurationDays:    10,
		StartDate:       "2026-03-01",
	}, creator.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.Update(project.ID, &ProjectRequest{
		ProjectName:     "Portal",
		DifficultyLevel: 3,
		DurationDays:    14,
		StartDate:       "2026-04-01",
	}, Actor{ID: creator.ID, Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	want := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	if !updated.Deadline.Equal(want) {
		t.Errorf("deadline = %v, expected %v", updated.Deadline, want)
	}
}

func TestUpdateProject_InvalidDate(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)
	creator := registerStudent(t, userSvc, "pm")

	project, err := svc.Create(&ProjectRequest{
		ProjectName: "Portal", DifficultyLevel: 3, DurationDays: 10,
	}, creator.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Update(project.ID, &ProjectRequest{
		ProjectName: "Portal", DifficultyLevel: 3, DurationDays: 10,
		StartDate: "01/03/2026",
	}, Actor{ID: creator.ID, Role: models.RoleAdmin})
	if status := appErrStatus(t, err); status != 400 {
		t.Errorf("status = %d, expected 400", status)
	}
}

func TestSetStatus(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)

	pm := registerStudent(t, userSvc, "pm")
	outsider := registerStudent(t, userSvc, "outsider")

	project, err := svc.Create(&ProjectRequest{
		ProjectName: "Portal", DifficultyLevel: 3, DurationDays: 10, PMUserID: &pm.ID,
	}, pm.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	pmActor := Actor{ID: pm.ID, Role: models.RolePM}

	if _, err := svc.SetStatus(project.ID, "SHIPPED", pmActor); err == nil {
		t.Error("expected error for unknown status")
	}

	if _, err := svc.SetStatus(project.ID, models.StatusDone, Actor{ID: outsider.ID, Role: models.RolePM}); err == nil {
		t.Error("expected forbidden for a PM of a different project")
	}

	updated, err := svc.SetStatus(project.ID, models.StatusHelp, pmActor)
	if err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if updated.Status != models.StatusHelp {
		t.Errorf("status = %q, expected HELP", updated.Status)
	}

	// Transitions are unrestricted: DONE back to NOT_STARTED is allowed.
	if _, err := svc.SetStatus(project.ID, models.StatusDone, pmActor); err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	reverted, err := svc.SetStatus(project.ID, models.StatusNotStarted, pmActor)
	if err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if reverted.Status != models.StatusNotStarted {
		t.Errorf("status = %q, expected NOT_STARTED", reverted.Status)
	}

	admin := Actor{ID: outsider.ID, Role: models.RoleAdmin}
	if _, err := svc.SetStatus(project.ID, models.StatusTest, admin); err != nil {
		t.Errorf("admin should pass the ownership check: %v", err)
	}
}

func TestMembers_AddRemove(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)

	pm := registerStudent(t, userSvc, "pm")
	alice := registerStudent(t, userSvc, "alice")

	project, err := svc.Create(&ProjectRequest{
		ProjectName: "Portal", DifficultyLevel: 3, DurationDays: 10, PMUserID: &pm.ID,
	}, pm.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	actor := Actor{ID: pm.ID, Role: models.RolePM}

	if err := svc.AddMember(project.ID, alice.ID, actor); err != nil {
		t.Fatalf("add member failed: %v", err)
	}

	// Second add of the same pair is a conflict.
	err = svc.AddMember(project.ID, alice.ID, actor)
	if status := appErrStatus(t, err); status != 409 {
		t.Errorf("duplicate add status = %d, expected 409", status)
	}

	members, err := svc.Members(project.ID)
	if err != nil {
		t.Fatalf("members failed: %v", err)
	}
	if len(members) != 1 || members[0].ID != alice.ID {
		t.Errorf("members = %+v, expected just alice", members)
	}

	if err := svc.RemoveMember(project.ID, alice.ID, actor); err != nil {
		t.Fatalf("remove member failed: %v", err)
	}

	// Removing a non-member is a conflict.
	err = svc.RemoveMember(project.ID, alice.ID, actor)
	if status := appErrStatus(t, err); status != 409 {
		t.Errorf("repeat remove status = %d, expected 409", status)
	}

	// Re-adding after removal must work.
	if err := svc.AddMember(project.ID, alice.ID, actor); err != nil {
		t.Errorf("re-add after remove failed: %v", err)
	}
}

func TestAddMember_UnknownUserOrProject(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)

	pm := registerStudent(t, userSvc, "pm")
	project, err := svc.Create(&ProjectRequest{
		ProjectName: "Portal", DifficultyLevel: 3, DurationDays: 10, PMUserID: &pm.ID,
	}, pm.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	actor := Actor{ID: pm.ID, Role: models.RolePM}

	err = svc.AddMember(project.ID, 9999, actor)
	if status := appErrStatus(t, err); status != 404 {
		t.Errorf("unknown user status = %d, expected 404", status)
	}

	err = svc.AddMember(9999, pm.ID, actor)
	if status := appErrStatus(t, err); status != 404 {
		t.Errorf("unknown project status = %d, expected 404", status)
	}
}

func TestDeleteProject_RemovesMemberships(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)

	pm := registerStudent(t, userSvc, "pm")
	alice := registerStudent(t, userSvc, "alice")

	project, err := svc.Create(&ProjectRequest{
		ProjectName: "Portal", DifficultyLevel: 3, DurationDays: 10, PMUserID: &pm.ID,
	}, pm.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.AddMember(project.ID, alice.ID, Actor{ID: pm.ID, Role: models.RolePM}); err != nil {
		t.Fatalf("add member failed: %v", err)
	}

	if err := svc.Delete(project.ID, Actor{ID: pm.ID, Role: models.RolePM}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var memberCount int64
	db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&memberCount)
	if memberCount != 0 {
		t.Errorf("memberships left behind: %d", memberCount)
	}
	if _, err := svc.GetByID(project.ID); err == nil {
		t.Error("deleted project still visible")
	}
}

func TestUpdateProject_ForeignPMForbidden(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)

	owner := registerStudent(t, userSvc, "owner")
	outsider := registerStudent(t, userSvc, "outsider")

	project, err := svc.Create(&ProjectRequest{
		ProjectName: "Portal", DifficultyLevel: 3, DurationDays: 10, PMUserID: &owner.ID,
	}, owner.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Update(project.ID, &ProjectRequest{
		ProjectName: "Hijacked", DifficultyLevel: 3, DurationDays: 10, PMUserID: &outsider.ID,
	}, Actor{ID: outsider.ID, Role: models.RolePM})
	if status := appErrStatus(t, err); status != 403 {
		t.Errorf("status = %d, expected 403", status)
	}

	stored, err := svc.GetByID(project.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ProjectName != "Portal" {
		t.Errorf("project name = %q, expected untouched %q", stored.ProjectName, "Portal")
	}
	if stored.PMUserID == nil || *stored.PMUserID != owner.ID {
		t.Error("project PM reassigned by a PM who does not manage it")
	}
}

func TestDeleteProject_ForeignPMForbidden(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)

	owner := registerStudent(t, userSvc, "owner")
	outsider := registerStudent(t, userSvc, "outsider")

	project, err := svc.Create(&ProjectRequest{
		ProjectName: "Portal", DifficultyLevel: 3, DurationDays: 10, PMUserID: &owner.ID,
	}, owner.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = svc.Delete(project.ID, Actor{ID: outsider.ID, Role: models.RolePM})
	if status := appErrStatus(t, err); status != 403 {
		t.Errorf("status = %d, expected 403", status)
	}

	if _, err := svc.GetByID(project.ID); err != nil {
		t.Errorf("project gone after a forbidden delete: %v", err)
	}
}

func TestDeleteProject_OwnPMAllowed(t *testing.T) {
	db := newTestDB(t)
	userSvc := NewUserService(db)
	svc := NewProjectService(db)

	owner := registerStudent(t, userSvc, "owner")

	project, err := svc.Create(&ProjectRequest{
		ProjectName: "Portal", DifficultyLevel: 3, DurationDays: 10, PMUserID: &owner.ID,
	}, owner.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(project.ID, Actor{ID: owner.ID, Role: models.RolePM}); err != nil {
		t.Fatalf("delete by the managing PM failed: %v", err)
	}
}
