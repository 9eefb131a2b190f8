package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/pkg/response"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   uint
	Role string
}

type ProjectService struct {
	db          *gorm.DB
	userService *UserService
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db, userService: NewUserService(db)}
}

type ProjectRequest struct {
	ProjectName     string `json:"project_name" binding:"required"`
	DifficultyLevel int    `json:"difficulty_level" binding:"required,min=1,max=5"`
	DurationDays    int    `json:"duration_days" binding:"required,min=1"`
	PMUserID        *uint  `json:"pm_user_id"`
	StartDate       string `json:"start_date"` // YYYY-MM-DD, today if empty
}

// dateOnly truncates t to midnight UTC so deadline arithmetic and the
// reporting queries compare whole days.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// today returns the current date at midnight UTC.
func today() time.Time {
	return dateOnly(time.Now().UTC())
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, response.NewBadRequest(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return dateOnly(t), nil
}

// Create persists a new project. The deadline is always start date plus
// duration. Assigning a STUDENT as PM promotes them inside the same
// transaction.
func (s *ProjectService) Create(req *ProjectRequest, createdByID uint) (*models.Project, error) {
	if err := validateProjectFields(req); err != nil {
		return nil, err
	}

	creator, err := s.userService.GetByID(createdByID)
	if err != nil {
		return nil, err
	}

	startDate := today()
	if req.StartDate != "" {
		if startDate, err = parseDate(req.StartDate); err != nil {
			return nil, err
		}
	}

	project := models.Project{
		ProjectName:     req.ProjectName,
		DifficultyLevel: req.DifficultyLevel,
		DurationDays:    req.DurationDays,
		Status:          models.StatusNotStarted,
		StartDate:       startDate,
		Deadline:        startDate.AddDate(0, 0, req.DurationDays),
		CreatedByID:     creator.ID,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.PMUserID != nil {
			pm, err := s.assignPM(tx, *req.PMUserID)
			if err != nil {
				return err
			}
			project.PMUserID = &pm.ID
		}
		return tx.Create(&project).Error
	}); err != nil {
		return nil, err
	}

	return &project, nil
}

// Update replaces the project fields. The deadline is recomputed only when
// the request carries a start date; a duration change alone leaves the stored
// deadline untouched. Only ADMIN or the project's own PM may update.
func (s *ProjectService) Update(id uint, req *ProjectRequest, actor Actor) (*models.Project, error) {
	if err := validateProjectFields(req); err != nil {
		return nil, err
	}

	project, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeMutation(project, actor); err != nil {
		return nil, err
	}

	project.ProjectName = req.ProjectName
	project.DifficultyLevel = req.DifficultyLevel
	project.DurationDays = req.DurationDays

	if req.StartDate != "" {
		startDate, err := parseDate(req.StartDate)
		if err != nil {
			return nil, err
		}
		project.StartDate = startDate
		project.Deadline = startDate.AddDate(0, 0, req.DurationDays)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.PMUserID != nil {
			pm, err := s.assignPM(tx, *req.PMUserID)
			if err != nil {
				return err
			}
			project.PMUserID = &pm.ID
		}
		return tx.Save(project).Error
	}); err != nil {
		return nil, err
	}

	return project, nil
}

func validateProjectFields(req *ProjectRequest) error {
	if req.DifficultyLevel < 1 || req.DifficultyLevel > 5 {
		return response.NewBadRequest("difficulty level must be between 1 and 5")
	}
	if req.DurationDays < 1 {
		return response.NewBadRequest("duration days must be at least 1")
	}
	return nil
}

// assignPM resolves the PM user and promotes a STUDENT to PM. Existing PM or
// ADMIN roles are left alone, and nothing ever demotes on unassignment.
func (s *ProjectService) assignPM(tx *gorm.DB, pmUserID uint) (*models.User, error) {
	var pm models.User
	if err := tx.First(&pm, pmUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("pm user not found")
		}
		return nil, err
	}

	if pm.Role == models.RoleStudent {
		if err := tx.Model(&pm).Update("role", models.RolePM).Error; err != nil {
			return nil, err
		}
		pm.Role = models.RolePM
	}

	return &pm, nil
}

func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("PMUser").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}

// SetStatus looks the status up by name and persists it. Any status may
// follow any other; only ADMIN or the project's own PM may set it.
func (s *ProjectService) SetStatus(id uint, status string, actor Actor) (*models.Project, error) {
	if !models.ValidStatus(status) {
		return nil, response.NewBadRequest(fmt.Sprintf("unknown project status: %s", status))
	}

	project, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeMutation(project, actor); err != nil {
		return nil, err
	}

	if err := s.db.Model(project).Update("status", status).Error; err != nil {
		return nil, err
	}
	project.Status = status
	return project, nil
}

// Delete removes a project and all its memberships. Only ADMIN or the
// project's own PM may delete.
func (s *ProjectService) Delete(id uint, actor Actor) error {
	project, err := s.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.authorizeMutation(project, actor); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
}

// AddMember adds a user to a project's working members. A second membership
// for the same pair is a conflict.
func (s *ProjectService) AddMember(projectID, userID uint, actor Actor) error {
	project, err := s.GetByID(projectID)
	if err != nil {
		return err
	}

	if err := s.authorizeMutation(project, actor); err != nil {
		return err
	}

	if _, err := s.userService.GetByID(userID); err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return response.NewConflict("user is already a member of this project")
	}

	member := models.ProjectMember{ProjectID: projectID, UserID: userID}
	if err := s.db.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.NewConflict("user is already a member of this project")
		}
		return err
	}
	return nil
}

// RemoveMember removes a user from a project. Removing someone who is not a
// member is a conflict.
func (s *ProjectService) RemoveMember(projectID, userID uint, actor Actor) error {
	project, err := s.GetByID(projectID)
	if err != nil {
		return err
	}

	if err := s.authorizeMutation(project, actor); err != nil {
		return err
	}

	result := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewConflict("user is not a member of this project")
	}
	return nil
}

// Members returns the current member users of a project.
func (s *ProjectService) Members(projectID uint) ([]models.User, error) {
	var users []models.User
	if err := s.db.Model(&models.User{}).
		Joins("JOIN project_members ON project_members.user_id = users.id").
		Where("project_members.project_id = ?", projectID).
		Order("users.id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// authorizeMutation enforces the ownership rule on status and membership
// writes: ADMIN anywhere, PM only on projects they manage.
func (s *ProjectService) authorizeMutation(project *models.Project, actor Actor) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if project.PMUserID != nil && *project.PMUserID == actor.ID {
		return nil
	}
	return response.NewForbidden("only an admin or the project's PM may modify this project")
}
