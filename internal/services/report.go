package services

import (
	"strings"

	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/pkg/response"
	"gorm.io/gorm"
)

// DefaultDueSoonDays is the forward window for "due soon" when the caller
// does not supply one.
const DefaultDueSoonDays = 7

// ReportService serves read-only projections over the project registry.
// Every query is deterministic and side-effect free; ties on the requested
// sort key fall back to id order.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// ProjectSort names the supported orderings for project listings.
const (
	SortName         = "name"
	SortDeadline     = "deadline"
	SortNameDeadline = "name_deadline"
)

// All returns every project with the requested ordering. sortBy defaults to
// insertion order; order ("asc"/"desc") only applies to name sorting.
func (s *ReportService) All(sortBy, order string) ([]models.Project, error) {
	query := s.db.Model(&models.Project{}).Preload("PMUser")

	switch sortBy {
	case SortName:
		if strings.EqualFold(order, "desc") {
			query = query.Order("project_name DESC, id ASC")
		} else {
			query = query.Order("project_name ASC, id ASC")
		}
	case SortDeadline:
		query = query.Order("deadline ASC, id ASC")
	case SortNameDeadline:
		query = query.Order("project_name ASC, deadline ASC, id ASC")
	default:
		query = query.Order("id ASC")
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ByStatus returns projects in the given status, optionally name-sorted.
func (s *ReportService) ByStatus(status string, sortByName bool) ([]models.Project, error) {
	if !models.ValidStatus(status) {
		return nil, response.NewBadRequest("unknown project status: " + status)
	}

	query := s.db.Model(&models.Project{}).Preload("PMUser").Where("status = ?", status)
	if sortByName {
		query = query.Order("project_name ASC, id ASC")
	} else {
		query = query.Order("id ASC")
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// DueSoon returns unfinished projects whose deadline falls inside
// [today, today+days], both ends inclusive.
func (s *ReportService) DueSoon(days int) ([]models.Project, error) {
	if days <= 0 {
		days = DefaultDueSoonDays
	}

	start := today()
	end := start.AddDate(0, 0, days)

	var projects []models.Project
	if err := s.db.Model(&models.Project{}).Preload("PMUser").
		Where("deadline >= ? AND deadline <= ?", start, end).
		Where("status != ?", models.StatusDone).
		Order("deadline ASC, id ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Overdue returns unfinished projects whose deadline is strictly before
// today. A project due today is not overdue.
func (s *ReportService) Overdue() ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.Model(&models.Project{}).Preload("PMUser").
		Where("deadline < ?", today()).
		Where("status != ?", models.StatusDone).
		Order("deadline ASC, id ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// NeedingHelp returns projects currently flagged HELP.
func (s *ReportService) NeedingHelp() ([]models.Project, error) {
	return s.ByStatus(models.StatusHelp, false)
}

// ByPM returns the projects a given user manages.
func (s *ReportService) ByPM(pmUserID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.Model(&models.Project{}).Preload("PMUser").
		Where("pm_user_id = ?", pmUserID).
		Order("id ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ByMember returns the projects a given user works on.
func (s *ReportService) ByMember(userID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.Model(&models.Project{}).Preload("PMUser").
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Order("projects.id ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// StatusOverview bundles the admin dashboard projections in one response.
type StatusOverview struct {
	AllProjects []models.Project `json:"all_projects"`
	DueSoon     []models.Project `json:"due_soon"`
	Overdue     []models.Project `json:"overdue"`
	NeedingHelp []models.Project `json:"needing_help"`
}

// Overview computes the full status overview with the given due-soon window.
func (s *ReportService) Overview(dueDays int) (*StatusOverview, error) {
	all, err := s.All("", "")
	if err != nil {
		return nil, err
	}
	dueSoon, err := s.DueSoon(dueDays)
	if err != nil {
		return nil, err
	}
	overdue, err := s.Overdue()
	if err != nil {
		return nil, err
	}
	help, err := s.NeedingHelp()
	if err != nil {
		return nil, err
	}

	return &StatusOverview{
		AllProjects: all,
		DueSoon:     dueSoon,
		Overdue:     overdue,
		NeedingHelp: help,
	}, nil
}
