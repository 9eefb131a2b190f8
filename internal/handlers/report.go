package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parttimestudent/backend/internal/middleware"
	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/internal/services"
	"github.com/parttimestudent/backend/pkg/response"
	"gorm.io/gorm"
)

// ReportHandler serves the read-only project views used by PM dashboards.
type ReportHandler struct {
	reportService  *services.ReportService
	workdayService *services.WorkdayService
}

func NewReportHandler(db *gorm.DB, workdayService *services.WorkdayService) *ReportHandler {
	return &ReportHandler{
		reportService:  services.NewReportService(db),
		workdayService: workdayService,
	}
}

// List returns all projects, sortable by name and deadline
// GET /api/pm/reports/projects?sort_by=name_deadline&order=desc
func (h *ReportHandler) List(c *gin.Context) {
	projects, err := h.reportService.All(c.Query("sort_by"), c.Query("order"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// ByStatus returns the projects in a given lifecycle status
// GET /api/pm/reports/status/:status
func (h *ReportHandler) ByStatus(c *gin.Context) {
	sortByName := c.Query("sort_by") == "name"
	projects, err := h.reportService.ByStatus(c.Param("status"), sortByName)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// dueSoonItem is a project with its remaining working days annotated.
type dueSoonItem struct {
	models.Project
	WorkingDaysLeft int `json:"working_days_left"`
}

// DueSoon returns unfinished projects with deadlines inside the window,
// each annotated with the working days left in the requested region
// GET /api/pm/reports/due-soon?days=7&region=US
func (h *ReportHandler) DueSoon(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(services.DefaultDueSoonDays)))
	if err != nil || days < 1 {
		response.BadRequest(c, "invalid days")
		return
	}
	region := c.DefaultQuery("region", "NONE")

	projects, err := h.reportService.DueSoon(days)
	if err != nil {
		response.Error(c, err)
		return
	}

	now := time.Now()
	items := make([]dueSoonItem, 0, len(projects))
	for _, p := range projects {
		items = append(items, dueSoonItem{
			Project:         p,
			WorkingDaysLeft: h.workdayService.WorkingDaysUntil(now, p.Deadline, region),
		})
	}

	response.Success(c, items)
}

// Overdue returns unfinished projects whose deadline has passed
// GET /api/pm/reports/overdue
func (h *ReportHandler) Overdue(c *gin.Context) {
	projects, err := h.reportService.Overdue()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// NeedingHelp returns the projects flagged HELP
// GET /api/pm/reports/help
func (h *ReportHandler) NeedingHelp(c *gin.Context) {
	projects, err := h.reportService.NeedingHelp()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// Mine returns the projects managed by the calling PM
// GET /api/pm/reports/mine
func (h *ReportHandler) Mine(c *gin.Context) {
	projects, err := h.reportService.ByPM(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// ByMember returns the projects a student is assigned to
// GET /api/pm/reports/member/:id
func (h *ReportHandler) ByMember(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	projects, err := h.reportService.ByMember(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// MyProjects returns the calling student's assignments
// GET /api/student/projects
func (h *ReportHandler) MyProjects(c *gin.Context) {
	projects, err := h.reportService.ByMember(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// Overview returns project counts per status plus due-soon and overdue totals
// GET /api/pm/reports/overview
func (h *ReportHandler) Overview(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(services.DefaultDueSoonDays)))
	if err != nil || days < 1 {
		response.BadRequest(c, "invalid days")
		return
	}

	overview, err := h.reportService.Overview(days)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, overview)
}

// Countries lists the regions supported by the working-day calendar
// GET /api/pm/reports/countries
func (h *ReportHandler) Countries(c *gin.Context) {
	response.Success(c, h.workdayService.GetSupportedCountries())
}
