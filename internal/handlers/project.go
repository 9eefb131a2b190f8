package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parttimestudent/backend/internal/middleware"
	"github.com/parttimestudent/backend/internal/services"
	"github.com/parttimestudent/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db),
	}
}

func actor(c *gin.Context) services.Actor {
	return services.Actor{
		ID:   middleware.GetUserID(c),
		Role: middleware.GetRole(c),
	}
}

// Create creates a new project owned by the acting admin
// POST /api/admin/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

// GetByID returns a project by ID
// GET /api/pm/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	project, err := h.projectService.GetByID(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Update updates a project's fields and recomputes the deadline when a new
// start date is supplied
// PUT /api/pm/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(uint(id), &req, actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Delete removes a project and its memberships
// DELETE /api/pm/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	if err := h.projectService.Delete(uint(id), actor(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "project deleted successfully"})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus moves a project to a new lifecycle status
// PATCH /api/pm/projects/:id/status
func (h *ProjectHandler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.SetStatus(uint(id), req.Status, actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

type addMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// AddMember assigns a student to a project
// POST /api/pm/projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.projectService.AddMember(uint(id), req.UserID, actor(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"message": "member added"})
}

// RemoveMember removes a student from a project
// DELETE /api/pm/projects/:id/members/:userId
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	if err := h.projectService.RemoveMember(uint(id), uint(userID), actor(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "member removed"})
}

// Members lists the students assigned to a project
// GET /api/pm/projects/:id/members
func (h *ProjectHandler) Members(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	members, err := h.projectService.Members(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, members)
}
