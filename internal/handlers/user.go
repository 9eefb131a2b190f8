package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parttimestudent/backend/internal/services"
	"github.com/parttimestudent/backend/pkg/response"
	"gorm.io/gorm"
)

// UserHandler exposes the admin user-management endpoints.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		userService: services.NewUserService(db),
	}
}

// List returns users filtered by role or specialty
// GET /api/admin/users
func (h *UserHandler) List(c *gin.Context) {
	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	users, err := h.userService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, users)
}

// GetByID returns a user by ID
// GET /api/admin/users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	user, err := h.userService.GetByID(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}

// Create registers a user on behalf of an admin
// POST /api/admin/users
func (h *UserHandler) Create(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Register(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Update updates a user's profile
// PUT /api/admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}

// Delete removes a user together with memberships and timetable
// DELETE /api/admin/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	if err := h.userService.Delete(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "user deleted successfully"})
}

// Students lists STUDENT accounts for member picking, optionally narrowed
// by specialty
// GET /api/pm/students?specialty=Backend
func (h *UserHandler) Students(c *gin.Context) {
	req := services.UserListRequest{
		Role:      "STUDENT",
		Specialty: c.Query("specialty"),
		Order:     c.Query("order"),
	}

	users, err := h.userService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, users)
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetRole changes a user's role
// PUT /api/admin/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.SetRole(uint(id), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}
