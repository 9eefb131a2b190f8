package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parttimestudent/backend/internal/middleware"
	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/internal/services"
	"github.com/parttimestudent/backend/pkg/response"
	"gorm.io/gorm"
)

// maxTimetableImageSize caps uploads at 10 MB.
const maxTimetableImageSize = 10 << 20

type TimetableHandler struct {
	timetableService *services.TimetableService
}

func NewTimetableHandler(db *gorm.DB, extractor services.TimetableExtractor) *TimetableHandler {
	return &TimetableHandler{
		timetableService: services.NewTimetableService(db, extractor),
	}
}

// Upload replaces the calling student's timetable with the slots read from
// the uploaded image
// POST /api/student/timetable
func (h *TimetableHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "image file is required")
		return
	}
	defer file.Close()

	if header.Size > maxTimetableImageSize {
		response.BadRequest(c, "image exceeds the 10MB limit")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxTimetableImageSize+1))
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(data) > maxTimetableImageSize {
		response.BadRequest(c, "image exceeds the 10MB limit")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	slots, err := h.timetableService.Replace(c.Request.Context(), middleware.GetUserID(c), data, mimeType)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, slots)
}

// Mine returns the calling student's timetable
// GET /api/student/timetable
func (h *TimetableHandler) Mine(c *gin.Context) {
	h.respondSlots(c, middleware.GetUserID(c))
}

// ByUser returns any user's timetable, for PMs planning around availability
// GET /api/pm/timetable/:id
func (h *TimetableHandler) ByUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	h.respondSlots(c, uint(id))
}

func (h *TimetableHandler) respondSlots(c *gin.Context, userID uint) {
	var slots []models.TimetableSlot
	var err error

	switch c.Query("filter") {
	case "free":
		slots, err = h.timetableService.FreeSlots(userID)
	case "busy":
		slots, err = h.timetableService.BusySlots(userID)
	default:
		slots, err = h.timetableService.Get(userID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, slots)
}
