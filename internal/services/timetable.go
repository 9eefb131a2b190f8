package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/pkg/logger"
	"github.com/parttimestudent/backend/pkg/response"
	"gorm.io/gorm"
)

const clockLayout = "15:04"

type TimetableService struct {
	db          *gorm.DB
	extractor   TimetableExtractor
	userService *UserService
}

func NewTimetableService(db *gorm.DB, extractor TimetableExtractor) *TimetableService {
	return &TimetableService{
		db:          db,
		extractor:   extractor,
		userService: NewUserService(db),
	}
}

// Replace runs the image through the extractor and swaps the user's entire
// slot set for the result in one transaction. An extraction failure is
// absorbed into an empty slot list ("no schedule known") rather than failing
// the upload; a slot with unparsable times fails the whole operation. The
// extractor is called before any lock or transaction is taken.
func (s *TimetableService) Replace(ctx context.Context, userID uint, image []byte, mimeType string) ([]models.TimetableSlot, error) {
	user, err := s.userService.GetByID(userID)
	if err != nil {
		return nil, err
	}

	extracted, err := s.extractor.Extract(ctx, image, mimeType)
	if err != nil {
		logger.Warnf("[Timetable] extraction failed for user %s: %v", user.CustomID, err)
		LogWarning("timetable", "extract", fmt.Sprintf("extraction failed: %v", err), &user.ID, "", "", nil)
		extracted = nil
	}

	slots := make([]models.TimetableSlot, 0, len(extracted))
	for _, e := range extracted {
		start, err := parseClock(e.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(e.EndTime)
		if err != nil {
			return nil, err
		}
		slots = append(slots, models.TimetableSlot{
			UserID:    userID,
			DayOfWeek: e.DayOfWeek,
			StartTime: start,
			EndTime:   end,
			Subject:   e.Subject,
			IsFree:    e.IsFree,
		})
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.TimetableSlot{}).Error; err != nil {
			return err
		}
		if len(slots) == 0 {
			return nil
		}
		return tx.Create(&slots).Error
	}); err != nil {
		return nil, err
	}

	LogInfo("timetable", "replace", fmt.Sprintf("stored %d slots", len(slots)), &user.ID, "", "", nil)
	return slots, nil
}

// parseClock validates HH:mm text and returns it normalized.
func parseClock(s string) (string, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", response.NewBadRequest(fmt.Sprintf("invalid time %q, expected HH:mm", s))
	}
	return t.Format(clockLayout), nil
}

// Get returns the user's full slot list in storage order.
func (s *TimetableService) Get(userID uint) ([]models.TimetableSlot, error) {
	if _, err := s.userService.GetByID(userID); err != nil {
		return nil, err
	}

	var slots []models.TimetableSlot
	if err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// FreeSlots returns only the slots tagged free.
func (s *TimetableService) FreeSlots(userID uint) ([]models.TimetableSlot, error) {
	return s.slotsByFree(userID, true)
}

// BusySlots returns only the occupied slots.
func (s *TimetableService) BusySlots(userID uint) ([]models.TimetableSlot, error) {
	return s.slotsByFree(userID, false)
}

func (s *TimetableService) slotsByFree(userID uint, isFree bool) ([]models.TimetableSlot, error) {
	if _, err := s.userService.GetByID(userID); err != nil {
		return nil, err
	}

	var slots []models.TimetableSlot
	if err := s.db.Where("user_id = ? AND is_free = ?", userID, isFree).Order("id ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}
