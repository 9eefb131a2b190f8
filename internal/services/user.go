package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/internal/utils"
	"github.com/parttimestudent/backend/pkg/response"
	"gorm.io/gorm"
)

// CustomIDPrefix prefixes every human-facing student code (TTTP01, TTTP02, ...).
const CustomIDPrefix = "TTTP"

// customIDAttempts bounds the retry loop when concurrent registrations race
// on the same next code.
const customIDAttempts = 3

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	YearLevel string `json:"year_level" binding:"required"`
	Specialty string `json:"specialty" binding:"required"`
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Password  string `json:"password" binding:"required,min=6"`
}

type UpdateUserRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	YearLevel string `json:"year_level" binding:"required"`
	Specialty string `json:"specialty" binding:"required"`
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Password  string `json:"password"`
}

type UserListRequest struct {
	Role      string `form:"role"`
	Specialty string `form:"specialty"`
	Order     string `form:"order"` // asc (default), desc; applies to first name
}

// Register creates a STUDENT account and assigns the next free student code.
// The code scan and the insert run in one transaction; a duplicate-key error
// (two registrations picking the same code) retries with a fresh scan.
func (s *UserService) Register(req *RegisterRequest) (*models.User, error) {
	if !models.ValidSpecialty(req.Specialty) {
		return nil, response.NewBadRequest(fmt.Sprintf("unknown specialty: %s", req.Specialty))
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, response.NewConflict("username already exists")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var user models.User
	for attempt := 0; attempt < customIDAttempts; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			code, err := nextCustomID(tx)
			if err != nil {
				return err
			}
			user = models.User{
				CustomID:  code,
				FirstName: req.FirstName,
				YearLevel: req.YearLevel,
				Specialty: req.Specialty,
				Username:  req.Username,
				Password:  hashed,
				Role:      models.RoleStudent,
				AuthType:  "local",
				IsActive:  true,
			}
			return tx.Create(&user).Error
		})
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	// Either the username raced in behind the pre-check or the code sequence
	// stayed contended through every attempt.
	return nil, response.NewConflict("registration conflict, please retry")
}

// nextCustomID scans all assigned codes (including soft-deleted users, so a
// code is never reassigned) and returns max+1 under the fixed prefix.
func nextCustomID(tx *gorm.DB) (string, error) {
	var codes []string
	if err := tx.Unscoped().Model(&models.User{}).
		Where("custom_id LIKE ?", CustomIDPrefix+"%").
		Pluck("custom_id", &codes).Error; err != nil {
		return "", err
	}

	max := 0
	for _, code := range codes {
		n, err := strconv.Atoi(strings.TrimPrefix(code, CustomIDPrefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	return fmt.Sprintf("%s%02d", CustomIDPrefix, max+1), nil
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// Update replaces the mutable profile fields. Renaming to a username held by
// a different user is rejected. Password changes only when a new one is given.
func (s *UserService) Update(id uint, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !models.ValidSpecialty(req.Specialty) {
		return nil, response.NewBadRequest(fmt.Sprintf("unknown specialty: %s", req.Specialty))
	}

	if req.Username != user.Username {
		var count int64
		if err := s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, response.NewConflict("username already exists")
		}
	}

	user.FirstName = req.FirstName
	user.YearLevel = req.YearLevel
	user.Specialty = req.Specialty
	user.Username = req.Username

	if req.Password != "" {
		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.db.Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("username already exists")
		}
		return nil, err
	}
	return user, nil
}

// Delete removes a user together with all their memberships and timetable
// slots in one transaction.
func (s *UserService) Delete(id uint) error {
	user, err := s.GetByID(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.TimetableSlot{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
}

// SetRole sets a user's role directly. Roles are never auto-demoted elsewhere;
// this is the only way to take a role away.
func (s *UserService) SetRole(id uint, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, response.NewBadRequest(fmt.Sprintf("unknown role: %s", role))
	}

	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// List returns users filtered by role and/or specialty, ordered by first name.
func (s *UserService) List(req *UserListRequest) ([]models.User, error) {
	query := s.db.Model(&models.User{})

	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Specialty != "" {
		query = query.Where("specialty = ?", req.Specialty)
	}

	order := "first_name ASC, id ASC"
	if strings.EqualFold(req.Order, "desc") {
		order = "first_name DESC, id ASC"
	}

	var users []models.User
	if err := query.Order(order).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
