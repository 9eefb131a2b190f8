package services

import (
	"errors"
	"time"

	"github.com/parttimestudent/backend/internal/config"
	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/internal/utils"
	"github.com/parttimestudent/backend/pkg/response"
	"gorm.io/gorm"
)

type AuthService struct {
	db          *gorm.DB
	userService *UserService
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, ldapCfg *config.LDAPConfig) *AuthService {
	return &AuthService{
		db:          db,
		userService: NewUserService(db),
		ldapService: NewLDAPService(ldapCfg),
		jwtConfig:   jwtCfg,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	AuthType string `json:"auth_type"` // local (default), ldap
}

// AuthResult carries the issued token together with the authenticated user.
type AuthResult struct {
	Token    string       `json:"token"`
	ExpireAt time.Time    `json:"expire_at"`
	User     *models.User `json:"user"`
}

// Register creates a STUDENT account and logs it straight in.
func (s *AuthService) Register(req *RegisterRequest) (*AuthResult, error) {
	user, err := s.userService.Register(req)
	if err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

// Login authenticates a user and returns a JWT.
func (s *AuthService) Login(req *LoginRequest) (*AuthResult, error) {
	var user *models.User
	var err error

	if req.AuthType == "" {
		req.AuthType = "local"
	}

	switch req.AuthType {
	case "local":
		user, err = s.localAuth(req.Username, req.Password)
	case "ldap":
		user, err = s.ldapAuth(req.Username, req.Password)
	default:
		return nil, response.NewBadRequest("invalid auth type")
	}
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

func (s *AuthService) issueToken(user *models.User) (*AuthResult, error) {
	hours := s.jwtConfig.ExpireHour
	if hours <= 0 {
		hours = 24
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, hours)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Token:    token,
		ExpireAt: time.Now().Add(time.Duration(hours) * time.Hour),
		User:     user,
	}, nil
}

func (s *AuthService) localAuth(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ? AND auth_type = ?", username, "local").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("invalid username or password")
		}
		return nil, err
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, response.NewUnauthorized("invalid username or password")
	}
	if !user.IsActive {
		return nil, response.NewForbidden("user account is inactive")
	}

	return &user, nil
}

// ldapAuth authenticates against the campus directory and creates a STUDENT
// account on first login. Directory accounts get a student code through the
// same sequence as local registration.
func (s *AuthService) ldapAuth(username, password string) (*models.User, error) {
	ldapUser, err := s.ldapService.Authenticate(username, password)
	if err != nil {
		return nil, response.NewUnauthorized("invalid username or password")
	}

	var user models.User
	err = s.db.Where("username = ? AND auth_type = ?", ldapUser.Username, "ldap").First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		for attempt := 0; attempt < customIDAttempts; attempt++ {
			err = s.db.Transaction(func(tx *gorm.DB) error {
				code, err := nextCustomID(tx)
				if err != nil {
					return err
				}
				user = models.User{
					CustomID:  code,
					FirstName: ldapUser.DisplayName,
					Username:  ldapUser.Username,
					Role:      models.RoleStudent,
					AuthType:  "ldap",
					IsActive:  true,
				}
				return tx.Create(&user).Error
			})
			if err == nil {
				break
			}
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, err
			}
		}
		if err != nil {
			return nil, response.NewConflict("registration conflict, please retry")
		}
	} else if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, response.NewForbidden("user account is inactive")
	}

	return &user, nil
}

// IsLDAPEnabled reports whether directory login is configured.
func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService.IsEnabled()
}

// SeedAdmin creates a default ADMIN account when none exists yet. The admin
// also takes a code from the shared sequence.
func (s *AuthService) SeedAdmin(username, password string) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < customIDAttempts; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			code, err := nextCustomID(tx)
			if err != nil {
				return err
			}
			admin := models.User{
				CustomID:  code,
				FirstName: "Administrator",
				Username:  username,
				Password:  hashed,
				Role:      models.RoleAdmin,
				AuthType:  "local",
				IsActive:  true,
			}
			return tx.Create(&admin).Error
		})
		if err == nil {
			return nil
		}
		// A registration landing during first boot can take the scanned code.
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword verifies the current password and stores a new hash. LDAP
// accounts have no local password to change.
func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	user, err := s.userService.GetByID(userID)
	if err != nil {
		return err
	}
	if user.AuthType != "local" {
		return response.NewBadRequest("password is managed by the campus directory")
	}
	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewUnauthorized("old password is incorrect")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.db.Model(&models.User{}).Where("id = ?", userID).Update("password", hashed).Error
}
