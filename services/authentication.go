package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sathvikreddy369/sign-language/constants"
	"github.com/sathvikreddy369/sign-language/models"
	"github.com/sathvikreddy369/sign-language/utils"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive or blocked")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthenticationService interface {
	SignUp(ctx context.Context, req *models.SignupRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (string, *models.User, error)
	Me(ctx context.Context, userID uint) (*models.User, error)
}

type authenticationService struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuthenticationService(db *gorm.DB, jwtSecret []byte) AuthenticationService {
	return &authenticationService{db: db, jwtSecret: jwtSecret}
}

// SignUp registers a new account. The very first account on record is
// promoted to admin.
func (s *authenticationService) SignUp(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.Where("email = ?", email).First(&existing).Error; err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		role := constants.RoleUser
		if count == 0 {
			role = constants.RoleAdmin
		}

		now := time.Now().UTC()
		user = &models.User{
			Email:          email,
			PasswordHash:   string(hashedPassword),
			Role:           string(role),
			Active:         true,
			Blocked:        false,
			LastActivityAt: &now,
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authenticationService) Login(ctx context.Context, req *models.LoginRequest) (string, *models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.Active || user.Blocked {
		return "", nil, ErrAccountInactive
	}

	now := time.Now().UTC()
	user.LastActivityAt = &now
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return "", nil, err
	}

	token, err := utils.GenerateJWT(s.jwtSecret, utils.JWTUser{UserID: user.ID, Role: user.Role})
	if err != nil {
		return "", nil, errors.New("failed to generate access token")
	}

	return token, &user, nil
}

func (s *authenticationService) Me(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
