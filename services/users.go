package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sathvikreddy369/sign-language/models"
)

type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uint, req *models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id uint) error
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *userService) Update(ctx context.Context, id uint, req *models.UpdateUserRequest) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.Blocked != nil {
		user.Blocked = *req.Blocked
	}
	if req.Role != nil {
		user.Role = *req.Role
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user together with their prediction logs.
func (s *userService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.PredictionLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}
