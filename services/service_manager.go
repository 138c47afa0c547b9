package services

import (
	"gorm.io/gorm"

	"github.com/sathvikreddy369/sign-language/inference"
)

type ServiceManager struct {
	AuthenticationService AuthenticationService
	UserService           UserService
	PredictionService     PredictionService
}

func NewServiceManager(db *gorm.DB, engine inference.Engine, jwtSecret []byte) *ServiceManager {
	return &ServiceManager{
		AuthenticationService: NewAuthenticationService(db, jwtSecret),
		UserService:           NewUserService(db),
		PredictionService:     NewPredictionService(db, engine),
	}
}
