package handlers

import (
	"github.com/sathvikreddy369/sign-language/services"
)

type HandlerManager struct {
	AuthenticationHandler *AuthenticationHandler
	UserHandler           *UserHandler
	PredictionHandler     *PredictionHandler
}

func NewHandlerManager(sm *services.ServiceManager) *HandlerManager {
	return &HandlerManager{
		AuthenticationHandler: NewAuthenticationHandler(sm.AuthenticationService),
		UserHandler:           NewUserHandler(sm.UserService),
		PredictionHandler:     NewPredictionHandler(sm.PredictionService),
	}
}
