package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sathvikreddy369/sign-language/config"
	"github.com/sathvikreddy369/sign-language/constants"
	"github.com/sathvikreddy369/sign-language/handlers"
	"github.com/sathvikreddy369/sign-language/middleware"
)

func SetupRoutes(h *handlers.HandlerManager, db *gorm.DB, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	secret := []byte(cfg.JWTSecret)

	r.GET("/health", h.PredictionHandler.Health)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.AuthenticationHandler.SignUp)
			auth.POST("/login", h.AuthenticationHandler.Login)
			auth.GET("/me", middleware.AuthMiddleware(db, secret), h.AuthenticationHandler.Me)
		}

		api.GET("/labels", h.PredictionHandler.Labels)

		// Prediction endpoints accept anonymous callers but attach the
		// identity when a token is present.
		predict := api.Group("")
		predict.Use(middleware.OptionalAuth(db, secret))
		{
			predict.POST("/predict", h.PredictionHandler.Predict)
			predict.POST("/predict-batch", h.PredictionHandler.PredictBatch)
		}

		authed := api.Group("")
		authed.Use(middleware.AuthMiddleware(db, secret))
		{
			authed.GET("/predictions", h.PredictionHandler.ListPredictions)

			admin := authed.Group("")
			admin.Use(middleware.RoleAuthorization(constants.RoleAdmin))
			{
				admin.GET("/users", h.UserHandler.ListUsers)
				admin.PATCH("/users/:id", h.UserHandler.UpdateUser)
				admin.DELETE("/users/:id", h.UserHandler.DeleteUser)
				admin.GET("/stats/summary", h.PredictionHandler.Summary)
			}
		}
	}

	return r
}
