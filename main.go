package main

import (
	"log"

	"github.com/sathvikreddy369/sign-language/config"
	"github.com/sathvikreddy369/sign-language/db"
	"github.com/sathvikreddy369/sign-language/handlers"
	"github.com/sathvikreddy369/sign-language/inference"
	"github.com/sathvikreddy369/sign-language/routes"
	"github.com/sathvikreddy369/sign-language/services"
)

func main() {
	cfg := config.Load()

	// Initialize database
	database, err := db.NewDB(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		log.Fatal("Failed to retrieve underlying SQL DB:", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("Error closing DB connection: %v", cerr)
		}
	}()

	if err := db.Migrate(database); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Connect to the model server (optional). Without it the API serves
	// fixed "Model not loaded" responses on prediction endpoints.
	var engine inference.Engine
	client, err := inference.NewClient(cfg.ModelServerURL)
	if err != nil {
		log.Printf("Warning: %v", err)
	} else {
		engine = client
	}

	serviceManager := services.NewServiceManager(database, engine, []byte(cfg.JWTSecret))
	handlerManager := handlers.NewHandlerManager(serviceManager)

	r := routes.SetupRoutes(handlerManager, database, cfg)

	log.Printf("ASL Recognition API starting on port %s", cfg.Port)
	log.Fatal(r.Run(":" + cfg.Port))
}
