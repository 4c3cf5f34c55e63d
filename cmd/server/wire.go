// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"log"

	"dga_gateway_backend/internal/app"
	"dga_gateway_backend/internal/config"
	"dga_gateway_backend/internal/dga"
	"dga_gateway_backend/internal/egov"
	"dga_gateway_backend/internal/platform/database"
	"dga_gateway_backend/internal/platform/logger"
	"dga_gateway_backend/internal/user"

	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		provideCleanup,

		// eGov provider client
		egov.NewClient,
		wire.Bind(new(dga.ProviderClient), new(*egov.Client)),

		// User store
		user.NewGORMRepository,

		// Orchestration
		dga.NewService,
		wire.Bind(new(dga.Service), new(*dga.ServiceImplementation)),
		dga.NewHandler,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}

func provideCleanup(logger *zap.Logger, db *gorm.DB) func() {
	return func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
}
