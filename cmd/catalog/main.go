package main

import (
	"innkeep/internal/catalog/handler"
	"innkeep/internal/catalog/service"
	invrepo "innkeep/internal/inventory/repository"
	"innkeep/pkg/app"
	"innkeep/pkg/config"
)

const ServiceName = "catalog"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Catalog service")

	catalogService := service.NewCatalogService(
		invrepo.NewMongoRoomTypeRepository(cfg),
		invrepo.NewMongoInstanceRepository(cfg),
		cfg,
	)
	cfg.Log.Info("Catalog service initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewCatalogHandler(catalogService, cfg.Log))
	serverApp.Run()
}
