package main

import (
	"github.com/joho/godotenv"

	cartshandler "fairway/internal/carts/handler"
	cartsrepository "fairway/internal/carts/repository"
	cartsservice "fairway/internal/carts/service"
	"fairway/internal/rentals/handler"
	"fairway/internal/rentals/notifier"
	"fairway/internal/rentals/repository"
	"fairway/internal/rentals/service"
	"fairway/internal/rentals/validator"
	"fairway/pkg/app"
	"fairway/pkg/config"
	"fairway/pkg/contracts"
)

const ServiceName = "rentals"

func main() {
	// Local development convenience; in deployment the env is real.
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Rentals service")

	rentalService, cartService, rentalNotifier := initServices(cfg)
	defer func() {
		if err := rentalNotifier.Close(); err != nil {
			cfg.Log.Warn("Failed to close rental notifier", "error", err)
		}
	}()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		contracts.Handlers{
			handler.NewRentalHandler(rentalService, cfg.Log),
			cartshandler.NewCartHandler(cartService, cfg.Log),
		},
		cartshandler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.RentalService, cartsservice.CartService, *notifier.KafkaNotifier) {
	rentalRepo := repository.NewMongoRentalRepository(cfg)
	lockRepo := repository.NewMongoRentalLockRepository(cfg)
	cartRepo := cartsrepository.NewMongoCartRepository(cfg)

	rentalNotifier, err := notifier.NewKafkaNotifier(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize rental notifier", "error", err)
	}

	rentalValidator := validator.NewRentalValidator(cfg.SlotPolicy(), cfg.MaxAdvanceDays, cfg.Log)
	rentalService := service.NewRentalService(
		rentalRepo,
		lockRepo,
		cartRepo,
		rentalValidator,
		rentalNotifier,
		cfg,
	)
	cartService := cartsservice.NewCartService(cartRepo, rentalRepo, cfg)

	cfg.Log.Info("Rental service initialized", "database", cfg.MongoDatabaseName)
	return rentalService, cartService, rentalNotifier
}
