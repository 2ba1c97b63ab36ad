package config

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/internal/api/handlers"
	"github.com/Lokhmat/ocr-backend/internal/api/routes"
	"github.com/Lokhmat/ocr-backend/internal/middleware"
	"github.com/Lokhmat/ocr-backend/internal/utils"
	"github.com/Lokhmat/ocr-backend/internal/utils/storage"
	"github.com/Lokhmat/ocr-backend/pkg/apitoken"
	"github.com/Lokhmat/ocr-backend/pkg/image"
	"github.com/Lokhmat/ocr-backend/pkg/jwt"
	"github.com/Lokhmat/ocr-backend/pkg/process"
	"github.com/Lokhmat/ocr-backend/pkg/provider"
	"github.com/Lokhmat/ocr-backend/pkg/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

const stuckRecoveryAge = 10 * time.Minute

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		BodyLimit:         50 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()
	if err := s3.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("error ensuring bucket: %v", err)
	}

	// Repository
	userRepository := user.NewUserRepository(db)
	imageRepository := image.NewImageRepository(db)
	tokenRepository := apitoken.NewTokenRepository(db)

	// Extraction providers
	cloudProvider := provider.NewCloudProvider(
		utils.GetConfig("CLOUD_BASE_URL"),
		utils.GetConfig("CLOUD_API_KEY"),
		utils.GetConfig("CLOUD_MODEL"),
		&http.Client{Timeout: 2 * time.Minute},
	)
	premiseTokens := provider.NewTokenCache(
		utils.GetConfig("PREMISE_TOKEN_URL"),
		utils.GetConfig("PREMISE_CLIENT_ID"),
		utils.GetConfig("PREMISE_LOGIN"),
		utils.GetConfig("PREMISE_PASSWORD"),
	)
	premiseProvider := provider.NewPremiseProvider(
		utils.GetConfig("PREMISE_BASE_URL"),
		premiseTokens,
	)
	extractors := map[string]provider.Extractor{
		domain.WorkloadCloud:   cloudProvider,
		domain.WorkloadPremise: premiseProvider,
	}

	processor := process.NewProcessor(
		imageRepository,
		s3,
		extractors,
		utils.GetWorkerCount(),
		utils.GetQueueSize(),
	)
	processor.Start()

	// Service
	jwtService := jwt.NewJWTService()
	userService := user.NewUserService(userRepository, jwtService)
	imageService := image.NewImageService(imageRepository, s3, processor)
	tokenService := apitoken.NewTokenService(tokenRepository)

	if n, err := imageService.RecoverStuck(context.Background(), stuckRecoveryAge); err != nil {
		log.Errorf("error recovering stuck images: %v", err)
	} else if n > 0 {
		log.Infof("requeued %d stuck images", n)
	}

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	imageHandler := handlers.NewImageHandler(imageService, validator)
	tokenHandler := handlers.NewTokenHandler(tokenService, validator)

	// routes
	routesConfig := routes.Config{
		App:          app,
		UserHandler:  userHandler,
		ImageHandler: imageHandler,
		TokenHandler: tokenHandler,
		Middleware:   middlewares,
		JWTService:   jwtService,
	}
	routesConfig.Setup()
	return app, nil
}

// NewReadonlyApp builds the companion reporting service. It shares the
// database with the main app but exposes list and fetch only, behind
// API-token auth.
func NewReadonlyApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/readonly.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     file,
	}))

	s3 := storage.NewAwsS3()

	imageRepository := image.NewImageRepository(db)
	tokenRepository := apitoken.NewTokenRepository(db)

	imageService := image.NewImageService(imageRepository, s3, image.NopDispatcher{})
	tokenService := apitoken.NewTokenService(tokenRepository)

	readHandler := handlers.NewReadHandler(imageService, validator)

	routesConfig := routes.ReadonlyConfig{
		App:          app,
		ReadHandler:  readHandler,
		Middleware:   middlewares,
		TokenService: tokenService,
	}
	routesConfig.Setup()
	return app, nil
}
