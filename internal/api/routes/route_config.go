package routes

import (
	"github.com/Lokhmat/ocr-backend/internal/api/handlers"
	"github.com/Lokhmat/ocr-backend/internal/middleware"
	"github.com/Lokhmat/ocr-backend/pkg/apitoken"
	"github.com/Lokhmat/ocr-backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App          *fiber.App
	UserHandler  handlers.UserHandler
	ImageHandler handlers.ImageHandler
	TokenHandler handlers.TokenHandler
	Middleware   middleware.Middleware
	JWTService   jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Auth()
	c.Images()
	c.Tokens()
	c.GuestRoute()
}

func (c *Config) Auth() {
	c.App.Post("/register", c.UserHandler.Register)
	c.App.Post("/login", c.UserHandler.Login)
	c.App.Post("/refresh", c.UserHandler.Refresh)
}

func (c *Config) Images() {
	auth := c.Middleware.AuthMiddleware(c.JWTService)

	c.App.Post("/upload-images", auth, c.ImageHandler.UploadImages)
	c.App.Get("/images/list", auth, c.ImageHandler.ListImages)
	c.App.Post("/images/list", auth, c.ImageHandler.ListImages)
	c.App.Get("/get-image", auth, c.ImageHandler.GetImage)
	c.App.Put("/update-image-json", auth, c.ImageHandler.UpdateImageJSON)
}

func (c *Config) Tokens() {
	c.App.Post("/token", c.Middleware.AuthMiddleware(c.JWTService), c.TokenHandler.CreateToken)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}

// ReadonlyConfig wires the companion reporting service: the same image data
// behind API-token auth, list and fetch only.
type ReadonlyConfig struct {
	App          *fiber.App
	ReadHandler  handlers.ReadHandler
	Middleware   middleware.Middleware
	TokenService apitoken.TokenService
}

func (c *ReadonlyConfig) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())

	api := c.App.Group("/api", c.Middleware.APITokenMiddleware(c.TokenService))
	api.Get("/list", c.ReadHandler.ListImages)
	api.Post("/list", c.ReadHandler.ListImages)
	api.Get("/image", c.ReadHandler.GetImageData)
}
