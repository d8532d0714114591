package restapi

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecosort/recyclesort/config"
	v1 "github.com/ecosort/recyclesort/internal/controller/restapi/v1"
	"github.com/ecosort/recyclesort/internal/usecase"
	"github.com/ecosort/recyclesort/pkg/logger"
)

// @title Recyclesort
// @version 1.0.0
// @host localhost:8080
// @BasePath /
func NewRouter(app *fiber.App, cfg *config.Config, md usecase.MetadataUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Health
	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"message": "healthy"})
	})

	// Metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Routers
	imageGroup := app.Group("/image")
	{
		v1.NewImageRoutes(imageGroup, md, l)
	}
}
