package v1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecosort/recyclesort/internal/controller/restapi/v1/response"
	"github.com/ecosort/recyclesort/internal/usecase"
	"github.com/ecosort/recyclesort/pkg/logger"
)

type V1 struct {
	md     usecase.MetadataUseCase
	logger logger.Interface
}

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}
