package v1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecosort/recyclesort/internal/usecase"
	"github.com/ecosort/recyclesort/pkg/logger"
)

func NewImageRoutes(imageGroup fiber.Router, md usecase.MetadataUseCase, l logger.Interface) {
	r := &V1{md: md, logger: l}

	{
		imageGroup.Get("/generate-presigned-url", r.generatePresignedURL)
		imageGroup.Post("/upload", r.upload)
		imageGroup.Get("/list/:user_id", r.listStoredObjects)

		// specific metadata routes before the object-key wildcard: object
		// keys contain slashes
		imageGroup.Get("/metadata/inference", r.getClassifiedMetadata)
		imageGroup.Get("/metadata/user/:owner_id", r.getMetadataByOwner)
		imageGroup.Get("/metadata/+", r.getMetadataByObjectKey)
	}
}
