package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ecosort/recyclesort/internal/controller/restapi/v1/response"
	"github.com/ecosort/recyclesort/internal/metrics"
	"github.com/ecosort/recyclesort/internal/usecase/metadata"
	"github.com/ecosort/recyclesort/pkg/types/errs"
)

// @Summary  	Generate presigned URL
// @Description Issues a short-lived scoped URL for one get or put on one object
// @Tags 		images
// @Produce 	json
// @Param 		action 	     query string true  "Action" Enums(get, put)
// @Param 		file_name    query string true  "File name"
// @Param 		content_type query string false "Content type(required for put)"
// @Param 		user_id      query string false "Owner id"
// @Success 	200 {object} response.PresignedURL
// @Failure 	400 {object} response.Error "Invalid action"
// @Failure 	500 {object} response.Error "Storage problems"
// @Router 		/image/generate-presigned-url [get]
func (r *V1) generatePresignedURL(ctx *fiber.Ctx) error {
	action := ctx.Query("action")
	fileName := ctx.Query("file_name")
	contentType := ctx.Query("content_type")

	if fileName == "" {
		return errorResponse(ctx, http.StatusBadRequest, "file_name is required")
	}

	var ownerID *string
	if userID := ctx.Query("user_id"); userID != "" {
		ownerID = &userID
	}

	url, objectName, err := r.md.GeneratePresignedURL(ctx.UserContext(), action, fileName, contentType, ownerID)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return errorResponse(ctx, http.StatusBadRequest, "invalid action")
		}
		r.logger.Error(err, "restapi - v1 - generatePresignedURL")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	metrics.PresignedURLs.WithLabelValues(action).Inc()

	return ctx.JSON(response.PresignedURL{URL: url, ObjectName: objectName})
}

// @Summary  	Upload image
// @Description Validates and stores an image under a generated unique name
// @Tags 		images
// @Accept 		mpfd
// @Produce 	json
// @Param 		image   formData file   true  "Image file(png, jpeg)"
// @Param 		user_id formData string false "Owner id"
// @Success 	200 {object} response.Upload
// @Failure 	400 {object} response.Error "Missing file, oversize or unsupported type"
// @Failure 	500 {object} response.Error "Storage problems"
// @Router 		/image/upload [post]
func (r *V1) upload(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "no file provided")
	}

	// 1. size validation
	if file.Size == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "file is empty")
	}

	if file.Size > metadata.MaxUploadSize {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("maximum file size is %d bytes", metadata.MaxUploadSize))
	}

	// 2. content type validation
	contentType := file.Header.Get("Content-Type")
	if _, ok := metadata.SupportedFileTypes[contentType]; !ok {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type: %s. Supported types are %s", contentType, supportedTypes()))
	}

	var ownerID *string
	if userID := ctx.FormValue("user_id"); userID != "" {
		ownerID = &userID
	}

	// 3. read and hand off
	fileReader, err := file.Open()
	if err != nil {
		r.logger.Error(err, "restapi - v1 - upload")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
	}
	defer fileReader.Close()

	data, err := io.ReadAll(fileReader)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - upload")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with reading the file")
	}

	fileName, err := r.md.Upload(ctx.UserContext(), data, contentType, ownerID)
	if err != nil {
		metrics.Uploads.WithLabelValues("failed").Inc()

		if errors.Is(err, errs.ErrValidation) {
			return errorResponse(ctx, http.StatusBadRequest, err.Error())
		}
		r.logger.Error(err, "restapi - v1 - upload")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	metrics.Uploads.WithLabelValues("ok").Inc()

	return ctx.JSON(response.Upload{FileName: fileName})
}

// @Summary  	Get image metadata
// @Description Point lookup of the newest record for an object key
// @Tags 		metadata
// @Produce 	json
// @Param 		object_key path string true "Object key({owner|general}/{file})"
// @Success 	200 {object} entity.ImageRecord
// @Failure 	404 {object} response.Error "Record not found"
// @Failure 	500 {object} response.Error "Storage problems"
// @Router 		/image/metadata/{object_key} [get]
func (r *V1) getMetadataByObjectKey(ctx *fiber.Ctx) error {
	objectKey := ctx.Params("+")
	if objectKey == "" {
		return errorResponse(ctx, http.StatusBadRequest, "object key is required")
	}

	record, err := r.md.GetByObjectKey(ctx.UserContext(), objectKey)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, fmt.Sprintf("image with object_key %s not found", objectKey))
		}
		r.logger.Error(err, "restapi - v1 - getMetadataByObjectKey")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.JSON(record)
}

// @Summary  	Get metadata by owner
// @Description All records owned by a user; empty list when none
// @Tags 		metadata
// @Produce 	json
// @Param 		owner_id path string true "Owner id"
// @Success 	200 {array} entity.ImageRecord
// @Failure 	500 {object} response.Error "Storage problems"
// @Router 		/image/metadata/user/{owner_id} [get]
func (r *V1) getMetadataByOwner(ctx *fiber.Ctx) error {
	ownerID := ctx.Params("owner_id")
	if ownerID == "" {
		return errorResponse(ctx, http.StatusBadRequest, "owner id is required")
	}

	records, err := r.md.ListByOwner(ctx.UserContext(), ownerID)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - getMetadataByOwner")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	// zero matches is an empty list, not an error
	return ctx.JSON(records)
}

// @Summary  	Get classified metadata
// @Description All records with a recyclability classification present
// @Tags 		metadata
// @Produce 	json
// @Success 	200 {array} entity.ImageRecord
// @Failure 	500 {object} response.Error "Storage problems"
// @Router 		/image/metadata/inference [get]
func (r *V1) getClassifiedMetadata(ctx *fiber.Ctx) error {
	records, err := r.md.ListClassified(ctx.UserContext())
	if err != nil {
		r.logger.Error(err, "restapi - v1 - getClassifiedMetadata")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.JSON(records)
}

// @Summary  	List stored objects
// @Description Object-store listing for a user prefix
// @Tags 		images
// @Produce 	json
// @Param 		user_id path string true "Owner id"
// @Success 	200 {array} response.StoredObject
// @Failure 	500 {object} response.Error "Storage problems"
// @Router 		/image/list/{user_id} [get]
func (r *V1) listStoredObjects(ctx *fiber.Ctx) error {
	userID := ctx.Params("user_id")

	objects, err := r.md.ListStoredObjects(ctx.UserContext(), userID)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - listStoredObjects")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	resp := make([]response.StoredObject, 0, len(objects))
	for _, obj := range objects {
		resp = append(resp, response.StoredObject{
			Key:          obj.Key,
			SizeBytes:    obj.SizeBytes,
			LastModified: obj.LastModified.Format(time.RFC3339),
		})
	}

	return ctx.JSON(resp)
}

func supportedTypes() string {
	types := make([]string, 0, len(metadata.SupportedFileTypes))
	for t := range metadata.SupportedFileTypes {
		types = append(types, t)
	}
	sort.Strings(types)

	return strings.Join(types, ", ")
}
