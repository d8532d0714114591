package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosort/recyclesort/internal/entity"
	"github.com/ecosort/recyclesort/internal/repo"
	"github.com/ecosort/recyclesort/internal/usecase/metadata"
	"github.com/ecosort/recyclesort/pkg/types/errs"
)

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

type fakeMetadata struct {
	record  *entity.ImageRecord
	records []*entity.ImageRecord
	objects []repo.ObjectInfo
	err     error

	requestedKey   string
	requestedOwner string

	uploadedData        []byte
	uploadedContentType string
	uploadedOwner       *string

	presignAction string
}

func (f *fakeMetadata) GetByObjectKey(_ context.Context, objectKey string) (*entity.ImageRecord, error) {
	f.requestedKey = objectKey
	return f.record, f.err
}

func (f *fakeMetadata) ListByOwner(_ context.Context, ownerID string) ([]*entity.ImageRecord, error) {
	f.requestedOwner = ownerID
	return f.records, f.err
}

func (f *fakeMetadata) ListClassified(context.Context) ([]*entity.ImageRecord, error) {
	return f.records, f.err
}

func (f *fakeMetadata) ListStoredObjects(_ context.Context, ownerID string) ([]repo.ObjectInfo, error) {
	f.requestedOwner = ownerID
	return f.objects, f.err
}

func (f *fakeMetadata) GeneratePresignedURL(_ context.Context, action, fileName, _ string, ownerID *string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.presignAction = action
	return "https://storage.local/signed", metadata.ObjectName(fileName, ownerID), nil
}

func (f *fakeMetadata) Upload(_ context.Context, data []byte, contentType string, ownerID *string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploadedData = data
	f.uploadedContentType = contentType
	f.uploadedOwner = ownerID
	return "generated.png", nil
}

func newTestApp(md *fakeMetadata) *fiber.App {
	app := fiber.New()
	NewImageRoutes(app.Group("/image"), md, nopLogger{})
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	return resp, body
}

func TestGetMetadataByObjectKey_KeyWithSlashRoutes(t *testing.T) {
	md := &fakeMetadata{record: &entity.ImageRecord{
		ObjectKey: "u1/photo.png",
		FileName:  "photo.png",
	}}
	app := newTestApp(md)

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/image/metadata/u1/photo.png", nil))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u1/photo.png", md.requestedKey, "object keys contain slashes and must reach the handler whole")

	var record entity.ImageRecord
	require.NoError(t, json.Unmarshal(body, &record))
	assert.Equal(t, "photo.png", record.FileName)
}

func TestGetMetadataByObjectKey_NotFound(t *testing.T) {
	md := &fakeMetadata{err: errs.ErrRecordNotFound}
	app := newTestApp(md)

	resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/image/metadata/u1/missing.png", nil))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetMetadataByOwner_EmptyListIsSuccess(t *testing.T) {
	md := &fakeMetadata{records: []*entity.ImageRecord{}}
	app := newTestApp(md)

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/image/metadata/user/u42", nil))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u42", md.requestedOwner)
	assert.JSONEq(t, "[]", string(body))
}

func TestGetClassifiedMetadata_NotCapturedByWildcard(t *testing.T) {
	md := &fakeMetadata{records: []*entity.ImageRecord{
		{ObjectKey: "u1/a.png", Classification: &entity.PairwiseRule{ItemType: "bottle", MaterialType: "plastic"}},
	}}
	app := newTestApp(md)

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/image/metadata/inference", nil))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, md.requestedKey, "must hit the classified route, not the object-key wildcard")

	var records []entity.ImageRecord
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].Classification)
}

func TestGeneratePresignedURL(t *testing.T) {
	md := &fakeMetadata{}
	app := newTestApp(md)

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet,
		"/image/generate-presigned-url?action=get&file_name=photo.png&user_id=u1", nil))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, metadata.ActionGet, md.presignAction)

	var presigned struct {
		URL        string `json:"url"`
		ObjectName string `json:"objectName"`
	}
	require.NoError(t, json.Unmarshal(body, &presigned))
	assert.Equal(t, "https://storage.local/signed", presigned.URL)
	assert.Equal(t, "u1/photo.png", presigned.ObjectName)
}

func TestGeneratePresignedURL_InvalidAction(t *testing.T) {
	md := &fakeMetadata{err: fmt.Errorf("unknown action: %w", errs.ErrValidation)}
	app := newTestApp(md)

	resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet,
		"/image/generate-presigned-url?action=delete&file_name=photo.png", nil))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func multipartUpload(t *testing.T, contentType string, size int, userID string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if userID != "" {
		require.NoError(t, w.WriteField("user_id", userID))
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)

	_, err = part.Write(bytes.Repeat([]byte{0xFF}, size))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/image/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return req
}

func TestUpload(t *testing.T) {
	md := &fakeMetadata{}
	app := newTestApp(md)

	resp, body := doRequest(t, app, multipartUpload(t, "image/png", 128, "u1"))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, md.uploadedData, 128)
	assert.Equal(t, "image/png", md.uploadedContentType)
	require.NotNil(t, md.uploadedOwner)
	assert.Equal(t, "u1", *md.uploadedOwner)

	var uploaded struct {
		FileName string `json:"file_name"`
	}
	require.NoError(t, json.Unmarshal(body, &uploaded))
	assert.Equal(t, "generated.png", uploaded.FileName)
}

func TestUpload_NoOwnerIsAnonymous(t *testing.T) {
	md := &fakeMetadata{}
	app := newTestApp(md)

	resp, _ := doRequest(t, app, multipartUpload(t, "image/jpeg", 64, ""))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, md.uploadedOwner)
}

func TestUpload_OversizeRejectedBeforeUseCase(t *testing.T) {
	md := &fakeMetadata{}
	app := newTestApp(md)

	resp, body := doRequest(t, app, multipartUpload(t, "image/png", int(metadata.MaxUploadSize)+1, "u1"))

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "3145728")
	assert.Nil(t, md.uploadedData, "oversize files must be rejected before any storage write")
}

func TestUpload_UnsupportedTypeRejected(t *testing.T) {
	md := &fakeMetadata{}
	app := newTestApp(md)

	resp, body := doRequest(t, app, multipartUpload(t, "image/gif", 64, "u1"))

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "image/gif")
	assert.Contains(t, string(body), "image/png")
	assert.Contains(t, string(body), "image/jpeg")
}

func TestListStoredObjects(t *testing.T) {
	modified := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	md := &fakeMetadata{objects: []repo.ObjectInfo{
		{Key: "u1/photo.png", SizeBytes: 2048, LastModified: modified},
	}}
	app := newTestApp(md)

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/image/list/u1", nil))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u1", md.requestedOwner)

	var objects []struct {
		Key          string `json:"key"`
		SizeBytes    int64  `json:"size_bytes"`
		LastModified string `json:"last_modified"`
	}
	require.NoError(t, json.Unmarshal(body, &objects))
	require.Len(t, objects, 1)
	assert.Equal(t, "u1/photo.png", objects[0].Key)
	assert.Equal(t, int64(2048), objects[0].SizeBytes)
	assert.Equal(t, "2025-06-14T12:00:00Z", objects[0].LastModified)
}
