package services

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pcprompts/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 1x1 transparent PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(10<<20))
	return req.MultipartForm.File["file"][0]
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, zap.NewNop())

	path, err := svc.SaveImage(fileHeader(t, "avatar.bin", pngPixel), UploadAvatars, 1<<20)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/uploads/avatars/"))
	assert.True(t, strings.HasSuffix(path, ".png"))

	disk := filepath.Join(dir, "avatars", filepath.Base(path))
	_, err = os.Stat(disk)
	require.NoError(t, err)

	svc.Remove(path)
	_, err = os.Stat(disk)
	assert.True(t, os.IsNotExist(err))
}

func TestSaveImageRejects(t *testing.T) {
	svc := NewUploadService(t.TempDir(), zap.NewNop())

	_, err := svc.SaveImage(fileHeader(t, "x.png", []byte("not really an image")), UploadIcons, 1<<20)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, 400, e.Status())

	_, err = svc.SaveImage(fileHeader(t, "big.png", pngPixel), UploadIcons, 10)
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, 413, e.Status())
}

func TestRemoveIgnoresForeignPaths(t *testing.T) {
	svc := NewUploadService(t.TempDir(), zap.NewNop())
	svc.Remove("")
	svc.Remove("https://lh3.googleusercontent.com/a/x")
	svc.Remove("/uploads/../etc/passwd")
}
