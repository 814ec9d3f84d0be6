package upload

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	cfg := testutil.Config().Storage
	cfg.LocalPath = t.TempDir()
	return NewService(testutil.NewDB(t, &UploadedFile{}), cfg, logger.Discard())
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestSaveImage(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	file, err := svc.SaveImage(ctx, fileHeader(t, "Me.PNG", pngBytes(t, 4, 3)), CategoryProfilePictures, 7)
	require.NoError(t, err)
	assert.Equal(t, "image/png", file.MimeType)
	assert.Equal(t, "4x3", file.GetDimensions())
	assert.True(t, file.IsImage())
	assert.Equal(t, ".png", filepath.Ext(file.Filename))
	assert.Equal(t, "/media/profile_pictures/"+file.Filename, file.URL)

	_, err = os.Stat(filepath.Join(svc.config.LocalPath, CategoryProfilePictures, file.Filename))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByURL(ctx, file.URL))
	_, err = os.Stat(filepath.Join(svc.config.LocalPath, CategoryProfilePictures, file.Filename))
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, svc.DeleteByURL(ctx, file.URL))
}

func TestSaveImageRejects(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.SaveImage(ctx, fileHeader(t, "notes.txt", []byte("hello")), CategoryProducts, 1)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = svc.SaveImage(ctx, fileHeader(t, "fake.png", []byte("plain text, not an image")), CategoryProducts, 1)
	assert.True(t, pkgerrors.IsValidation(err))

	svc.config.MaxSize = 10
	_, err = svc.SaveImage(ctx, fileHeader(t, "big.png", pngBytes(t, 8, 8)), CategoryProducts, 1)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = svc.SaveImage(ctx, nil, CategoryProducts, 1)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestFormattedSize(t *testing.T) {
	assert.Equal(t, "512 B", (&UploadedFile{Size: 512}).GetFormattedSize())
	assert.Equal(t, "1.5 KB", (&UploadedFile{Size: 1536}).GetFormattedSize())
}
