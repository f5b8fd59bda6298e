package blob

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eatlog/internal/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newFS(t *testing.T, baseURL string) *FS {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "photos"), baseURL)
	require.NoError(t, err)
	return s
}

func TestFS_UploadDownloadDelete(t *testing.T) {
	s := newFS(t, "")
	ctx := context.Background()
	p := ObjectPath(uuid.New(), uuid.New(), uuid.New(), ".JPG")

	require.NoError(t, s.Upload(ctx, p, []byte("hello")))
	assert.ErrorIs(t, s.Upload(ctx, p, []byte("again")), model.ErrAlreadyExists)

	got, err := s.Download(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	full, err := s.resolve(p)
	require.NoError(t, err)
	assert.FileExists(t, full)

	require.NoError(t, s.Delete(ctx, p))
	require.NoError(t, s.Delete(ctx, p), "deleting a missing object succeeds")

	_, err = s.Download(ctx, p)
	assert.ErrorIs(t, err, model.ErrNotFound)

	entries, err := os.ReadDir(s.root)
	require.NoError(t, err)
	assert.Empty(t, entries, "empty object directories are pruned")
}

func TestFS_RejectsBadPaths(t *testing.T) {
	s := newFS(t, "")
	ctx := context.Background()

	for _, p := range []string{"", "/etc/passwd", "../escape.jpg", "a/../../b.jpg", "./a.jpg", `a\b.jpg`, ".."} {
		assert.ErrorIs(t, s.Upload(ctx, p, []byte("x")), ErrInvalidPath, "path %q", p)
		_, err := s.Download(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", p)
	}
}

func TestFS_CanceledContext(t *testing.T) {
	s := newFS(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Upload(ctx, "a/b.jpg", []byte("x")), context.Canceled)
}

func TestFS_PublicURL(t *testing.T) {
	withBase := newFS(t, "https://cdn.example.com/photos/")
	assert.Equal(t, "https://cdn.example.com/photos/u/e/p.jpg", withBase.PublicURL("u/e/p.jpg"))

	local := newFS(t, "")
	u := local.PublicURL("u/e/p.jpg")
	assert.True(t, strings.HasPrefix(u, "file://"))
	assert.True(t, strings.HasSuffix(u, "/photos/u/e/p.jpg"))
}

func TestObjectPath(t *testing.T) {
	owner, exp, photo := uuid.New(), uuid.New(), uuid.New()
	p := ObjectPath(owner, exp, photo, "")
	assert.Equal(t, owner.String()+"/"+exp.String()+"/"+photo.String()+".jpg", p)
	assert.NoError(t, ValidatePath(p))
}

func TestNormalize(t *testing.T) {
	small := pngBytes(t, 40, 20)
	out, ext, err := Normalize(small, 64, 80)
	require.NoError(t, err)
	assert.Equal(t, "png", ext)
	assert.Equal(t, small, out)

	large := pngBytes(t, 200, 100)
	out, ext, err = Normalize(large, 64, 80)
	require.NoError(t, err)
	assert.Equal(t, "jpg", ext)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())

	_, _, err = Normalize([]byte("definitely not an image"), 64, 80)
	assert.ErrorIs(t, err, ErrNotImage)
}
