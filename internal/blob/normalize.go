package blob

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// ErrNotImage is returned by Normalize for data that no registered decoder accepts.
var ErrNotImage = errors.New("not a supported image")

// Normalize checks that data is an image and bounds its longest edge.
// Images within maxEdge are returned unchanged with their own extension;
// larger ones are downsized and re-encoded as JPEG.
func Normalize(data []byte, maxEdge uint, quality int) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}

	if uint(cfg.Width) <= maxEdge && uint(cfg.Height) <= maxEdge {
		return data, ext, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	thumb := resize.Thumbnail(maxEdge, maxEdge, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), "jpg", nil
}
