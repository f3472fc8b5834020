package overlay

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"pdf-suite-server/internal/domain"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// normalizeImage returns image bytes gofpdf can embed together with their
// gofpdf type. JPEG passes through untouched; every other decodable format
// is re-encoded as 8-bit PNG.
func normalizeImage(data []byte) ([]byte, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrUnsupportedImage, err)
	}
	if format == "jpeg" {
		return data, "JPG", nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrUnsupportedImage, err)
	}
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, "", fmt.Errorf("failed to re-encode %s image: %w", format, err)
	}
	return buf.Bytes(), "PNG", nil
}
