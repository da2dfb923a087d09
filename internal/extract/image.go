package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"github.com/nfnt/resize"
)

// normalizeJPEG decodes data (JPEG or PNG), downscales to maxWidth when
// wider (preserving aspect ratio), and re-encodes as JPEG. Vision models
// gain nothing from multi-megapixel scans; smaller payloads cut both
// transfer and inference time.
func normalizeJPEG(data []byte, maxWidth, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()

	if maxWidth > 0 && width > maxWidth {
		ratio := float64(bounds.Dy()) / float64(width)
		height := uint(float64(maxWidth) * ratio)
		img = resize.Resize(uint(maxWidth), height, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
