// Package imaging derives downscaled JPEG thumbnails from uploaded images.
// Uploads that do not sniff as a supported image type are simply skipped;
// the original bytes are never modified.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxDimension is the maximum width or height of a thumbnail.
const MaxDimension = 256

// JPEGQuality is the compression quality for thumbnail output.
const JPEGQuality = 85

// supportedMIME lists the sniffed MIME types thumbnails are produced for.
var supportedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// IsImage sniffs the bytes and reports whether a thumbnail can be derived.
// Client-supplied content types are not trusted.
func IsImage(data []byte) bool {
	return supportedMIME[http.DetectContentType(data)]
}

// Thumbnail decodes data, downscales it so neither dimension exceeds
// MaxDimension, and re-encodes as JPEG.
func Thumbnail(data []byte) ([]byte, error) {
	if !IsImage(data) {
		return nil, fmt.Errorf("unsupported image format: %s", http.DetectContentType(data))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale resizes img so neither dimension exceeds maxDim, preserving
// aspect ratio with Catmull-Rom interpolation. Returns the original image
// if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	// jpeg is registered by default, but be explicit about both formats.
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
