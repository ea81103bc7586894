package data

import (
	"fmt"
	"image"
	_ "image/jpeg" // Essential: Registers JPEG format
	_ "image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// LoadImage converts an image of any size to a grayscale width*height slice
// scaled to [0, 1]. Its signature matches ml.ImageLoader.
func LoadImage(path string, targetW, targetH int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeImage(f, targetW, targetH)
}

// DecodeImage is LoadImage for an already opened stream.
func DecodeImage(r io.Reader, targetW, targetH int) ([]float64, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", targetW, targetH)
	}
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// Resize to 28x28 (or whatever the network expects)
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Rect, src, src.Bounds(), draw.Over, nil)

	out := make([]float64, 0, targetW*targetH)
	bounds := dst.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := dst.At(x, y).RGBA()
			// Standard Grayscale formula
			gray := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			out = append(out, gray/255.0)
		}
	}
	return out, nil
}
