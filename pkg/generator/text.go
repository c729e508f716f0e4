// text.go - Caption overlay for generated covers.
// Uses golang.org/x/image/font with the embedded Go Regular font, wraps the
// caption to the image width and centres it near the bottom edge.
package generator

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontOnce   sync.Once
	fontParsed *opentype.Font
	fontErr    error
)

func defaultFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		fontParsed, fontErr = opentype.Parse(goregular.TTF)
	})
	return fontParsed, fontErr
}

// newFace returns a Go Regular face at the given size in pixels.
func newFace(size float64) (font.Face, error) {
	parsed, err := defaultFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// DrawCaption returns a copy of img with text drawn over its lower part.
// The font size follows the image height.
func DrawCaption(img image.Image, text string, col color.RGBA) (*image.RGBA, error) {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	size := max(float64(b.Dy())/12, 8)
	face, err := newFace(size)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	margin := b.Dx() / 20
	lines := wrapText(text, b.Dx()-2*margin, face)
	lineHeight := int(size * 1.3)

	// Bottom-aligned block; the last baseline sits one margin above the edge.
	y := b.Dy() - margin - (len(lines)-1)*lineHeight
	shadow := color.RGBA{0, 0, 0, 160}
	for _, line := range lines {
		w := font.MeasureString(face, line).Ceil()
		x := (b.Dx() - w) / 2
		drawString(dst, line, x+1, y+1, shadow, face)
		drawString(dst, line, x, y, col, face)
		y += lineHeight
	}
	return dst, nil
}

// wrapText breaks a single string of text into multiple lines that each fit
// within maxWidth pixels, using the metrics of the provided font face.
func wrapText(text string, maxWidth int, face font.Face) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	currentLine := words[0]
	for _, word := range words[1:] {
		testLine := currentLine + " " + word
		if font.MeasureString(face, testLine).Ceil() > maxWidth {
			lines = append(lines, currentLine)
			currentLine = word
		} else {
			currentLine = testLine
		}
	}
	return append(lines, currentLine)
}

// drawString draws text with its baseline at (x, y).
func drawString(img draw.Image, text string, x, y int, col color.Color, face font.Face) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}
