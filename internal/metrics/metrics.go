// Package metrics measures text in pixels for the in-memory host.
package metrics

import (
	"log"

	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// CellMetrics measures text on a character-cell grid: each display column
// is Cell pixels wide. Wide characters occupy two columns.
type CellMetrics struct {
	Cell int
}

// TextWidth returns the pixel width of s.
func (m CellMetrics) TextWidth(s string) int {
	cell := m.Cell
	if cell <= 0 {
		cell = 1
	}
	return runewidth.StringWidth(s) * cell
}

// FaceMetrics measures text with a proportional font face.
type FaceMetrics struct {
	face font.Face
}

// NewFaceMetrics wraps an existing face.
func NewFaceMetrics(face font.Face) *FaceMetrics {
	return &FaceMetrics{face: face}
}

// NewGoRegular loads the Go Regular font at the given size (72 DPI, so the
// size is in pixels). When the font cannot be parsed the fixed 7x13 face is
// used instead.
func NewGoRegular(size float64) *FaceMetrics {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Printf("metrics: parse goregular: %v", err)
		return &FaceMetrics{face: basicfont.Face7x13}
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("metrics: new face: %v", err)
		return &FaceMetrics{face: basicfont.Face7x13}
	}
	return &FaceMetrics{face: face}
}

// NewFixed returns metrics for the 7x13 bitmap face.
func NewFixed() *FaceMetrics {
	return &FaceMetrics{face: basicfont.Face7x13}
}

// TextWidth returns the rounded advance of s.
func (m *FaceMetrics) TextWidth(s string) int {
	return font.MeasureString(m.face, s).Round()
}
