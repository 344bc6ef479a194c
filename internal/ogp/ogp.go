// Package ogp renders Open Graph preview images: a title card laid out as SVG
// and rasterized to PNG.
package ogp

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Options configure the generator.
type Options struct {
	// Caption is the footer text drawn under the title.
	Caption string
	// FontFile optionally points at a TrueType/OpenType font used for all text,
	// e.g. a CJK font for titles outside the Latin range. Empty selects the Go fonts.
	FontFile string
}

// Generator renders title cards. It is safe for concurrent use.
type Generator struct {
	mu          sync.Mutex
	titleFont   *opentype.Font
	titleFace   font.Face
	captionFace font.Face
	caption     string
}

// New loads fonts and returns a generator.
func New(opts Options) (*Generator, error) {
	titleFont, captionFont, err := loadFonts(opts.FontFile)
	if err != nil {
		return nil, err
	}
	titleFace, err := newFace(titleFont, titleSize)
	if err != nil {
		return nil, err
	}
	captionFace, err := newFace(captionFont, captionSize)
	if err != nil {
		return nil, err
	}
	return &Generator{
		titleFont:   titleFont,
		titleFace:   titleFace,
		captionFace: captionFace,
		caption:     opts.Caption,
	}, nil
}

func loadFonts(path string) (*opentype.Font, *opentype.Font, error) {
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path) //nolint:gosec // font path comes from local configuration
		if err != nil {
			return nil, nil, fmt.Errorf("read font: %w", err)
		}
		f, err := opentype.Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("parse font %s: %w", path, err)
		}
		return f, f, nil
	}

	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, nil, fmt.Errorf("parse regular font: %w", err)
	}
	return bold, regular, nil
}

// SVG returns the vector markup of the card for title.
func (g *Generator) SVG(title string) string {
	return newCard(title, g.caption).svg()
}

// Render returns the card for title as PNG bytes.
func (g *Generator) Render(title string) ([]byte, error) {
	c := newCard(title, g.caption)
	canvas, err := rasterize(c.shapes(), Width, Height)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	for _, span := range c.spans {
		face := g.captionFace
		if span.Bold {
			face = g.titleFace
		}
		drawCentered(canvas, face, span.Color, span.Text, span.X, span.Y)
	}
	g.mu.Unlock()

	return encodePNG(canvas)
}

// Generate renders the card for title and writes it to outputPath.
func (g *Generator) Generate(title, outputPath string) error {
	data, err := g.Render(title)
	if err != nil {
		return fmt.Errorf("render ogp image: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil { //nolint:gosec // standard directory permissions
		return fmt.Errorf("ensure ogp directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil { //nolint:gosec // standard file permissions
		return fmt.Errorf("write ogp image: %w", err)
	}
	return nil
}

// Favicon renders a square icon of the given size: a dark rounded tile with
// the first character of initial in white.
func (g *Generator) Favicon(initial string, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid favicon size: %d", size)
	}
	svg := fmt.Sprintf(`<svg width="64" height="64" viewBox="0 0 64 64" xmlns="http://www.w3.org/2000/svg"><rect width="64" height="64" rx="12" fill="%s"/></svg>`, hexColor(titleColor))
	canvas, err := rasterize(svg, size, size)
	if err != nil {
		return nil, err
	}

	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(initial))
	if r != utf8.RuneError {
		face, err := newFace(g.titleFont, float64(size)*0.6)
		if err != nil {
			return nil, err
		}
		defer func() { _ = face.Close() }()
		capHeight := face.Metrics().CapHeight
		if capHeight <= 0 {
			capHeight = face.Metrics().Ascent * 7 / 10
		}
		baseline := (fixed.I(size) + capHeight) / 2
		drawCentered(canvas, face, color.White, string(r), size/2, baseline.Round())
	}
	return encodePNG(canvas)
}
