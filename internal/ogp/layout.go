package ogp

import (
	"fmt"
	"image/color"
	"strings"
)

// Card geometry in SVG user units (one unit = one output pixel).
const (
	Width  = 1260
	Height = 630

	// MaxLineChars is the wrap width of the title, counted in characters.
	MaxLineChars = 14

	lineHeight   = 90
	titleAnchorY = 315
	titleSize    = 72
	captionY     = 560
	captionSize  = 32
	panelInset   = 20
	panelRadius  = 16
)

var (
	backgroundColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	panelColor      = color.RGBA{R: 0xf6, G: 0xf8, B: 0xfa, A: 0xff}
	titleColor      = color.RGBA{R: 0x1f, G: 0x23, B: 0x28, A: 0xff}
	captionColor    = color.RGBA{R: 0x65, G: 0x6d, B: 0x76, A: 0xff}
)

// WrapTitle splits title into lines of at most MaxLineChars characters.
// Wrapping is by character count only; words are not kept together.
func WrapTitle(title string) []string {
	var (
		lines   []string
		current []rune
	)
	for _, r := range title {
		current = append(current, r)
		if len(current) >= MaxLineChars {
			lines = append(lines, string(current))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML replaces the XML-significant characters of s with entities.
func EscapeXML(s string) string {
	return xmlReplacer.Replace(s)
}

// textSpan is one horizontally centered line of text on the card.
type textSpan struct {
	Text  string
	Color color.RGBA
	X     int
	Y     int // baseline
	Size  int
	Bold  bool
}

// card is the resolved layout of an OGP image.
type card struct {
	spans []textSpan
}

func newCard(title, caption string) card {
	lines := WrapTitle(title)
	top := titleAnchorY - (len(lines)-1)*lineHeight/2

	spans := make([]textSpan, 0, len(lines)+1)
	for i, line := range lines {
		spans = append(spans, textSpan{
			Text:  line,
			Color: titleColor,
			X:     Width / 2,
			Y:     top + i*lineHeight,
			Size:  titleSize,
			Bold:  true,
		})
	}
	if caption != "" {
		spans = append(spans, textSpan{
			Text:  caption,
			Color: captionColor,
			X:     Width / 2,
			Y:     captionY,
			Size:  captionSize,
		})
	}
	return card{spans: spans}
}

// shapes returns the SVG markup without any text elements.
func (c card) shapes() string {
	return c.markup(false)
}

// svg returns the complete SVG document including text elements.
func (c card) svg() string {
	return c.markup(true)
}

func (c card) markup(withText bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`+"\n", Width, Height, Width, Height)
	fmt.Fprintf(&b, `  <rect width="%d" height="%d" fill="%s"/>`+"\n", Width, Height, hexColor(backgroundColor))
	fmt.Fprintf(&b, `  <rect x="%d" y="%d" width="%d" height="%d" fill="%s" rx="%d"/>`+"\n",
		panelInset, panelInset, Width-2*panelInset, Height-2*panelInset, hexColor(panelColor), panelRadius)
	if withText {
		for _, span := range c.spans {
			weight := ""
			if span.Bold {
				weight = ` font-weight="bold"`
			}
			fmt.Fprintf(&b, `  <text x="%d" y="%d" text-anchor="middle" font-size="%d"%s fill="%s">%s</text>`+"\n",
				span.X, span.Y, span.Size, weight, hexColor(span.Color), EscapeXML(span.Text))
		}
	}
	b.WriteString("</svg>")
	return b.String()
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
