package certificate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// unicodeFamily names the embedded Go fonts used for text the cp1252 core fonts cannot encode.
const unicodeFamily = "gounicode"

// ErrUnsupportedText reports text that neither the core fonts nor the embedded Unicode font can draw.
var ErrUnsupportedText = errors.New("text contains characters the certificate fonts cannot render")

var (
	unicodeFaceOnce sync.Once
	unicodeFace     *sfnt.Font
	unicodeFaceErr  error
)

func loadUnicodeFace() (*sfnt.Font, error) {
	unicodeFaceOnce.Do(func() {
		unicodeFace, unicodeFaceErr = sfnt.Parse(goregular.TTF)
	})
	return unicodeFace, unicodeFaceErr
}

// typesetter picks a font per string: the requested core font when the text is cp1252,
// otherwise the embedded Go font at the same size.
type typesetter struct {
	pdf           *fpdf.Fpdf
	translate     func(string) string
	unicodeLoaded bool
}

func newTypesetter(pdf *fpdf.Fpdf) *typesetter {
	return &typesetter{pdf: pdf, translate: pdf.UnicodeTranslatorFromDescriptor("")}
}

// prepare returns the font to select and the text encoded for it.
func (t *typesetter) prepare(text string, f font) (font, string, error) {
	if t.fitsCoreFont(text) {
		return f, t.translate(text), nil
	}

	if err := coveredByUnicodeFace(text); err != nil {
		return font{}, "", err
	}

	if !t.unicodeLoaded {
		t.pdf.AddUTF8FontFromBytes(unicodeFamily, "", goregular.TTF)
		t.pdf.AddUTF8FontFromBytes(unicodeFamily, "B", gobold.TTF)
		t.unicodeLoaded = true
	}

	style := ""
	if strings.Contains(strings.ToUpper(f.Style), "B") {
		style = "B"
	}
	return font{Family: unicodeFamily, Style: style, Size: f.Size}, text, nil
}

func (t *typesetter) fitsCoreFont(text string) bool {
	for _, r := range text {
		if r < 0x80 {
			continue
		}
		// The cp1252 translator writes '.' for runes outside the code page.
		if t.translate(string(r)) == "." {
			return false
		}
	}
	return true
}

func (t *typesetter) width(text string, f font) (float64, error) {
	chosen, encoded, err := t.prepare(text, f)
	if err != nil {
		return 0, err
	}
	t.pdf.SetFont(chosen.Family, chosen.Style, chosen.Size)
	return t.pdf.GetStringWidth(encoded), nil
}

func (t *typesetter) draw(block textBlock) error {
	chosen, encoded, err := t.prepare(block.Text, block.Font)
	if err != nil {
		return err
	}
	t.pdf.SetFont(chosen.Family, chosen.Style, chosen.Size)
	t.pdf.SetTextColor(block.Color.R, block.Color.G, block.Color.B)
	t.pdf.Text(block.X, block.Y, encoded)
	return nil
}

func coveredByUnicodeFace(text string) error {
	face, err := loadUnicodeFace()
	if err != nil {
		return fmt.Errorf("load unicode font: %w", err)
	}

	var buf sfnt.Buffer
	for _, r := range text {
		idx, err := face.GlyphIndex(&buf, r)
		if err != nil {
			return fmt.Errorf("lookup glyph %q: %w", r, err)
		}
		if idx == 0 {
			return fmt.Errorf("%w: %q", ErrUnsupportedText, r)
		}
	}
	return nil
}
