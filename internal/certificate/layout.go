package certificate

// Page geometry and spacing in PDF points, origin top-left.
const (
	pageWidth  = 841.89
	pageHeight = 595.28

	borderInset = 20.0
	borderWidth = 3.0

	logoTopMargin       = 40.0
	logoTargetWidth     = 200.0
	logoFallbackHeight  = 30.0
	logoPlaceholderDrop = 20.0
	logoToTitleGap      = 60.0

	signatureTargetWidth    = 100.0
	signatureFallbackHeight = 20.0
	signatureLineHalfWidth  = 110.0
	signatureLineThickness  = 1.5
)

// Layout holds the fixed wording and asset locations printed on every certificate.
type Layout struct {
	Title          string
	CertifiesLine  string
	CourseLine1    string
	CourseLine2    string
	DatePrefix     string
	SignatoryName  string
	SignatoryTitle string
	LogoURL        string
	SignatureURL   string
	// Compress deflates page content streams. Disable to inspect drawn text.
	Compress bool
}

// DefaultLayout returns the wording of the data analytics training certificate.
func DefaultLayout() Layout {
	return Layout{
		Title:          "Certificate of Completion",
		CertifiesLine:  "This certifies that",
		CourseLine1:    "has successfully completed the",
		CourseLine2:    "BRICS Astronomy & IDIA Data Analytics Training Course",
		DatePrefix:     "Date of Completion: ",
		SignatoryName:  "Duduzile Kubheka",
		SignatoryTitle: "BRICS Astronomy Project Coordinator",
		LogoURL:        "https://raw.githubusercontent.com/Moleboge98/Moleboge98/main/Call%20for%20Application%20for%20the%20Data%20Analytics%20(17).png",
		SignatureURL:   "https://raw.githubusercontent.com/Moleboge98/Moleboge98/main/Duduzile%20signature.png",
		Compress:       true,
	}
}

type rgb struct{ R, G, B int }

var (
	colorWhite       = rgb{255, 255, 255}
	colorBorder      = rgb{69, 130, 181}
	colorNavy        = rgb{26, 51, 115}
	colorDarkGray    = rgb{51, 51, 51}
	colorBlack       = rgb{0, 0, 0}
	colorMidGray     = rgb{84, 84, 84}
	colorPlaceholder = rgb{204, 51, 51}
	colorRule        = rgb{26, 26, 26}
	colorSubtle      = rgb{77, 77, 77}
)

type font struct {
	Family string
	Style  string
	Size   float64
}

var (
	fontTitle         = font{"Helvetica", "B", 30}
	fontCertifies     = font{"Helvetica", "", 16}
	fontName          = font{"Times", "", 36}
	fontCourse        = font{"Helvetica", "", 18}
	fontCourseBold    = font{"Helvetica", "B", 18}
	fontDate          = font{"Helvetica", "", 14}
	fontPlaceholder   = font{"Helvetica", "", 12}
	fontSignatory     = font{"Helvetica", "", 12}
	fontSignatoryRole = font{"Helvetica", "", 11}
)

// measureFunc returns the rendered width of text at the given font.
type measureFunc func(text string, f font) float64

type textBlock struct {
	Text  string
	Font  font
	Color rgb
	X     float64
	// Y is the text baseline.
	Y float64
}

type box struct {
	X, Y, W, H float64
}

type line struct {
	X1, Y1, X2, Y2 float64
}

// imageSlot is the natural pixel size of an embedded asset; nil means the asset is unavailable.
type imageSlot struct {
	Width, Height int
}

type placement struct {
	Texts         []textBlock
	Logo          *box
	Signature     *box
	SignatureRule line
}

// centered places text so its measured midpoint sits on the page centre line.
func centered(measure measureFunc, text string, f font, c rgb, y float64) textBlock {
	return textBlock{
		Text:  text,
		Font:  f,
		Color: c,
		X:     pageWidth/2 - measure(text, f)/2,
		Y:     y,
	}
}

func scaledHeight(slot *imageSlot, targetWidth float64) float64 {
	if slot == nil || slot.Width <= 0 {
		return 0
	}
	return float64(slot.Height) * targetWidth / float64(slot.Width)
}

// plan computes every drawing position for one certificate without touching a document.
func plan(l Layout, measure measureFunc, fullName, completionDate string, logo, signature *imageSlot) placement {
	var p placement
	center := pageWidth / 2

	logoHeight := logoFallbackHeight
	if logo != nil {
		logoHeight = scaledHeight(logo, logoTargetWidth)
		p.Logo = &box{X: center - logoTargetWidth/2, Y: logoTopMargin, W: logoTargetWidth, H: logoHeight}
	} else {
		p.Texts = append(p.Texts, centered(measure, "Logo unavailable", fontPlaceholder, colorPlaceholder, logoTopMargin+logoPlaceholderDrop))
	}

	y := logoTopMargin + logoHeight + logoToTitleGap
	p.Texts = append(p.Texts, centered(measure, l.Title, fontTitle, colorNavy, y))
	y += 55
	p.Texts = append(p.Texts, centered(measure, l.CertifiesLine, fontCertifies, colorDarkGray, y))
	y += 60
	p.Texts = append(p.Texts, centered(measure, fullName, fontName, colorBlack, y))
	y += 50
	p.Texts = append(p.Texts, centered(measure, l.CourseLine1, fontCourse, colorDarkGray, y))
	y += 26
	p.Texts = append(p.Texts, centered(measure, l.CourseLine2, fontCourseBold, colorNavy, y))
	y += 70
	p.Texts = append(p.Texts, centered(measure, l.DatePrefix+completionDate, fontDate, colorMidGray, y))
	y += 20

	signatureHeight := signatureFallbackHeight
	if signature != nil {
		signatureHeight = scaledHeight(signature, signatureTargetWidth)
		p.Signature = &box{X: center - signatureTargetWidth/2, Y: y, W: signatureTargetWidth, H: signatureHeight}
	} else {
		p.Texts = append(p.Texts, centered(measure, "Signature unavailable", fontPlaceholder, colorPlaceholder, y+signatureFallbackHeight/2))
	}
	y += signatureHeight

	p.SignatureRule = line{X1: center - signatureLineHalfWidth, Y1: y, X2: center + signatureLineHalfWidth, Y2: y}

	y += 15
	p.Texts = append(p.Texts, centered(measure, l.SignatoryName, fontSignatory, colorDarkGray, y))
	y += 12
	p.Texts = append(p.Texts, centered(measure, l.SignatoryTitle, fontSignatoryRole, colorSubtle, y))

	return p
}
