package certificate

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/notebook-grading-api/internal/observability"
)

const documentCreator = "Notebook Grading Platform"

var pngOptions = fpdf.ImageOptions{ImageType: "PNG"}

// Renderer lays out and serialises completion certificates.
type Renderer struct {
	layout  Layout
	fetcher AssetFetcher
	logger  zerolog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewRenderer constructs a renderer. Each Render call builds its own document.
func NewRenderer(layout Layout, fetcher AssetFetcher, logger zerolog.Logger) *Renderer {
	return &Renderer{
		layout:  layout,
		fetcher: fetcher,
		logger:  logger.With().Str("component", "certificate_renderer").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/notebook-grading-api/internal/certificate"),
		now:     time.Now,
	}
}

// Render produces the PDF bytes of a certificate for fullName dated completionDate.
// Missing logo or signature images degrade to placeholder text; any other failure
// yields a *GenerationError and no bytes.
func (r *Renderer) Render(ctx context.Context, fullName, completionDate string) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "certificate.render")
	defer span.End()

	started := time.Now()
	data, err := r.render(ctx, fullName, completionDate)
	observability.CertificateRenderDuration().Observe(time.Since(started).Seconds())

	if err != nil {
		observability.CertificatesRendered().WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "render_failed")
		r.logger.Error().Err(err).Msg("certificate generation failed")
		return nil, err
	}

	observability.CertificatesRendered().WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int("certificate.bytes", len(data)))
	return data, nil
}

func (r *Renderer) render(ctx context.Context, fullName, completionDate string) ([]byte, error) {
	if strings.TrimSpace(fullName) == "" {
		return nil, &GenerationError{Err: errors.New("full name is required")}
	}

	logo, signature := r.fetchAssets(ctx)
	if err := ctx.Err(); err != nil {
		return nil, &GenerationError{Err: err}
	}

	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetCompression(r.layout.Compress)
	pdf.SetCreationDate(r.now())
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle(r.layout.Title, true)
	pdf.SetCreator(documentCreator, true)
	pdf.AddPage()

	ts := newTypesetter(pdf)
	var measureErr error
	measure := func(text string, f font) float64 {
		width, err := ts.width(text, f)
		if err != nil && measureErr == nil {
			measureErr = err
		}
		return width
	}

	layout := plan(r.layout, measure, fullName, completionDate, logo.slot(), signature.slot())
	if measureErr != nil {
		return nil, &GenerationError{Err: measureErr}
	}

	setFill(pdf, colorWhite)
	pdf.Rect(0, 0, pageWidth, pageHeight, "F")
	setDraw(pdf, colorBorder)
	pdf.SetLineWidth(borderWidth)
	pdf.Rect(borderInset, borderInset, pageWidth-2*borderInset, pageHeight-2*borderInset, "D")

	if layout.Logo != nil {
		drawImage(pdf, "logo", logo, *layout.Logo)
	}
	if layout.Signature != nil {
		drawImage(pdf, "signature", signature, *layout.Signature)
	}

	for _, block := range layout.Texts {
		if err := ts.draw(block); err != nil {
			return nil, &GenerationError{Err: err}
		}
	}

	setDraw(pdf, colorRule)
	pdf.SetLineWidth(signatureLineThickness)
	rule := layout.SignatureRule
	pdf.Line(rule.X1, rule.Y1, rule.X2, rule.Y2)

	if pdf.Err() {
		return nil, &GenerationError{Err: pdf.Error()}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &GenerationError{Err: err}
	}

	return buf.Bytes(), nil
}

// fetchAssets loads logo and signature concurrently; a nil result marks a degraded asset.
func (r *Renderer) fetchAssets(ctx context.Context) (logo, signature *preparedImage) {
	var g errgroup.Group
	g.Go(func() error {
		logo = r.loadAsset(ctx, "logo", r.layout.LogoURL)
		return nil
	})
	g.Go(func() error {
		signature = r.loadAsset(ctx, "signature", r.layout.SignatureURL)
		return nil
	})
	_ = g.Wait()

	return logo, signature
}

func (r *Renderer) loadAsset(ctx context.Context, name, url string) *preparedImage {
	if r.fetcher == nil {
		r.degrade(name, url, errors.New("no asset fetcher configured"))
		return nil
	}

	raw, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		r.degrade(name, url, err)
		return nil
	}

	img, err := prepareImage(raw)
	if err != nil {
		r.degrade(name, url, err)
		return nil
	}

	return img
}

func (r *Renderer) degrade(name, url string, err error) {
	observability.CertificateAssetDegradations().WithLabelValues(name).Inc()
	r.logger.Warn().Err(err).Str("asset", name).Str("url", url).Msg("certificate asset unavailable, using placeholder")
}

func drawImage(pdf *fpdf.Fpdf, name string, img *preparedImage, at box) {
	pdf.RegisterImageOptionsReader(name, pngOptions, bytes.NewReader(img.data))
	pdf.ImageOptions(name, at.X, at.Y, at.W, at.H, false, pngOptions, 0, "")
}

func setFill(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetFillColor(c.R, c.G, c.B)
}

func setDraw(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetDrawColor(c.R, c.G, c.B)
}
