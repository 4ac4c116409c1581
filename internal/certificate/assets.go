package certificate

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	defaultAssetTimeout  = 15 * time.Second
	defaultMaxAssetBytes = 5 << 20
	// maxAssetPixelWidth caps embedded bitmaps; the page never draws them wider than a few hundred points.
	maxAssetPixelWidth = 1200
)

// AssetFetcher retrieves the raw bytes behind an asset URL.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches assets over HTTP.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher builds a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultAssetTimeout
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: defaultMaxAssetBytes,
	}
}

// Fetch performs a GET and returns the body of a successful response.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("asset url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build asset request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch asset: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read asset body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("asset exceeds %d bytes", f.maxBytes)
	}

	return body, nil
}

// preparedImage is an asset re-encoded as an 8-bit NRGBA PNG.
type preparedImage struct {
	data   []byte
	width  int
	height int
}

func (p *preparedImage) slot() *imageSlot {
	if p == nil {
		return nil
	}
	return &imageSlot{Width: p.width, Height: p.height}
}

// prepareImage sniffs, decodes and normalises raw asset bytes so the PDF writer accepts them.
func prepareImage(raw []byte) (*preparedImage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("asset is empty")
	}

	mime := mimetype.Detect(raw)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("asset is %s, not an image", mime.String())
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode asset image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("asset image has no pixels")
	}

	width, height := bounds.Dx(), bounds.Dy()
	if width > maxAssetPixelWidth {
		height = height * maxAssetPixelWidth / width
		if height < 1 {
			height = 1
		}
		width = maxAssetPixelWidth
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width == bounds.Dx() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode asset image: %w", err)
	}

	return &preparedImage{data: buf.Bytes(), width: width, height: height}, nil
}
