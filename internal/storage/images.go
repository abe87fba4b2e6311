package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	apperrors "github.com/atelierlabs/atelier/pkg/errors"
	"github.com/atelierlabs/atelier/pkg/metrics"
)

const (
	defaultMaxSizeBytes  = 10 << 20
	defaultMaxEdge       = 2400
	defaultThumbnailEdge = 480
	defaultJPEGQuality   = 85
)

// ErrUnsupportedImage rejects uploads outside the allowed raster formats.
var ErrUnsupportedImage = apperrors.New("UNSUPPORTED_IMAGE", "Only PNG, JPEG, WebP, and GIF images are accepted", http.StatusBadRequest)

// ErrImageTooLarge rejects uploads over the configured size cap.
var ErrImageTooLarge = apperrors.New("IMAGE_TOO_LARGE", "Image exceeds the maximum allowed size", http.StatusRequestEntityTooLarge)

// contentTypeExt maps accepted content types to object key extensions.
var contentTypeExt = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ImagePipeline validates, resizes, and stores artwork uploads.
type ImagePipeline struct {
	store         ObjectStore
	maxSizeBytes  int64
	maxEdge       int
	thumbnailEdge int
	jpegQuality   int
}

// PipelineOption customises the ImagePipeline.
type PipelineOption func(*ImagePipeline)

// WithMaxSizeBytes overrides the upload size cap.
func WithMaxSizeBytes(n int64) PipelineOption {
	return func(p *ImagePipeline) {
		if n > 0 {
			p.maxSizeBytes = n
		}
	}
}

// WithMaxEdge overrides the longest edge originals are resized down to.
func WithMaxEdge(px int) PipelineOption {
	return func(p *ImagePipeline) {
		if px > 0 {
			p.maxEdge = px
		}
	}
}

// WithThumbnailEdge overrides the thumbnail bounding box.
func WithThumbnailEdge(px int) PipelineOption {
	return func(p *ImagePipeline) {
		if px > 0 {
			p.thumbnailEdge = px
		}
	}
}

// WithJPEGQuality overrides the quality of re-encoded JPEG output.
func WithJPEGQuality(q int) PipelineOption {
	return func(p *ImagePipeline) {
		if q > 0 && q <= 100 {
			p.jpegQuality = q
		}
	}
}

// NewImagePipeline constructs the upload pipeline.
func NewImagePipeline(store ObjectStore, opts ...PipelineOption) (*ImagePipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("storage: object store is required")
	}

	pipeline := &ImagePipeline{
		store:         store,
		maxSizeBytes:  defaultMaxSizeBytes,
		maxEdge:       defaultMaxEdge,
		thumbnailEdge: defaultThumbnailEdge,
		jpegQuality:   defaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(pipeline)
	}
	return pipeline, nil
}

// UploadInput describes one incoming image.
type UploadInput struct {
	PortfolioID string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult carries the stored object URLs.
type UploadResult struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Size         int64  `json:"size"`
}

// Upload validates the image, resizes oversized raster formats, stores the
// original plus a JPEG thumbnail, and returns their public URLs. WebP and GIF
// pass through unresized since re-encoding would drop animation or require
// codecs the pipeline does not carry.
func (p *ImagePipeline) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	ext, ok := contentTypeExt[contentType]
	if !ok {
		return nil, ErrUnsupportedImage
	}
	if input.Size > p.maxSizeBytes {
		return nil, ErrImageTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, p.maxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("storage: read upload: %w", err)
	}
	if int64(len(data)) > p.maxSizeBytes {
		return nil, ErrImageTooLarge
	}

	key := fmt.Sprintf("%s/%s.%s", input.PortfolioID, uuid.NewString(), ext)
	result := &UploadResult{Key: key}

	var decoded image.Image
	if contentType == "image/png" || contentType == "image/jpeg" {
		decoded, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, ErrUnsupportedImage
		}

		if edge := longestEdge(decoded); edge > p.maxEdge {
			decoded = imaging.Fit(decoded, p.maxEdge, p.maxEdge, imaging.Lanczos)
			data, err = encode(decoded, contentType, p.jpegQuality)
			if err != nil {
				return nil, fmt.Errorf("storage: re-encode: %w", err)
			}
		}
	}

	if err := p.store.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, err
	}
	result.URL = p.store.PublicURL(key)
	result.Size = int64(len(data))
	metrics.UploadBytes.Add(float64(len(data)))

	if decoded != nil {
		thumb := imaging.Fit(decoded, p.thumbnailEdge, p.thumbnailEdge, imaging.Lanczos)
		thumbData, err := encode(thumb, "image/jpeg", p.jpegQuality)
		if err != nil {
			return nil, fmt.Errorf("storage: encode thumbnail: %w", err)
		}

		thumbKey := strings.TrimSuffix(key, "."+ext) + "_thumb.jpg"
		if err := p.store.Put(ctx, thumbKey, "image/jpeg", bytes.NewReader(thumbData), int64(len(thumbData))); err != nil {
			// Best effort rollback of the original before reporting failure.
			_ = p.store.Remove(ctx, key)
			return nil, err
		}
		result.ThumbnailURL = p.store.PublicURL(thumbKey)
		metrics.UploadBytes.Add(float64(len(thumbData)))
	} else {
		result.ThumbnailURL = result.URL
	}

	return result, nil
}

func longestEdge(img image.Image) int {
	bounds := img.Bounds()
	if bounds.Dx() > bounds.Dy() {
		return bounds.Dx()
	}
	return bounds.Dy()
}

func encode(img image.Image, contentType string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch contentType {
	case "image/png":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, err
		}
	default:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
