package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *fakeStore) Put(_ context.Context, key, contentType string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *fakeStore) Remove(_ context.Context, key string) error {
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

func (s *fakeStore) PublicURL(key string) string {
	return "https://cdn.atelier.test/" + key
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := imaging.New(width, height, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestUploadStoresOriginalAndThumbnail(t *testing.T) {
	store := newFakeStore()
	pipeline, err := NewImagePipeline(store)
	require.NoError(t, err)

	data := pngBytes(t, 100, 60)
	result, err := pipeline.Upload(context.Background(), UploadInput{
		PortfolioID: "portfolio-1",
		ContentType: "image/png",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(result.Key, "portfolio-1/"))
	require.True(t, strings.HasSuffix(result.Key, ".png"))
	require.Equal(t, "https://cdn.atelier.test/"+result.Key, result.URL)
	require.NotEqual(t, result.URL, result.ThumbnailURL)
	require.Len(t, store.objects, 2)
	require.Equal(t, "image/png", store.types[result.Key])
}

func TestUploadResizesOversizedImages(t *testing.T) {
	store := newFakeStore()
	pipeline, err := NewImagePipeline(store, WithMaxEdge(64), WithThumbnailEdge(16))
	require.NoError(t, err)

	data := pngBytes(t, 200, 100)
	result, err := pipeline.Upload(context.Background(), UploadInput{
		PortfolioID: "portfolio-1",
		ContentType: "image/png",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	require.NoError(t, err)

	stored, _, err := image.Decode(bytes.NewReader(store.objects[result.Key]))
	require.NoError(t, err)
	require.LessOrEqual(t, stored.Bounds().Dx(), 64)
	require.LessOrEqual(t, stored.Bounds().Dy(), 64)
}

func TestUploadRejectsUnsupportedAndOversized(t *testing.T) {
	store := newFakeStore()
	pipeline, err := NewImagePipeline(store, WithMaxSizeBytes(64))
	require.NoError(t, err)

	_, err = pipeline.Upload(context.Background(), UploadInput{
		PortfolioID: "portfolio-1",
		ContentType: "application/pdf",
		Body:        bytes.NewReader([]byte("%PDF")),
	})
	require.ErrorIs(t, err, ErrUnsupportedImage)

	data := pngBytes(t, 100, 100)
	_, err = pipeline.Upload(context.Background(), UploadInput{
		PortfolioID: "portfolio-1",
		ContentType: "image/png",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	require.ErrorIs(t, err, ErrImageTooLarge)
	require.Empty(t, store.objects)
}

func TestUploadPassesGIFThrough(t *testing.T) {
	store := newFakeStore()
	pipeline, err := NewImagePipeline(store)
	require.NoError(t, err)

	payload := []byte("GIF89a-fake-payload")
	result, err := pipeline.Upload(context.Background(), UploadInput{
		PortfolioID: "portfolio-1",
		ContentType: "image/gif",
		Size:        int64(len(payload)),
		Body:        bytes.NewReader(payload),
	})
	require.NoError(t, err)

	// No thumbnail is generated for pass-through formats.
	require.Equal(t, result.URL, result.ThumbnailURL)
	require.Len(t, store.objects, 1)
	require.Equal(t, payload, store.objects[result.Key])
}
