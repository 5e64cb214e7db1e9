package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resize4me/internal/models"
)

func TestNormalizeMetadata(t *testing.T) {
	got := normalizeMetadata(map[string]string{
		"Processed":            "true",
		"X-Amz-Meta-Source":    "cat.png",
		"x-amz-meta-processed": "TRUE",
	})
	assert.Equal(t, "cat.png", got["source"])
	assert.Contains(t, []string{"true", "TRUE"}, got["processed"])
	assert.Len(t, got, 2)
}

func TestNewMinioStore(t *testing.T) {
	s, err := NewMinioStore(models.StorageConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	assert.NoError(t, err)
	assert.NotNil(t, s)
}

// fakeS3 answers HEAD and PUT object requests and keeps the last PUT headers.
type fakeS3 struct {
	mu      sync.Mutex
	putPath string
	putHdr  http.Header
	headHdr http.Header
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.putPath = r.URL.Path
		f.putHdr = r.Header.Clone()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		for k, v := range f.headHdr {
			w.Header()[k] = v
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Format(http.TimeFormat))
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3Store(t *testing.T, f *fakeS3) *MinioStore {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := NewMinioStore(models.StorageConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return s
}

func TestPut_PublicReadWithMetadata(t *testing.T) {
	f := &fakeS3{}
	s := newFakeS3Store(t, f)

	err := s.Put(context.Background(), "photos", "resized/cat-300__BOX.png", []byte("png bytes"), "image/png",
		map[string]string{models.ProcessedMarkerKey: "true"})
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, "/photos/resized/cat-300__BOX.png", f.putPath)
	assert.Equal(t, "public-read", f.putHdr.Get("X-Amz-Acl"))
	assert.Equal(t, "true", f.putHdr.Get("X-Amz-Meta-Processed"))
	assert.Equal(t, "image/png", f.putHdr.Get("Content-Type"))
	assert.Empty(t, f.putHdr.Get("X-Amz-Meta-X-Amz-Acl"))
}

func TestPut_OriginalHasNoMarker(t *testing.T) {
	f := &fakeS3{}
	s := newFakeS3Store(t, f)

	require.NoError(t, s.Put(context.Background(), "photos", "cat.jpg", []byte("jpeg bytes"), "image/jpeg", nil))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, "public-read", f.putHdr.Get("X-Amz-Acl"))
	assert.Empty(t, f.putHdr.Get("X-Amz-Meta-Processed"))
	assert.Equal(t, "image/jpeg", f.putHdr.Get("Content-Type"))
}

func TestStat_ReadsProcessedMarker(t *testing.T) {
	f := &fakeS3{headHdr: http.Header{"X-Amz-Meta-Processed": {"true"}}}
	s := newFakeS3Store(t, f)

	meta, err := s.Stat(context.Background(), "photos", "resized/cat-300__BOX.png")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"processed": "true"}, meta)
}
