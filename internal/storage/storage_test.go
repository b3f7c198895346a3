package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
}

type fakeS3 struct {
	requests []recordedRequest
	mu       sync.Mutex
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path})
	f.mu.Unlock()
	switch r.Method {
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeS3) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestStore(t *testing.T) (*Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := New(context.Background(), Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "dtp-upload",
	})
	require.NoError(t, err)
	return store, fake
}

func TestPutAndRemove(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	body := []byte("%PDF-1.4")
	url, err := store.Put(ctx, "certifications/7_abc.pdf", bytes.NewReader(body), int64(len(body)), "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:"))
	assert.True(t, strings.HasSuffix(url, "/dtp-upload/certifications/7_abc.pdf"))

	key, ok := store.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "certifications/7_abc.pdf", key)

	require.NoError(t, store.Remove(ctx, key))

	reqs := fake.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, recordedRequest{http.MethodPut, "/dtp-upload/certifications/7_abc.pdf"}, reqs[0])
	assert.Equal(t, recordedRequest{http.MethodDelete, "/dtp-upload/certifications/7_abc.pdf"}, reqs[1])
}

func TestEnsureBucket_Exists(t *testing.T) {
	store, fake := newTestStore(t)
	require.NoError(t, store.EnsureBucket(context.Background()))

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodHead, reqs[0].method)
	assert.Equal(t, "/dtp-upload", reqs[0].path)
}

func TestNew_RequiresEndpointAndBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Bucket: "b"})
	assert.Error(t, err)
	_, err = New(context.Background(), Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestURL_Secure(t *testing.T) {
	store, err := New(context.Background(), Config{Endpoint: "files.dtp.id/", Bucket: "dtp-upload", Secure: true})
	require.NoError(t, err)
	assert.Equal(t, "https://files.dtp.id/dtp-upload/avatars/1_x.png", store.URL("avatars/1_x.png"))
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"avatar", "http://localhost:9000/dtp-upload/avatars/1_x.png", "avatars/1_x.png", true},
		{"other bucket", "http://localhost:9000/other/avatars/1_x.png", "", false},
		{"bucket only", "http://localhost:9000/dtp-upload/", "", false},
		{"empty", "", "", false},
		{"bad url", "http://[::1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeyFromURL(tt.raw, "dtp-upload")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey(PrefixAvatars, 42, "Foto Saya.PNG")
	assert.True(t, strings.HasPrefix(key, "avatars/42_"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, ObjectKey(PrefixAvatars, 42, "Foto Saya.PNG"))
}
