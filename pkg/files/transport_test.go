package files_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciyex-org/ciyex-platform-sdk/pkg/files"
)

func retryingClient(srv *httptest.Server) *files.Client {
	httpClient := files.NewHTTPClient(files.TransportConfig{
		RetryMax:     2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
	})
	return newTestClient(srv, files.WithHTTPClient(httpClient))
}

func TestRetrySkipsDeleteAndUpload(t *testing.T) {
	var deletes, uploads atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/files-proxy/by-key", func(w http.ResponseWriter, r *http.Request) {
		if deletes.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /api/files-proxy/store-bytes", func(w http.ResponseWriter, r *http.Request) {
		uploads.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := retryingClient(srv)

	err := client.Delete(authed(), "k")
	require.Error(t, err)
	assert.Equal(t, int32(1), deletes.Load())
	assert.Equal(t, http.StatusBadGateway, files.StatusCode(err))
	assert.False(t, files.IsNotFound(err))

	err = client.UploadBytes(authed(), files.UploadRequest{
		Data:        []byte("abc"),
		ContentType: "text/plain",
		Key:         "k",
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), uploads.Load())
	assert.Equal(t, http.StatusServiceUnavailable, files.StatusCode(err))
}

func TestRetryRepeatsReads(t *testing.T) {
	var sizes, heads atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/files-proxy/by-key/size", func(w http.ResponseWriter, r *http.Request) {
		if sizes.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"size":7}}`))
	})
	mux.HandleFunc("HEAD /api/files-proxy/by-key/exists", func(w http.ResponseWriter, r *http.Request) {
		heads.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := retryingClient(srv)

	size, err := client.GetObjectSize(authed(), "k")
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)
	assert.Equal(t, int32(2), sizes.Load())

	presence, err := client.Stat(authed(), "k")
	assert.Error(t, err)
	assert.Equal(t, files.Indeterminate, presence)
	assert.Equal(t, http.StatusBadGateway, files.StatusCode(err))
	assert.Equal(t, int32(3), heads.Load())
}

func TestDefaultTransportSendsOnce(t *testing.T) {
	var sizes atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/files-proxy/by-key/size", func(w http.ResponseWriter, r *http.Request) {
		sizes.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestClient(srv).GetObjectSize(authed(), "k")
	require.Error(t, err)
	assert.Equal(t, int32(1), sizes.Load())
}
