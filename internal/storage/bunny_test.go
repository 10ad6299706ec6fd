package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListSkipsDirectories(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lm-zone/38/spookyland/", r.URL.Path)
		assert.Equal(t, "storage-key", r.Header.Get("AccessKey"))
		_, _ = w.Write([]byte(`[
			{"ObjectName":"a.mp3","IsDirectory":false},
			{"ObjectName":"nested","IsDirectory":true},
			{"ObjectName":"b.mp3","IsDirectory":false}
		]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "lm-zone", "storage-key", "cdn.example.com")
	names, err := c.List(context.Background(), "38/spookyland")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.mp3", "b.mp3"}, names)
}

func TestListMissingDirectoryIsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "lm-zone", "storage-key", "cdn.example.com")
	names, err := c.List(context.Background(), "999/spookyland")
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestUploadRejectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "lm-zone", "bad-key", "cdn.example.com")
	_, err := c.Upload(context.Background(), "38/spookyland/program.m3u8", "application/vnd.apple.mpegurl", []byte("#EXTM3U\n"))
	assert.Error(t, err)
}

func TestConfigured(t *testing.T) {
	assert.True(t, NewClient("https://storage.example.com", "zone", "key", "cdn").Configured())
	assert.False(t, NewClient("https://storage.example.com", "", "", "cdn").Configured())
}

func TestPublicURLAndDataURI(t *testing.T) {
	c := NewClient("https://storage.example.com", "zone", "key", "cdn.example.com")
	assert.Equal(t, "https://cdn.example.com/38/spookyland/program.m3u8", c.PublicURL("38/spookyland/program.m3u8"))

	uri := DataURI("application/vnd.apple.mpegurl", []byte("#EXTM3U\n"))
	assert.Equal(t, "data:application/vnd.apple.mpegurl;base64,I0VYVE0zVQo=", uri)
}
