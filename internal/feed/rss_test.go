package feed

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heyfeelings-official/little-microphones/internal/models"
)

func TestGenerateRSS(t *testing.T) {
	program := Program{Lmid: "38", World: "spookyland", ShareID: "a1b2c3d4e5f6"}
	segments := []models.Segment{
		{Filename: "intro.mp3", URL: "https://cdn.example.com/audio/other/intro.mp3", Type: models.SegmentIntro},
		{Filename: "a.mp3", URL: "https://cdn.example.com/38/spookyland/a.mp3", Type: models.SegmentAnswer},
	}

	rss, err := GenerateRSS(program, segments, "https://example.com")
	assert.NoError(t, err)

	assert.True(t, strings.HasPrefix(rss, `<?xml`))
	assert.Contains(t, rss, "Little Microphones: spookyland (program 38)")
	assert.Contains(t, rss, "https://example.com/rss/a1b2c3d4e5f6?world=spookyland")
	assert.Contains(t, rss, "https://cdn.example.com/audio/other/intro.mp3")
	assert.Contains(t, rss, "https://cdn.example.com/38/spookyland/a.mp3")
	assert.Contains(t, rss, "01. intro.mp3")
	assert.Contains(t, rss, "02. a.mp3")
}

func TestBaseURL(t *testing.T) {
	r := httptest.NewRequest("GET", "/rss/abc", nil)
	r.Host = "lm.example.com"

	assert.Equal(t, "https://configured.example.com", BaseURL("https://configured.example.com", r))
	assert.Equal(t, "https://lm.example.com", BaseURL("", r))

	r.Header.Set("X-Forwarded-Proto", "http")
	assert.Equal(t, "http://lm.example.com", BaseURL("", r))
}
