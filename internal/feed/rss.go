package feed

import (
	"fmt"
	"net/http"
	"time"

	"github.com/eduncan911/podcast"
	"github.com/heyfeelings-official/little-microphones/internal/models"
)

// Program identifies the radio program a feed is generated for.
type Program struct {
	Lmid    string
	World   string
	ShareID string
}

// BaseURL prefers the configured public URL and falls back to the
// request's host, honoring proxy headers.
func BaseURL(configured string, r *http.Request) string {
	if configured != "" {
		return configured
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if r.Header.Get("X-Forwarded-Proto") != "" {
			scheme = r.Header.Get("X-Forwarded-Proto")
		}
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GenerateRSS renders a program's playlist as a podcast feed so a
// share link can be opened in any podcast player.
func GenerateRSS(p Program, segments []models.Segment, baseURL string) (string, error) {
	feed := podcast.New(
		fmt.Sprintf("Little Microphones: %s (program %s)", p.World, p.Lmid),
		fmt.Sprintf("%s/rss/%s?world=%s", baseURL, p.ShareID, p.World),
		"A radio program recorded by kids.",
		&time.Time{}, &time.Time{},
	)

	for i, segment := range segments {
		item := podcast.Item{
			Title:       fmt.Sprintf("%02d. %s", i+1, segment.Filename),
			Description: segment.Type,
		}
		item.AddEnclosure(segment.URL, podcast.MP3, 0)
		if _, err := feed.AddItem(item); err != nil {
			return "", err
		}
	}

	return feed.String(), nil
}
