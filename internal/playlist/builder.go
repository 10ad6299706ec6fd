package playlist

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/heyfeelings-official/little-microphones/internal/models"
)

// Fixed audio assets shared by every program.
const (
	introFile      = "intro.mp3"
	outroFile      = "outro.mp3"
	transitionFile = "monkeys.mp3"

	staticAudioPrefix = "audio/other"
)

// ErrNoRecordings is returned when the recordings map is empty; there
// is no playlist to build.
var ErrNoRecordings = errors.New("no recordings to build a playlist from")

// Builder assembles radio-program segment sequences and resolves each
// segment to its public CDN URL.
type Builder struct {
	cdnHost string
}

func NewBuilder(cdnHost string) *Builder {
	return &Builder{cdnHost: cdnHost}
}

// Build produces the ordered segment sequence for one program: intro,
// then for each question id in ascending order its prompt followed by
// every recording in the order supplied, a transition between
// consecutive questions only, and the outro. The same input always
// yields the same sequence.
func (b *Builder) Build(lmid, world string, recordings map[string][]string) ([]models.Segment, error) {
	if len(recordings) == 0 {
		return nil, ErrNoRecordings
	}

	questionIDs := sortedQuestionIDs(recordings)

	segments := []models.Segment{
		{Filename: introFile, URL: b.url(staticAudioPrefix + "/" + introFile), Type: models.SegmentIntro},
	}

	for i, qid := range questionIDs {
		prompt := qid + ".mp3"
		segments = append(segments, models.Segment{
			Filename: prompt,
			URL:      b.url(fmt.Sprintf("audio/%s/%s", world, prompt)),
			Type:     models.SegmentQuestion,
		})

		for _, filename := range recordings[qid] {
			segments = append(segments, models.Segment{
				Filename: filename,
				URL:      b.url(fmt.Sprintf("%s/%s/%s", lmid, world, filename)),
				Type:     models.SegmentAnswer,
			})
		}

		if i < len(questionIDs)-1 {
			segments = append(segments, models.Segment{
				Filename: transitionFile,
				URL:      b.url(staticAudioPrefix + "/" + transitionFile),
				Type:     models.SegmentTransition,
			})
		}
	}

	segments = append(segments, models.Segment{
		Filename: outroFile,
		URL:      b.url(staticAudioPrefix + "/" + outroFile),
		Type:     models.SegmentOutro,
	})

	return segments, nil
}

func (b *Builder) url(path string) string {
	return "https://" + b.cdnHost + "/" + path
}

// sortedQuestionIDs orders ascending: numerically when every key
// parses as an integer, lexicographically otherwise. Numeric ordering
// keeps question 10 after question 2.
func sortedQuestionIDs(recordings map[string][]string) []string {
	ids := make([]string, 0, len(recordings))
	for id := range recordings {
		ids = append(ids, id)
	}

	numeric := make(map[string]int, len(ids))
	allNumeric := true
	for _, id := range ids {
		n, err := strconv.Atoi(id)
		if err != nil {
			allNumeric = false
			break
		}
		numeric[id] = n
	}

	if allNumeric {
		sort.Slice(ids, func(i, j int) bool { return numeric[ids[i]] < numeric[ids[j]] })
	} else {
		sort.Strings(ids)
	}
	return ids
}

var questionIDPattern = regexp.MustCompile(`question_(\d+)`)

// GroupRecordings buckets recording filenames by the question id
// embedded in their names. Files without a question marker are skipped.
func GroupRecordings(filenames []string) map[string][]string {
	grouped := make(map[string][]string)
	for _, name := range filenames {
		m := questionIDPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		grouped[m[1]] = append(grouped[m[1]], name)
	}
	return grouped
}

// ManifestPath is where a program's manifest lives in the storage zone.
func ManifestPath(lmid, world string) string {
	return fmt.Sprintf("%s/%s/program.m3u8", lmid, world)
}

// Manifest renders the segment sequence as an extended M3U document
// with one duration-tagged URI line per segment.
func Manifest(segments []models.Segment) string {
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")
	for _, s := range segments {
		fmt.Fprintf(&sb, "#EXTINF:-1,%s\n%s\n", s.Filename, s.URL)
	}
	sb.WriteString("#EXT-X-ENDLIST\n")
	return sb.String()
}
