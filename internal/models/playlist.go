package models

// Segment types in playback order within a program.
const (
	SegmentIntro      = "intro"
	SegmentQuestion   = "question"
	SegmentAnswer     = "answer"
	SegmentTransition = "transition"
	SegmentOutro      = "outro"
)

// Segment is one entry of a radio-program playlist.
type Segment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Type     string `json:"type"`
}
