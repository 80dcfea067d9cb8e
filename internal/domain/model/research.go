package model

// Source is one reference the research stage surfaced.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
	Type  string `json:"type,omitempty"`
}

// ResearchData is the structured output of the research stage and the
// input to the draft stage.
type ResearchData struct {
	Topic     string   `json:"topic"`
	Sources   []Source `json:"sources,omitempty"`
	Summaries []string `json:"summaries,omitempty"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// ReviewResult is the scored outcome of one review call.
type ReviewResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}
