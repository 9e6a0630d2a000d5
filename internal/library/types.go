package library

// Candidate is a subtitle file the scanner judged translatable: a readable
// format with no target-language sibling next to it.
type Candidate struct {
	SubtitlePath string `json:"subtitle_path"`
	OutputPath   string `json:"output_path"`
	Language     string `json:"language,omitempty"`
}

// DedupeKey identifies the unit of work for queue deduplication: one
// subtitle file translated toward one output path.
func (c Candidate) DedupeKey() string {
	return c.SubtitlePath + "|" + c.OutputPath
}

// Root summarizes one configured library directory within a scan.
type Root struct {
	Path           string `json:"path"`
	SubtitleCount  int    `json:"subtitle_count"`
	CandidateCount int    `json:"candidate_count"`
}

// Listing is one scan's view of the configured library roots.
type Listing struct {
	Roots      []Root      `json:"roots"`
	Candidates []Candidate `json:"candidates"`
}
