package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aruvell/marksub/internal/jobs"
	"github.com/aruvell/marksub/internal/subtitle"
)

const (
	defaultJobPreviewLimit = 80
	maxJobPreviewLimit     = 500
)

var errJobNotFound = errors.New("job not found")

type jobDetailResponse struct {
	Job            *jobs.TranslationJob `json:"job"`
	TargetLanguage string               `json:"target_language"`
	Progress       jobProgressResponse  `json:"progress"`
	Preview        []jobPreviewLine     `json:"preview"`
	PreviewOffset  int                  `json:"preview_offset"`
	PreviewLimit   int                  `json:"preview_limit"`
}

type jobProgressResponse struct {
	TranslatedLines int     `json:"translated_lines"`
	TotalLines      int     `json:"total_lines"`
	Percent         float64 `json:"percent"`
}

// jobPreviewLine pairs a translatable cue with its translation, when
// one is known. Pos is the cue's position in the translatable
// sequence, Index its index in the subtitle file.
type jobPreviewLine struct {
	Pos            int    `json:"pos"`
	Index          int    `json:"index"`
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
}

func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jobID, ok := parseJobRoute(r.URL.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	offset := parsePositiveIntWithDefault(r.URL.Query().Get("offset"), 0)
	limit := parsePositiveIntWithDefault(r.URL.Query().Get("limit"), defaultJobPreviewLimit)
	if limit <= 0 {
		limit = defaultJobPreviewLimit
	}
	if limit > maxJobPreviewLimit {
		limit = maxJobPreviewLimit
	}

	detail, err := s.buildJobDetail(r.Context(), jobID, offset, limit)
	if err != nil {
		if errors.Is(err, errJobNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func parseJobRoute(path string) (jobID string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/api/jobs/")
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" || strings.Contains(trimmed, "/") {
		return "", false
	}
	rawID, err := url.PathUnescape(trimmed)
	if err != nil || strings.TrimSpace(rawID) == "" {
		return "", false
	}
	return rawID, true
}

func parsePositiveIntWithDefault(raw string, def int) int {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func (s *Server) buildJobDetail(ctx context.Context, jobID string, offset, limit int) (jobDetailResponse, error) {
	job, ok := s.queue.Get(jobID)
	if !ok {
		return jobDetailResponse{}, errJobNotFound
	}

	detail := jobDetailResponse{
		Job:            job,
		TargetLanguage: job.Payload.TargetLanguage,
		Preview:        []jobPreviewLine{},
		PreviewOffset:  offset,
		PreviewLimit:   limit,
	}
	if detail.TargetLanguage == "" {
		detail.TargetLanguage = s.scanner.TargetLanguage()
	}

	// A missing or unreadable source leaves the detail without preview
	// or progress; the job itself is still reported.
	source, err := subtitle.NewReader().Read(job.Payload.SubtitlePath)
	if err != nil {
		return detail, nil
	}

	lines := translatableLines(source.Cues)
	translated := s.translatedTexts(ctx, job, source.Cues)

	detail.Progress = computeJobProgress(len(lines), translated)
	detail.Preview = buildPreviewLines(lines, translated, offset, limit)
	return detail, nil
}

// translatedTexts maps translatable positions to their known
// translations: the output file diff for finished jobs, saved batch
// checkpoints for everything else. Cues the output carries unchanged
// count as untranslated, which is what fail-open batches produce.
func (s *Server) translatedTexts(ctx context.Context, job *jobs.TranslationJob, sourceCues []subtitle.Cue) map[int]string {
	ret := make(map[int]string)

	if job.Status == jobs.StatusSuccess || job.Status == jobs.StatusSkipped {
		output, err := subtitle.NewReader().Read(job.Payload.OutputPath)
		if err != nil || len(output.Cues) != len(sourceCues) {
			return ret
		}
		pos := 0
		for i, cue := range sourceCues {
			if !cue.Translatable() {
				continue
			}
			if text := output.Cues[i].Text; text != cue.Text && strings.TrimSpace(text) != "" {
				ret[pos] = text
			}
			pos++
		}
		return ret
	}

	if s.jobData == nil {
		return ret
	}
	items, err := s.jobData.LoadCheckpoints(ctx, job.ID)
	if err != nil {
		return ret
	}
	for _, item := range items {
		if item.Pos < 0 || strings.TrimSpace(item.Text) == "" {
			continue
		}
		ret[item.Pos] = item.Text
	}
	return ret
}

func translatableLines(cues []subtitle.Cue) []jobPreviewLine {
	lines := make([]jobPreviewLine, 0, len(cues))
	pos := 0
	for _, cue := range cues {
		if !cue.Translatable() {
			continue
		}
		lines = append(lines, jobPreviewLine{
			Pos:          pos,
			Index:        cue.Index,
			OriginalText: cue.Text,
		})
		pos++
	}
	return lines
}

func computeJobProgress(total int, translated map[int]string) jobProgressResponse {
	if total <= 0 {
		return jobProgressResponse{}
	}
	done := 0
	for pos := 0; pos < total; pos++ {
		if _, ok := translated[pos]; ok {
			done++
		}
	}
	return jobProgressResponse{
		TranslatedLines: done,
		TotalLines:      total,
		Percent:         (float64(done) / float64(total)) * 100,
	}
}

func buildPreviewLines(lines []jobPreviewLine, translated map[int]string, offset, limit int) []jobPreviewLine {
	if offset >= len(lines) {
		return []jobPreviewLine{}
	}
	end := min(len(lines), offset+limit)
	ret := make([]jobPreviewLine, end-offset)
	copy(ret, lines[offset:end])
	for i := range ret {
		ret[i].TranslatedText = translated[ret[i].Pos]
	}
	return ret
}
