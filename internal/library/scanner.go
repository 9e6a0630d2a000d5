package library

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/aruvell/marksub/internal/subtitle"
	"github.com/aruvell/marksub/pkg/file"
)

type scannerOptions struct {
	cacheTTL time.Duration
}

type Option func(*scannerOptions)

func WithCacheTTL(ttl time.Duration) Option {
	return func(o *scannerOptions) {
		o.cacheTTL = ttl
	}
}

type scanCache struct {
	version uint64
	scanned time.Time
	listing *Listing
}

type Scanner struct {
	roots          []string
	targetLanguage language.Tag

	mu            sync.RWMutex
	cacheTTL      time.Duration
	cache         *scanCache
	configVersion uint64
}

func NewScanner(
	roots []string,
	targetLanguage language.Tag,
	opts ...Option,
) *Scanner {
	options := scannerOptions{
		cacheTTL: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Scanner{
		roots:          roots,
		targetLanguage: targetLanguage,
		cacheTTL:       options.cacheTTL,
	}
}

func (s *Scanner) TargetLanguage() string {
	s.mu.RLock()
	target := s.targetLanguage
	s.mu.RUnlock()

	base, _ := target.Base()
	return base.String()
}

func (s *Scanner) UpdateTargetLanguage(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.targetLanguage != tag {
		s.targetLanguage = tag
		s.cache = nil
		s.configVersion++
	}
	s.mu.Unlock()
	return nil
}

func (s *Scanner) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.configVersion++
	s.mu.Unlock()
}

func (s *Scanner) Scan(ctx context.Context) (*Listing, error) {
	s.mu.RLock()
	version := s.configVersion
	cacheTTL := s.cacheTTL
	if s.cache != nil && s.cache.version == version && (cacheTTL <= 0 || time.Since(s.cache.scanned) < cacheTTL) {
		cached := cloneListing(s.cache.listing)
		s.mu.RUnlock()
		return cached, nil
	}
	roots := append([]string(nil), s.roots...)
	targetLanguage := s.targetLanguage
	s.mu.RUnlock()

	ret := &Listing{
		Roots:      make([]Root, 0, len(roots)),
		Candidates: make([]Candidate, 0),
	}

	for _, rootPath := range roots {
		if rootPath == "" {
			continue
		}
		if _, err := os.Stat(rootPath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		subtitleFiles, err := findSubtitleFiles(ctx, rootPath)
		if err != nil {
			return nil, err
		}

		root := Root{Path: rootPath, SubtitleCount: len(subtitleFiles)}

		byDir := make(map[string][]string)
		for _, path := range subtitleFiles {
			dir := filepath.Dir(path)
			byDir[dir] = append(byDir[dir], path)
		}

		dirs := make([]string, 0, len(byDir))
		for dir := range byDir {
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)

		for _, dir := range dirs {
			candidates := candidatesInDir(byDir[dir], targetLanguage)
			ret.Candidates = append(ret.Candidates, candidates...)
			root.CandidateCount += len(candidates)
		}

		ret.Roots = append(ret.Roots, root)
	}

	s.mu.Lock()
	if s.configVersion == version {
		s.cache = &scanCache{
			version: version,
			scanned: time.Now(),
			listing: cloneListing(ret),
		}
	}
	s.mu.Unlock()

	return ret, nil
}

var subtitleExts = []string{
	".srt", ".ass", ".ssa", ".vtt", ".sub", ".idx", ".sup", ".txt",
}

func findSubtitleFiles(ctx context.Context, root string) ([]string, error) {
	ret := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if slices.Contains(subtitleExts, ext) {
			ret = append(ret, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// candidatesInDir decides which subtitle files in one directory still need
// translating. A file is excluded when any sibling sharing its media base
// already carries the target language token, or when the file itself is in
// the target language, or when the format is one the reader cannot parse.
func candidatesInDir(paths []string, target language.Tag) []Candidate {
	type entry struct {
		path  string
		base  string
		token string
	}

	entries := make([]entry, 0, len(paths))
	hasTarget := make(map[string]bool)
	for _, path := range paths {
		name := filepath.Base(path)
		ext := filepath.Ext(name)
		base, token := splitLanguageToken(strings.TrimSuffix(name, ext))
		if token != "" && isTargetLanguage(token, target) {
			hasTarget[base] = true
			continue
		}
		entries = append(entries, entry{path: path, base: base, token: token})
	}

	targetBase, _ := target.Base()
	ret := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		if hasTarget[e.base] {
			continue
		}
		if _, err := subtitle.FormatForPath(e.path); err != nil {
			continue
		}
		basePath := filepath.Join(filepath.Dir(e.path), e.base+filepath.Ext(e.path))
		ret = append(ret, Candidate{
			SubtitlePath: e.path,
			OutputPath:   file.WithLangSuffix(basePath, targetBase.String()),
			Language:     normalizeLangCode(e.token),
		})
	}
	return ret
}

// splitLanguageToken splits a subtitle stem into its media base and trailing
// language token, e.g. "show.en" → ("show", "en"). Stems without a
// recognizable token come back whole with an empty token.
func splitLanguageToken(stem string) (base, token string) {
	idx := strings.LastIndexAny(stem, "._- ")
	if idx <= 0 || idx == len(stem)-1 {
		return stem, ""
	}
	candidate := strings.ToLower(stem[idx+1:])
	if !isLanguageToken(candidate) {
		return stem, ""
	}
	return stem[:idx], candidate
}

// normalizeLangCode validates a language token and returns its normalized
// ISO 639-1 base code (e.g. "fre"→"fr", "eng"→"en", "chi"→"zh").
// Returns "" if the token is not a recognized language code.
func normalizeLangCode(token string) string {
	if token == "" {
		return ""
	}
	tag, err := language.Parse(token)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

func isTargetLanguage(token string, target language.Tag) bool {
	token = strings.ToLower(strings.ReplaceAll(token, "_", "-"))
	if token == "" {
		return false
	}

	base, _ := target.Base()
	targetBase := strings.ToLower(base.String())
	if token == targetBase || strings.HasPrefix(token, targetBase+"-") {
		return true
	}

	// common aliases
	switch targetBase {
	case "zh":
		return token == "chi" || token == "chs" || token == "cht"
	case "en":
		return token == "eng"
	}

	if normalized := normalizeLangCode(token); normalized != "" {
		return normalized == targetBase
	}

	return false
}

func isLanguageToken(token string) bool {
	if token == "" {
		return false
	}
	if normalizeLangCode(token) != "" {
		return true
	}
	switch token {
	case "chs", "cht":
		return true
	default:
		return false
	}
}

func cloneListing(src *Listing) *Listing {
	if src == nil {
		return nil
	}

	dst := &Listing{
		Roots:      make([]Root, len(src.Roots)),
		Candidates: make([]Candidate, len(src.Candidates)),
	}
	copy(dst.Roots, src.Roots)
	copy(dst.Candidates, src.Candidates)
	return dst
}
