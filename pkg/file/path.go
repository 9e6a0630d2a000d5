package file

import (
	"path/filepath"
	"strings"
)

func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}

	dir := filepath.Dir(path)
	filename := filepath.Base(path)

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	lastDot := strings.LastIndex(filename, ".")
	if lastDot <= 0 {
		return filepath.Join(dir, filename+ext)
	}

	return filepath.Join(dir, filename[:lastDot]+ext)
}

// WithLangSuffix inserts a language code before the extension, so
// "show.srt" with "zh" becomes "show.zh.srt". A path without an
// extension gets the code appended as its extension.
func WithLangSuffix(path, lang string) string {
	if path == "" || lang == "" {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	lang = strings.ToLower(lang)

	if ext == "" {
		return base + "." + lang
	}
	return base + "." + lang + ext
}
